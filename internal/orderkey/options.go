package orderkey

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultStep is the key spacing used for appends and renumbering.
	DefaultStep = 1000

	// DefaultPrecision is the number of decimal digits kept in midpoints.
	DefaultPrecision = 8

	// MaxPrecision bounds Precision to what a float64 key can carry.
	MaxPrecision = 15
)

// Options controls key generation.
type Options struct {
	// Step is the spacing between keys on append and after a renumber.
	Step float64 `json:"step" yaml:"step"`

	// Precision is the number of decimal digits kept in generated keys.
	Precision int `json:"precision" yaml:"precision"`
}

// DefaultOptions returns Step=1000, Precision=8.
func DefaultOptions() Options {
	return Options{Step: DefaultStep, Precision: DefaultPrecision}
}

// WithDefaults fills a zero Step with DefaultStep. A zero Precision is a
// valid setting and is kept; callers wanting the default precision start
// from DefaultOptions.
func (o Options) WithDefaults() Options {
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	return o
}

// Validate reports every out-of-range field.
func (o Options) Validate() error {
	var errs []error
	if o.Step <= 0 || math.IsNaN(o.Step) || math.IsInf(o.Step, 0) {
		errs = append(errs, fmt.Errorf("step must be a positive finite number, got %v", o.Step))
	}
	if o.Precision < 0 || o.Precision > MaxPrecision {
		errs = append(errs, fmt.Errorf("precision must be within [0, %d], got %d", MaxPrecision, o.Precision))
	}
	return errors.Join(errs...)
}
