// Package config loads latchlist.cue configuration files.
//
// A file is unified with an embedded CUE schema that supplies defaults
// and bounds, then decoded into a Config:
//
//	list:      "groceries"
//	db:        "lists.db"
//	step:      100
//	precision: 4
//	dynamo: table: "latchlist-keys"
//
// Unknown fields are rejected.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/latchlist/internal/orderkey"
)

//go:embed schema.cue
var schemaSource string

// FileName is the configuration file looked up in the working directory
// when no path is given.
const FileName = "latchlist.cue"

// Config is a decoded configuration file.
type Config struct {
	List      string  `json:"list"`
	DB        string  `json:"db"`
	Step      float64 `json:"step"`
	Precision int     `json:"precision"`
	Dynamo    *Dynamo `json:"dynamo,omitempty"`
}

// Dynamo configures the DynamoDB renumber sink.
type Dynamo struct {
	Table  string `json:"table"`
	Region string `json:"region,omitempty"`
}

// Options returns the key options configured.
func (c Config) Options() orderkey.Options {
	return orderkey.Options{Step: c.Step, Precision: c.Precision}
}

// Error is a configuration error with its CUE source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	field := e.Field
	if field == "" {
		field = "config"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source. filename is used in error positions.
func Parse(filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, convertCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, convertCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, convertCUEError(err)
	}
	return cfg, nil
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Resolve loads path, or FileName from the working directory when path is
// empty and that file exists, or falls back to Default.
func Resolve(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(FileName); err == nil {
		return Load(FileName)
	}
	return Default(), nil
}

// convertCUEError keeps the first CUE error with its path and position.
func convertCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	cfgErr := &Error{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
