package orderkey

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext is wide enough to hold the exact sum of two float64 keys
// rendered in their shortest decimal form.
var decimalContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(40)
	c.Rounding = apd.RoundHalfUp
	return c
}()

var half = apd.New(5, -1)

// Midpoint returns a value between a and b rounded to precision decimal
// digits, biased toward an even last digit. Bounds are swapped if a > b.
//
// The result is not guaranteed to be strictly inside (a, b): when the
// interval is too narrow for the precision, the rounded midpoint collapses
// onto a bound and the caller must treat that as an overflow.
func Midpoint(a, b float64, precision int) float64 {
	if a > b {
		a, b = b, a
	}
	if precision < 0 {
		precision = 0
	}

	lo, err := toDecimal(a)
	if err != nil {
		return (a + b) / 2
	}
	hi, err := toDecimal(b)
	if err != nil {
		return (a + b) / 2
	}

	mid := new(apd.Decimal)
	if _, err := decimalContext.Add(mid, lo, hi); err != nil {
		return (a + b) / 2
	}
	if _, err := decimalContext.Mul(mid, mid, half); err != nil {
		return (a + b) / 2
	}
	if _, err := decimalContext.Quantize(mid, mid, -int32(precision)); err != nil {
		return (a + b) / 2
	}
	mid.Reduce(mid)

	digits, last := fraction(mid)
	if digits == 0 || last%2 == 0 {
		return toFloat(mid)
	}

	// Odd last digit: step one unit up at the same length.
	adjusted := new(apd.Decimal)
	if _, err := decimalContext.Add(adjusted, mid, apd.New(1, -int32(digits))); err != nil {
		return toFloat(mid)
	}
	if adjusted.Cmp(lo) > 0 && adjusted.Cmp(hi) < 0 {
		return toFloat(adjusted)
	}
	return toFloat(mid)
}

// NextStep returns the smallest multiple of step strictly greater than last.
// ok is false when no such finite value exists.
func NextStep(last, step float64) (next float64, ok bool) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return 0, false
	}
	next = (math.Floor(last/step) + 1) * step
	if math.IsNaN(next) || math.IsInf(next, 0) || next <= last {
		return next, false
	}
	return next, true
}

// Format renders a key in its shortest decimal form without an exponent.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toDecimal(f float64) (*apd.Decimal, error) {
	return new(apd.Decimal).SetFloat64(f)
}

func toFloat(d *apd.Decimal) float64 {
	f, err := strconv.ParseFloat(d.Text('f'), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// fraction reports the number of fractional digits of a reduced decimal and
// the value of the last one.
func fraction(d *apd.Decimal) (digits int, last int) {
	text := d.Text('f')
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return 0, 0
	}
	frac := text[dot+1:]
	if frac == "" {
		return 0, 0
	}
	return len(frac), int(frac[len(frac)-1] - '0')
}
