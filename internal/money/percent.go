package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Percent is a percentage in hundredths of a percent: 33.33% is Percent(3333).
type Percent int64

// Hundred is 100%.
const Hundred Percent = 100 * 100

// ParsePercent reads "33.33" as Percent(3333). More than two decimal places is an error.
func ParsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	bp := d.Shift(2)
	if !bp.IsInteger() {
		return 0, fmt.Errorf("percentage %q has more than two decimal places", s)
	}
	return Percent(bp.IntPart()), nil
}

// String formats the percentage with two decimals, e.g. "33.33".
func (p Percent) String() string {
	return decimal.New(int64(p), -2).StringFixed(2)
}

// Of returns floor(a * p / 100%) for non-negative a and p.
func (p Percent) Of(a Amount) Amount {
	d := decimal.NewFromInt(int64(a)).Mul(decimal.NewFromInt(int64(p))).Div(decimal.NewFromInt(int64(Hundred)))
	return Amount(d.Floor().IntPart())
}

// Ratio returns part/whole as a Percent rounded half up. A zero whole yields 0.
func Ratio(part, whole Amount) Percent {
	if whole == 0 {
		return 0
	}
	r := decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(int64(Hundred))).Div(decimal.NewFromInt(int64(whole)))
	return Percent(r.Round(0).IntPart())
}
