package tuition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Amount is a money value in cents.
type Amount int64

// MaxAmount is the largest amount accepted from user input (one trillion).
const MaxAmount Amount = 1_000_000_000_000 * 100

var ErrAmountOutOfRange = errors.New("amount out of range")

// FromFloat rounds v to the nearest cent, half away from zero. Values
// beyond the int64 cent range saturate; NaN is 0.
func FromFloat(v float64) Amount {
	cents := math.Round(v * 100)
	switch {
	case math.IsNaN(cents):
		return 0
	case cents >= math.MaxInt64:
		return math.MaxInt64
	case cents <= math.MinInt64:
		return math.MinInt64
	}
	return Amount(cents)
}

// Float returns the amount in currency units.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// String formats the amount with thousands separators and two decimals.
func (a Amount) String() string {
	return humanize.FormatFloat("#,###.##", a.Float())
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if math.Abs(v) > MaxAmount.Float() {
		return fmt.Errorf("%v: %w", v, ErrAmountOutOfRange)
	}
	*a = FromFloat(v)
	return nil
}

// scale multiplies a by factor and rounds back to whole cents.
func (a Amount) scale(factor float64) Amount {
	return Amount(math.Round(float64(a) * factor))
}
