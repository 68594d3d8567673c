package tuition

import "sort"

// DefaultFixedFee is the trimester fee used when none is entered.
const DefaultFixedFee Amount = 650000

const (
	firstShare  = 0.4
	secondShare = 0.3
)

var (
	// WaiverOptions are the accepted waiver percentages.
	WaiverOptions = []int{0, 20, 25, 50}
	// ScholarshipOptions are the accepted scholarship percentages.
	ScholarshipOptions = []int{0, 25, 50, 100}
)

// Input holds the tuition figures entered by the user. GrossTotal already
// includes FixedFee.
type Input struct {
	GrossTotal         Amount `json:"grossTotal"`
	FixedFee           Amount `json:"fixedFee"`
	WaiverPercent      int    `json:"waiverPct"`
	ScholarshipPercent int    `json:"scholarshipPct"`
}

// Step is one discount of the cascade with the amount before and after it.
type Step struct {
	Percent int    `json:"percent"`
	Before  Amount `json:"before"`
	After   Amount `json:"after"`
}

// Plan is the discounted total split into three installments.
type Plan struct {
	GrossTotal Amount `json:"grossTotal"`
	FixedFee   Amount `json:"fixedFee"`
	NetBase    Amount `json:"netBase"`
	Steps      []Step `json:"steps"`
	Discounted Amount `json:"discounted"`
	First      Amount `json:"first"`
	Second     Amount `json:"second"`
	Third      Amount `json:"third"`
	Total      Amount `json:"total"`
}

// Calculate applies the waiver and scholarship to the gross total net of the
// fixed fee, smallest percentage first, then adds the fee back and splits the
// result 40/30/30. The third installment takes the rounding remainder.
func Calculate(in Input) Plan {
	if in.GrossTotal <= 0 {
		return Plan{Steps: []Step{}}
	}

	fee := in.FixedFee
	if fee < 0 {
		fee = 0
	}

	netBase := in.GrossTotal - fee
	if netBase < 0 {
		netBase = 0
	}

	amount := netBase
	steps := make([]Step, 0, 2)
	for _, pct := range discountOrder(in.WaiverPercent, in.ScholarshipPercent) {
		after := amount.scale(1 - float64(pct)/100)
		steps = append(steps, Step{Percent: pct, Before: amount, After: after})
		amount = after
	}

	total := amount + fee
	first := total.scale(firstShare)
	second := total.scale(secondShare)

	return Plan{
		GrossTotal: in.GrossTotal,
		FixedFee:   fee,
		NetBase:    netBase,
		Steps:      steps,
		Discounted: amount,
		First:      first,
		Second:     second,
		Third:      total - first - second,
		Total:      total,
	}
}

// discountOrder returns the nonzero percentages in ascending order.
func discountOrder(percents ...int) []int {
	out := make([]int, 0, len(percents))
	for _, p := range percents {
		if p > 0 {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}
