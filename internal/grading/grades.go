package grading

// MaxPoint is the highest grade point on the scale.
const MaxPoint = 4.0

var gradeOrder = []string{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "F"}

var gradePoints = map[string]float64{
	"A":  4.00,
	"A-": 3.67,
	"B+": 3.33,
	"B":  3.00,
	"B-": 2.67,
	"C+": 2.33,
	"C":  2.00,
	"C-": 1.67,
	"D+": 1.33,
	"D":  1.00,
	"F":  0.00,
}

// CreditOptions lists the credit values a course row can take.
var CreditOptions = []int{1, 2, 3, 4, 5, 6}

// GradePoint is a single entry of the grade table.
type GradePoint struct {
	Grade string  `json:"grade"`
	Point float64 `json:"point"`
}

// Point returns the point value of grade and whether grade is on the scale.
func Point(grade string) (float64, bool) {
	p, ok := gradePoints[grade]
	return p, ok
}

// Table returns the grade table from highest to lowest point.
func Table() []GradePoint {
	table := make([]GradePoint, 0, len(gradeOrder))
	for _, g := range gradeOrder {
		table = append(table, GradePoint{Grade: g, Point: gradePoints[g]})
	}
	return table
}

// Grades returns the grade symbols in conventional order.
func Grades() []string {
	out := make([]string, len(gradeOrder))
	copy(out, gradeOrder)
	return out
}
