package grading

import "math"

// Course is one course taken in the current term. A zero Credit or an empty
// Grade marks an incomplete row.
type Course struct {
	Credit int    `json:"credit"`
	Grade  string `json:"grade"`
}

// Retake is a previously graded course being taken again. OldGrade may be
// empty when the user does not know it.
type Retake struct {
	Credit   int    `json:"credit"`
	NewGrade string `json:"newGrade"`
	OldGrade string `json:"oldGrade"`
}

// Standing is the academic record before the current term.
type Standing struct {
	CompletedCredit float64 `json:"completedCredit"`
	CurrentCGPA     float64 `json:"currentCGPA"`
}

// Target is the cumulative goal used by RequiredGPA.
type Target struct {
	CGPA    float64 `json:"targetCGPA"`
	Credits float64 `json:"targetCredits"`
}

// Outlook classifies a required term GPA.
type Outlook string

const (
	OutlookNeeded     Outlook = "needed"
	OutlookImpossible Outlook = "impossible"
	OutlookAchieved   Outlook = "achieved"
)

// Summary groups the four result figures shown after a calculation.
type Summary struct {
	TermGPA         float64 `json:"termGPA"`
	CGPA            float64 `json:"cgpa"`
	SemesterCredits int     `json:"semesterCredits"`
	TotalCredits    float64 `json:"totalCredits"`
}

func (c Course) points() (float64, bool) {
	if c.Credit <= 0 {
		return 0, false
	}
	p, ok := Point(c.Grade)
	if !ok {
		return 0, false
	}
	return float64(c.Credit) * p, true
}

// TermGPA computes the GPA of the current term. Retakes count with their new
// grade. Incomplete rows are skipped; no valid rows yields 0.
func TermGPA(courses []Course, retakes []Retake) float64 {
	totalPoints := 0.0
	totalCredits := 0.0

	for _, c := range courses {
		pts, ok := c.points()
		if !ok {
			continue
		}
		totalPoints += pts
		totalCredits += float64(c.Credit)
	}

	for _, r := range retakes {
		pts, ok := Course{Credit: r.Credit, Grade: r.NewGrade}.points()
		if !ok {
			continue
		}
		totalPoints += pts
		totalCredits += float64(r.Credit)
	}

	return average(totalPoints, totalCredits)
}

// CGPA folds the current term into the prior standing. A retake replaces the
// old grade's contribution without adding its credit again, so a retake with
// no OldGrade is left out entirely.
func CGPA(standing *Standing, courses []Course, retakes []Retake) float64 {
	adjustedPoints := 0.0
	totalCredits := 0.0
	if standing != nil {
		adjustedPoints = standing.CurrentCGPA * standing.CompletedCredit
		totalCredits = standing.CompletedCredit
	}

	for _, c := range courses {
		pts, ok := c.points()
		if !ok {
			continue
		}
		adjustedPoints += pts
		totalCredits += float64(c.Credit)
	}

	for _, r := range retakes {
		if r.Credit <= 0 {
			continue
		}
		newPoint, okNew := Point(r.NewGrade)
		oldPoint, okOld := Point(r.OldGrade)
		if !okNew || !okOld {
			continue
		}
		adjustedPoints += float64(r.Credit) * (newPoint - oldPoint)
	}

	return average(adjustedPoints, totalCredits)
}

// RequiredGPA solves for the term GPA that lifts standing to target. The
// result is not clamped; use Classify to interpret it. ok is false when
// either input is missing or the target has no credits.
func RequiredGPA(standing *Standing, target *Target) (required float64, ok bool) {
	if standing == nil || target == nil || target.Credits <= 0 {
		return 0, false
	}

	wanted := target.CGPA * (standing.CompletedCredit + target.Credits)
	have := standing.CurrentCGPA * standing.CompletedCredit
	return (wanted - have) / target.Credits, true
}

// Classify reports whether a required GPA is reachable this term.
func Classify(required float64) Outlook {
	switch {
	case required > MaxPoint:
		return OutlookImpossible
	case required <= 0:
		return OutlookAchieved
	default:
		return OutlookNeeded
	}
}

// SemesterCredits sums the credits of every course row that has a credit,
// graded or not. Retakes are not new credits.
func SemesterCredits(courses []Course) int {
	total := 0
	for _, c := range courses {
		if c.Credit > 0 {
			total += c.Credit
		}
	}
	return total
}

// TotalCredits is the completed credit plus this term's course credits.
func TotalCredits(standing *Standing, courses []Course) float64 {
	total := float64(SemesterCredits(courses))
	if standing != nil {
		total += standing.CompletedCredit
	}
	return total
}

// Summarize computes every figure of the results view.
func Summarize(standing *Standing, courses []Course, retakes []Retake) Summary {
	return Summary{
		TermGPA:         TermGPA(courses, retakes),
		CGPA:            CGPA(standing, courses, retakes),
		SemesterCredits: SemesterCredits(courses),
		TotalCredits:    TotalCredits(standing, courses),
	}
}

func average(points, credits float64) float64 {
	if credits <= 0 {
		return 0
	}
	return math.Min(MaxPoint, points/credits)
}
