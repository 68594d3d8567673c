package formstate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/cgpa.works/internal/grading"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

// Defaults are the values used for fields the user left blank.
type Defaults struct {
	TrimesterFee tuition.Amount
	Theme        string
}

// Inputs are the parsed engine arguments for one calculation.
type Inputs struct {
	// Standing is nil unless both completed credit and current CGPA are set.
	Standing *grading.Standing
	Courses  []grading.Course
	Retakes  []grading.Retake
	// Target is nil unless both target CGPA and target credits are set.
	Target  *grading.Target
	Tuition tuition.Input
	Theme   string
}

// Grades are not validated; a symbol outside the table makes the engines
// skip that row.
type parsedCourse struct {
	Credit *int   `json:"credit" validate:"omitempty,min=1,max=6"`
	Grade  string `json:"grade"`
}

type parsedRetake struct {
	Credit   *int   `json:"credit" validate:"omitempty,min=1,max=6"`
	NewGrade string `json:"newGrade"`
	OldGrade string `json:"oldGrade"`
}

type parsedForm struct {
	CompletedCredit *float64       `json:"completedCredit" validate:"omitempty,gte=0"`
	CurrentCGPA     *float64       `json:"currentCGPA" validate:"omitempty,gte=0,lte=4"`
	Courses         []parsedCourse `json:"courses" validate:"dive"`
	Retakes         []parsedRetake `json:"retakes" validate:"dive"`
	TuitionTotal    *float64       `json:"tuitionTotal" validate:"omitempty,gte=0,lte=1000000000000"`
	TrimesterFee    *float64       `json:"trimesterFee" validate:"omitempty,gte=0,lte=1000000000000"`
	WaiverPct       *int           `json:"waiverPct" validate:"omitempty,oneof=0 20 25 50"`
	ScholarshipPct  *int           `json:"scholarshipPct" validate:"omitempty,oneof=0 25 50 100"`
	TargetCGPA      *float64       `json:"targetCGPA" validate:"omitempty,gte=0,lte=4"`
	TargetCredits   *float64       `json:"targetCredits" validate:"omitempty,gt=0"`
	Theme           string         `json:"theme" validate:"omitempty,oneof=dark light"`
}

// numberParser collects per-field parse failures so they can be reported together.
type numberParser struct {
	errs []FieldError
}

func (p *numberParser) number(field, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.errs = append(p.errs, FieldError{Field: field, Error: field + " must be a number"})
		return nil
	}
	return &v
}

func (p *numberParser) whole(field, raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, FieldError{Field: field, Error: field + " must be a whole number"})
		return nil
	}
	return &v
}

// Parse converts the state into engine inputs. Blank fields and incomplete
// rows are not errors; the engines skip them. Text that is not a number or
// is out of bounds is reported as a *ValidationError.
func (s State) Parse(d Defaults) (Inputs, error) {
	p := &numberParser{}

	form := parsedForm{
		CompletedCredit: p.number(FieldCompletedCredit, s.CompletedCredit),
		CurrentCGPA:     p.number(FieldCurrentCGPA, s.CurrentCGPA),
		TuitionTotal:    p.number(FieldTuitionTotal, s.TuitionTotal),
		TrimesterFee:    p.number(FieldTrimesterFee, s.TrimesterFee),
		WaiverPct:       p.whole(FieldWaiverPct, s.WaiverPct),
		ScholarshipPct:  p.whole(FieldScholarshipPct, s.ScholarshipPct),
		TargetCGPA:      p.number(FieldTargetCGPA, s.TargetCGPA),
		TargetCredits:   p.number(FieldTargetCredits, s.TargetCredits),
		Theme:           strings.TrimSpace(s.Theme),
	}
	for i, row := range s.Courses {
		form.Courses = append(form.Courses, parsedCourse{
			Credit: p.whole(fmt.Sprintf("courses[%d].credit", i), row.Credit),
			Grade:  strings.TrimSpace(row.Grade),
		})
	}
	for i, row := range s.Retakes {
		form.Retakes = append(form.Retakes, parsedRetake{
			Credit:   p.whole(fmt.Sprintf("retakes[%d].credit", i), row.Credit),
			NewGrade: strings.TrimSpace(row.NewGrade),
			OldGrade: strings.TrimSpace(row.OldGrade),
		})
	}

	errs := p.errs
	var verr *ValidationError
	if err := Check(form); errors.As(err, &verr) {
		errs = append(errs, verr.Fields...)
	}
	if len(errs) > 0 {
		return Inputs{}, &ValidationError{Fields: errs}
	}

	return form.inputs(d), nil
}

func (f parsedForm) inputs(d Defaults) Inputs {
	in := Inputs{
		Courses: make([]grading.Course, 0, len(f.Courses)),
		Retakes: make([]grading.Retake, 0, len(f.Retakes)),
		Theme:   f.Theme,
	}
	if in.Theme == "" {
		in.Theme = d.Theme
	}

	if f.CompletedCredit != nil && f.CurrentCGPA != nil {
		in.Standing = &grading.Standing{CompletedCredit: *f.CompletedCredit, CurrentCGPA: *f.CurrentCGPA}
	}
	if f.TargetCGPA != nil && f.TargetCredits != nil {
		in.Target = &grading.Target{CGPA: *f.TargetCGPA, Credits: *f.TargetCredits}
	}

	for _, c := range f.Courses {
		in.Courses = append(in.Courses, grading.Course{Credit: deref(c.Credit), Grade: c.Grade})
	}
	for _, r := range f.Retakes {
		in.Retakes = append(in.Retakes, grading.Retake{Credit: deref(r.Credit), NewGrade: r.NewGrade, OldGrade: r.OldGrade})
	}

	in.Tuition = tuition.Input{
		FixedFee:           d.TrimesterFee,
		WaiverPercent:      deref(f.WaiverPct),
		ScholarshipPercent: deref(f.ScholarshipPct),
	}
	if f.TuitionTotal != nil {
		in.Tuition.GrossTotal = tuition.FromFloat(*f.TuitionTotal)
	}
	if f.TrimesterFee != nil {
		in.Tuition.FixedFee = tuition.FromFloat(*f.TrimesterFee)
	}

	return in
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
