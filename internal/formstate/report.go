package formstate

import (
	"github.com/Simplici0/cgpa.works/internal/grading"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

// TargetResult is the outcome of the target-GPA solver.
type TargetResult struct {
	Computable bool            `json:"computable"`
	Required   float64         `json:"required"`
	Outlook    grading.Outlook `json:"outlook,omitempty"`
}

// Report groups every calculated figure for one set of inputs.
type Report struct {
	Summary grading.Summary `json:"summary"`
	Target  TargetResult    `json:"target"`
	Tuition tuition.Plan    `json:"tuition"`
}

// Evaluate runs all engines against in.
func Evaluate(in Inputs) Report {
	report := Report{
		Summary: grading.Summarize(in.Standing, in.Courses, in.Retakes),
		Tuition: tuition.Calculate(in.Tuition),
	}

	if required, ok := grading.RequiredGPA(in.Standing, in.Target); ok {
		report.Target = TargetResult{
			Computable: true,
			Required:   required,
			Outlook:    grading.Classify(required),
		}
	}

	return report
}
