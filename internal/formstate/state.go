// Package formstate holds the calculator's form state: the raw text the user
// entered, how it is edited, parsed into engine inputs, evaluated and stored.
package formstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Theme values.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Stored field names. Each present field is persisted as one entry.
const (
	FieldCompletedCredit = "completedCredit"
	FieldCurrentCGPA     = "currentCGPA"
	FieldCourses         = "courses"
	FieldRetakes         = "retakes"
	FieldTuitionTotal    = "tuitionTotal"
	FieldTrimesterFee    = "trimesterFee"
	FieldWaiverPct       = "waiverPct"
	FieldScholarshipPct  = "scholarshipPct"
	FieldTargetCGPA      = "targetCGPA"
	FieldTargetCredits   = "targetCredits"
	FieldTheme           = "theme"
)

var (
	ErrRowNotFound  = errors.New("row not found")
	ErrUnknownField = errors.New("unknown field")
)

// CourseRow is a course line as typed in the form.
type CourseRow struct {
	Credit string `json:"credit"`
	Grade  string `json:"grade"`
}

// RetakeRow is a retake line as typed in the form.
type RetakeRow struct {
	Credit   string `json:"credit"`
	NewGrade string `json:"newGrade"`
	OldGrade string `json:"oldGrade"`
}

// State is everything the user entered. Empty strings mean unset.
type State struct {
	CompletedCredit string      `json:"completedCredit,omitempty"`
	CurrentCGPA     string      `json:"currentCGPA,omitempty"`
	Courses         []CourseRow `json:"courses,omitempty"`
	Retakes         []RetakeRow `json:"retakes,omitempty"`
	TuitionTotal    string      `json:"tuitionTotal,omitempty"`
	TrimesterFee    string      `json:"trimesterFee,omitempty"`
	WaiverPct       string      `json:"waiverPct,omitempty"`
	ScholarshipPct  string      `json:"scholarshipPct,omitempty"`
	TargetCGPA      string      `json:"targetCGPA,omitempty"`
	TargetCredits   string      `json:"targetCredits,omitempty"`
	Theme           string      `json:"theme,omitempty"`
}

// AddCourse puts a blank course row at the top.
func (s *State) AddCourse() {
	s.Courses = append([]CourseRow{{}}, s.Courses...)
}

// AddRetake puts a blank retake row at the top.
func (s *State) AddRetake() {
	s.Retakes = append([]RetakeRow{{}}, s.Retakes...)
}

// UpdateCourse sets field ("credit" or "grade") of the course at index.
func (s *State) UpdateCourse(index int, field, value string) error {
	if index < 0 || index >= len(s.Courses) {
		return fmt.Errorf("course %d: %w", index, ErrRowNotFound)
	}
	row := &s.Courses[index]
	switch field {
	case "credit":
		row.Credit = value
	case "grade":
		row.Grade = value
	default:
		return fmt.Errorf("course field %q: %w", field, ErrUnknownField)
	}
	return nil
}

// UpdateRetake sets field ("credit", "newGrade" or "oldGrade") of the retake at index.
func (s *State) UpdateRetake(index int, field, value string) error {
	if index < 0 || index >= len(s.Retakes) {
		return fmt.Errorf("retake %d: %w", index, ErrRowNotFound)
	}
	row := &s.Retakes[index]
	switch field {
	case "credit":
		row.Credit = value
	case "newGrade":
		row.NewGrade = value
	case "oldGrade":
		row.OldGrade = value
	default:
		return fmt.Errorf("retake field %q: %w", field, ErrUnknownField)
	}
	return nil
}

// RemoveCourse drops the course at index.
func (s *State) RemoveCourse(index int) error {
	if index < 0 || index >= len(s.Courses) {
		return fmt.Errorf("course %d: %w", index, ErrRowNotFound)
	}
	s.Courses = append(s.Courses[:index:index], s.Courses[index+1:]...)
	return nil
}

// RemoveRetake drops the retake at index.
func (s *State) RemoveRetake(index int) error {
	if index < 0 || index >= len(s.Retakes) {
		return fmt.Errorf("retake %d: %w", index, ErrRowNotFound)
	}
	s.Retakes = append(s.Retakes[:index:index], s.Retakes[index+1:]...)
	return nil
}

// ThemeOr returns the chosen theme, or fallback when none is set.
func (s State) ThemeOr(fallback string) string {
	if s.Theme == "" {
		return fallback
	}
	return s.Theme
}

// ToggleTheme flips between dark and light, starting from fallback when unset.
func (s *State) ToggleTheme(fallback string) {
	if s.ThemeOr(fallback) == ThemeDark {
		s.Theme = ThemeLight
		return
	}
	s.Theme = ThemeDark
}

// fields flattens the state into its stored entries. Unset fields are omitted.
func (s State) fields() (map[string]string, error) {
	out := make(map[string]string)
	put := func(name, value string) {
		if v := strings.TrimSpace(value); v != "" {
			out[name] = v
		}
	}

	put(FieldCompletedCredit, s.CompletedCredit)
	put(FieldCurrentCGPA, s.CurrentCGPA)
	put(FieldTuitionTotal, s.TuitionTotal)
	put(FieldTrimesterFee, s.TrimesterFee)
	put(FieldWaiverPct, s.WaiverPct)
	put(FieldScholarshipPct, s.ScholarshipPct)
	put(FieldTargetCGPA, s.TargetCGPA)
	put(FieldTargetCredits, s.TargetCredits)
	put(FieldTheme, s.Theme)

	if len(s.Courses) > 0 {
		data, err := json.Marshal(s.Courses)
		if err != nil {
			return nil, fmt.Errorf("encode courses: %w", err)
		}
		out[FieldCourses] = string(data)
	}
	if len(s.Retakes) > 0 {
		data, err := json.Marshal(s.Retakes)
		if err != nil {
			return nil, fmt.Errorf("encode retakes: %w", err)
		}
		out[FieldRetakes] = string(data)
	}

	return out, nil
}

// stateFromFields rebuilds a State from stored entries. Unknown names are ignored.
func stateFromFields(values map[string]string) (State, error) {
	s := State{
		CompletedCredit: values[FieldCompletedCredit],
		CurrentCGPA:     values[FieldCurrentCGPA],
		TuitionTotal:    values[FieldTuitionTotal],
		TrimesterFee:    values[FieldTrimesterFee],
		WaiverPct:       values[FieldWaiverPct],
		ScholarshipPct:  values[FieldScholarshipPct],
		TargetCGPA:      values[FieldTargetCGPA],
		TargetCredits:   values[FieldTargetCredits],
		Theme:           values[FieldTheme],
	}

	if raw, ok := values[FieldCourses]; ok {
		if err := json.Unmarshal([]byte(raw), &s.Courses); err != nil {
			return State{}, fmt.Errorf("decode courses: %w", err)
		}
	}
	if raw, ok := values[FieldRetakes]; ok {
		if err := json.Unmarshal([]byte(raw), &s.Retakes); err != nil {
			return State{}, fmt.Errorf("decode retakes: %w", err)
		}
	}

	return s, nil
}

// allFields lists every stored field name.
var allFields = []string{
	FieldCompletedCredit,
	FieldCurrentCGPA,
	FieldCourses,
	FieldRetakes,
	FieldTuitionTotal,
	FieldTrimesterFee,
	FieldWaiverPct,
	FieldScholarshipPct,
	FieldTargetCGPA,
	FieldTargetCredits,
	FieldTheme,
}
