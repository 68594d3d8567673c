package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log/level"

	"github.com/Simplici0/cgpa.works/internal/formstate"
	"github.com/Simplici0/cgpa.works/internal/grading"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

//go:embed templates/*.html
var templateFiles embed.FS

var tabs = []string{"gpa", "target", "tuition"}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
	Theme          string
}

type calculatorViewData struct {
	baseViewData
	Tab                string
	State              formstate.State
	Errors             *formstate.ValidationError
	Grades             []string
	CreditOptions      []int
	WaiverOptions      []int
	ScholarshipOptions []int
	DefaultFee         tuition.Amount
}

type resultsViewData struct {
	baseViewData
	Report formstate.Report
}

type resetViewData struct {
	baseViewData
}

var templateFuncs = template.FuncMap{
	"gpa": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"credits": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"fieldError": func(errs *formstate.ValidationError, field string) string {
		if errs == nil {
			return ""
		}
		return errs.Field(field)
	},
	"courseField": func(i int, name string) string { return fmt.Sprintf("courses[%d].%s", i, name) },
	"retakeField": func(i int, name string) string { return fmt.Sprintf("retakes[%d].%s", i, name) },
	"selected": func(current string, option any) template.HTMLAttr {
		if current == fmt.Sprint(option) {
			return "selected"
		}
		return ""
	},
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	st, defaults, _, err := s.loadInputs(r.Context(), sessionID(r))
	var verr *formstate.ValidationError
	if err != nil && !errors.As(err, &verr) {
		s.serverError(w, r, "failed to load form state", err)
		return
	}

	data := s.calculatorView(st, defaults, r.URL.Query().Get("tab"))
	data.Errors = verr
	data.SuccessMessage = r.URL.Query().Get("success")
	s.renderTemplate(w, "calculator.html", data)
}

func (s *server) calculatorView(st formstate.State, defaults formstate.Defaults, tab string) calculatorViewData {
	if !isTab(tab) {
		tab = tabs[0]
	}
	return calculatorViewData{
		baseViewData:       baseViewData{Theme: st.ThemeOr(defaults.Theme)},
		Tab:                tab,
		State:              st,
		Grades:             grading.Grades(),
		CreditOptions:      grading.CreditOptions,
		WaiverOptions:      tuition.WaiverOptions,
		ScholarshipOptions: tuition.ScholarshipOptions,
		DefaultFee:         defaults.TrimesterFee,
	}
}

// handleStateSubmit saves the posted form. Invalid values are kept so the
// user can correct them, and the page is shown again with field errors.
func (s *server) handleStateSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	session := sessionID(r)
	stored, err := s.store.Load(ctx, session)
	if err != nil {
		s.serverError(w, r, "failed to load form state", err)
		return
	}

	st := parseStateForm(r)
	st.Theme = stored.Theme
	if err := s.store.Save(ctx, session, st); err != nil {
		s.serverError(w, r, "failed to save form state", err)
		return
	}

	defaults, err := s.store.Defaults(ctx)
	if err != nil {
		s.serverError(w, r, "failed to load settings", err)
		return
	}

	tab := r.FormValue("tab")
	if !isTab(tab) {
		tab = tabs[0]
	}
	if _, err := st.Parse(defaults); err != nil {
		var verr *formstate.ValidationError
		if !errors.As(err, &verr) {
			s.serverError(w, r, "failed to parse form state", err)
			return
		}
		data := s.calculatorView(st, defaults, tab)
		data.Errors = verr
		data.ErrorMessage = "Some fields need attention."
		s.renderTemplateStatus(w, http.StatusBadRequest, "calculator.html", data)
		return
	}

	if r.FormValue("action") == "calculate" {
		http.Redirect(w, r, "/results", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/?tab="+tab+"&success=Saved", http.StatusSeeOther)
}

func (s *server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	s.mutateState(w, r, func(st *formstate.State, _ formstate.Defaults) error {
		st.AddCourse()
		return nil
	})
}

func (s *server) handleAddRetake(w http.ResponseWriter, r *http.Request) {
	s.mutateState(w, r, func(st *formstate.State, _ formstate.Defaults) error {
		st.AddRetake()
		return nil
	})
}

func (s *server) handleRemoveCourse(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		http.Error(w, "invalid course index", http.StatusBadRequest)
		return
	}
	s.mutateState(w, r, func(st *formstate.State, _ formstate.Defaults) error {
		return st.RemoveCourse(index)
	})
}

func (s *server) handleRemoveRetake(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		http.Error(w, "invalid retake index", http.StatusBadRequest)
		return
	}
	s.mutateState(w, r, func(st *formstate.State, _ formstate.Defaults) error {
		return st.RemoveRetake(index)
	})
}

func (s *server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.mutateState(w, r, func(st *formstate.State, d formstate.Defaults) error {
		st.ToggleTheme(d.Theme)
		return nil
	})
}

// mutateState applies fn to the session's state and saves it. When the
// request carries the full calculator form, the posted values replace the
// stored ones first so pending edits are not lost.
func (s *server) mutateState(w http.ResponseWriter, r *http.Request, fn func(*formstate.State, formstate.Defaults) error) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	session := sessionID(r)
	st, err := s.store.Load(ctx, session)
	if err != nil {
		s.serverError(w, r, "failed to load form state", err)
		return
	}
	defaults, err := s.store.Defaults(ctx)
	if err != nil {
		s.serverError(w, r, "failed to load settings", err)
		return
	}

	if r.PostForm.Get("form") == "calculator" {
		theme := st.Theme
		st = parseStateForm(r)
		st.Theme = theme
	}

	if err := fn(&st, defaults); err != nil {
		if errors.Is(err, formstate.ErrRowNotFound) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, "failed to update form state", err)
		return
	}

	if err := s.store.Save(ctx, session, st); err != nil {
		s.serverError(w, r, "failed to save form state", err)
		return
	}

	tab := r.FormValue("tab")
	if !isTab(tab) {
		tab = tabs[0]
	}
	http.Redirect(w, r, "/?tab="+tab, http.StatusSeeOther)
}

func (s *server) handleResults(w http.ResponseWriter, r *http.Request) {
	st, defaults, in, err := s.loadInputs(r.Context(), sessionID(r))
	if err != nil {
		var verr *formstate.ValidationError
		if !errors.As(err, &verr) {
			s.serverError(w, r, "failed to load form state", err)
			return
		}
		data := s.calculatorView(st, defaults, "")
		data.Errors = verr
		data.ErrorMessage = "Some fields need attention."
		s.renderTemplateStatus(w, http.StatusBadRequest, "calculator.html", data)
		return
	}

	s.renderTemplate(w, "results.html", resultsViewData{
		baseViewData: baseViewData{Theme: in.Theme},
		Report:       formstate.Evaluate(in),
	})
}

func (s *server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context(), sessionID(r))
	if err != nil {
		s.serverError(w, r, "failed to load form state", err)
		return
	}
	s.renderTemplate(w, "reset.html", resetViewData{baseViewData: baseViewData{Theme: st.ThemeOr(formstate.ThemeDark)}})
}

func (s *server) handleResetSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := s.store.Reset(r.Context(), sessionID(r)); err != nil {
		s.serverError(w, r, "failed to reset form state", err)
		return
	}
	http.Redirect(w, r, "/?success=Cleared", http.StatusSeeOther)
}

// parseStateForm reads the calculator form. Course and retake rows are sent
// as parallel value lists in row order.
func parseStateForm(r *http.Request) formstate.State {
	st := formstate.State{
		CompletedCredit: strings.TrimSpace(r.PostForm.Get("completedCredit")),
		CurrentCGPA:     strings.TrimSpace(r.PostForm.Get("currentCGPA")),
		TuitionTotal:    strings.TrimSpace(r.PostForm.Get("tuitionTotal")),
		TrimesterFee:    strings.TrimSpace(r.PostForm.Get("trimesterFee")),
		WaiverPct:       strings.TrimSpace(r.PostForm.Get("waiverPct")),
		ScholarshipPct:  strings.TrimSpace(r.PostForm.Get("scholarshipPct")),
		TargetCGPA:      strings.TrimSpace(r.PostForm.Get("targetCGPA")),
		TargetCredits:   strings.TrimSpace(r.PostForm.Get("targetCredits")),
	}

	credits := r.PostForm["courseCredit"]
	grades := r.PostForm["courseGrade"]
	for i := range credits {
		st.Courses = append(st.Courses, formstate.CourseRow{Credit: credits[i], Grade: valueAt(grades, i)})
	}

	retakeCredits := r.PostForm["retakeCredit"]
	newGrades := r.PostForm["retakeNewGrade"]
	oldGrades := r.PostForm["retakeOldGrade"]
	for i := range retakeCredits {
		st.Retakes = append(st.Retakes, formstate.RetakeRow{
			Credit:   retakeCredits[i],
			NewGrade: valueAt(newGrades, i),
			OldGrade: valueAt(oldGrades, i),
		})
	}

	return st
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func isTab(tab string) bool {
	for _, t := range tabs {
		if t == tab {
			return true
		}
	}
	return false
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	s.renderTemplateStatus(w, http.StatusOK, page, data)
}

func (s *server) renderTemplateStatus(w http.ResponseWriter, status int, page string, data any) {
	templates, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(
		templateFiles,
		"templates/layout.html",
		"templates/"+page,
	)
	if err != nil {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		_ = level.Error(s.logger).Log("msg", "render template", "page", page, "err", err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
