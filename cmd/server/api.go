package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log/level"

	"github.com/Simplici0/cgpa.works/internal/formstate"
	"github.com/Simplici0/cgpa.works/internal/grading"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

const maxBodyBytes = 1 << 20

var errConfirmRequired = errors.New("confirm=true is required to clear saved state")

type apiCourse struct {
	Credit int    `json:"credit" validate:"omitempty,min=1,max=6"`
	Grade  string `json:"grade"`
}

type apiRetake struct {
	Credit   int    `json:"credit" validate:"omitempty,min=1,max=6"`
	NewGrade string `json:"newGrade"`
	OldGrade string `json:"oldGrade"`
}

type gpaRequest struct {
	Courses []apiCourse `json:"courses" validate:"dive"`
	Retakes []apiRetake `json:"retakes" validate:"dive"`
}

type gpaResponse struct {
	TermGPA         float64 `json:"termGPA"`
	SemesterCredits int     `json:"semesterCredits"`
}

type cgpaRequest struct {
	CompletedCredit *float64    `json:"completedCredit" validate:"omitempty,gte=0"`
	CurrentCGPA     *float64    `json:"currentCGPA" validate:"omitempty,gte=0,lte=4"`
	Courses         []apiCourse `json:"courses" validate:"dive"`
	Retakes         []apiRetake `json:"retakes" validate:"dive"`
}

type cgpaResponse struct {
	CGPA         float64 `json:"cgpa"`
	TotalCredits float64 `json:"totalCredits"`
}

type targetRequest struct {
	CompletedCredit *float64 `json:"completedCredit" validate:"omitempty,gte=0"`
	CurrentCGPA     *float64 `json:"currentCGPA" validate:"omitempty,gte=0,lte=4"`
	TargetCGPA      *float64 `json:"targetCGPA" validate:"omitempty,gte=0,lte=4"`
	TargetCredits   *float64 `json:"targetCredits" validate:"omitempty,gt=0"`
}

// standing is nil unless both values were sent.
func standing(completedCredit, currentCGPA *float64) *grading.Standing {
	if completedCredit == nil || currentCGPA == nil {
		return nil
	}
	return &grading.Standing{CompletedCredit: *completedCredit, CurrentCGPA: *currentCGPA}
}

type tuitionRequest struct {
	GrossTotal     tuition.Amount  `json:"grossTotal" validate:"gte=0,lte=100000000000000"`
	FixedFee       *tuition.Amount `json:"fixedFee" validate:"omitempty,gte=0,lte=100000000000000"`
	WaiverPct      int             `json:"waiverPct" validate:"oneof=0 20 25 50"`
	ScholarshipPct int             `json:"scholarshipPct" validate:"oneof=0 25 50 100"`
}

type gradesResponse struct {
	Grades             []grading.GradePoint `json:"grades"`
	CreditOptions      []int                `json:"creditOptions"`
	WaiverOptions      []int                `json:"waiverOptions"`
	ScholarshipOptions []int                `json:"scholarshipOptions"`
	DefaultFee         tuition.Amount       `json:"defaultFee"`
}

type stateResponse struct {
	State  formstate.State        `json:"state"`
	Report *formstate.Report      `json:"report"`
	Fields []formstate.FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error  string                 `json:"error"`
	Fields []formstate.FieldError `json:"fields,omitempty"`
}

func (s *server) handleAPIGrades(w http.ResponseWriter, r *http.Request) {
	defaults, err := s.store.Defaults(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gradesResponse{
		Grades:             grading.Table(),
		CreditOptions:      grading.CreditOptions,
		WaiverOptions:      tuition.WaiverOptions,
		ScholarshipOptions: tuition.ScholarshipOptions,
		DefaultFee:         defaults.TrimesterFee,
	})
}

// handleAPIGetState returns the saved state. The report is omitted while any
// saved field is invalid.
func (s *server) handleAPIGetState(w http.ResponseWriter, r *http.Request) {
	st, _, in, err := s.loadInputs(r.Context(), sessionID(r))
	var verr *formstate.ValidationError
	if err != nil && !errors.As(err, &verr) {
		s.respondError(w, r, err)
		return
	}

	res := stateResponse{State: st}
	if verr != nil {
		res.Fields = verr.Fields
	} else {
		report := formstate.Evaluate(in)
		res.Report = &report
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAPIPutState(w http.ResponseWriter, r *http.Request) {
	var st formstate.State
	if err := decodeJSON(w, r, &st); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	defaults, err := s.store.Defaults(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	in, err := st.Parse(defaults)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Save(ctx, sessionID(r), st); err != nil {
		s.respondError(w, r, err)
		return
	}

	report := formstate.Evaluate(in)
	s.writeJSON(w, http.StatusOK, stateResponse{State: st, Report: &report})
}

func (s *server) handleAPIDeleteState(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		s.respondError(w, r, errConfirmRequired)
		return
	}
	if err := s.store.Reset(r.Context(), sessionID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rowUpdate struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

func (s *server) handleAPIUpdateCourse(w http.ResponseWriter, r *http.Request) {
	s.updateRow(w, r, func(st *formstate.State, index int, u rowUpdate) error {
		return st.UpdateCourse(index, u.Field, u.Value)
	})
}

func (s *server) handleAPIUpdateRetake(w http.ResponseWriter, r *http.Request) {
	s.updateRow(w, r, func(st *formstate.State, index int, u rowUpdate) error {
		return st.UpdateRetake(index, u.Field, u.Value)
	})
}

// updateRow edits one cell of a saved row. The edit is stored even when the
// new value does not parse, matching how the form keeps what was typed.
func (s *server) updateRow(w http.ResponseWriter, r *http.Request, fn func(*formstate.State, int, rowUpdate) error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, &badRequestError{fmt.Errorf("parse row index: %w", err)})
		return
	}
	var u rowUpdate
	if err := decodeAndCheck(w, r, &u); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	session := sessionID(r)
	st, err := s.store.Load(ctx, session)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := fn(&st, index, u); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Save(ctx, session, st); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stateResponse{State: st})
}

func (s *server) handleAPIGPA(w http.ResponseWriter, r *http.Request) {
	var req gpaRequest
	if err := decodeAndCheck(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	courses, retakes := engineRows(req.Courses, req.Retakes)
	s.writeJSON(w, http.StatusOK, gpaResponse{
		TermGPA:         grading.TermGPA(courses, retakes),
		SemesterCredits: grading.SemesterCredits(courses),
	})
}

func (s *server) handleAPICGPA(w http.ResponseWriter, r *http.Request) {
	var req cgpaRequest
	if err := decodeAndCheck(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	st := standing(req.CompletedCredit, req.CurrentCGPA)
	courses, retakes := engineRows(req.Courses, req.Retakes)
	s.writeJSON(w, http.StatusOK, cgpaResponse{
		CGPA:         grading.CGPA(st, courses, retakes),
		TotalCredits: grading.TotalCredits(st, courses),
	})
}

func (s *server) handleAPITarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeAndCheck(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var target *grading.Target
	if req.TargetCGPA != nil && req.TargetCredits != nil {
		target = &grading.Target{CGPA: *req.TargetCGPA, Credits: *req.TargetCredits}
	}

	res := formstate.TargetResult{}
	if required, ok := grading.RequiredGPA(standing(req.CompletedCredit, req.CurrentCGPA), target); ok {
		res = formstate.TargetResult{Computable: true, Required: required, Outlook: grading.Classify(required)}
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAPITuition(w http.ResponseWriter, r *http.Request) {
	var req tuitionRequest
	if err := decodeAndCheck(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	in := tuition.Input{
		GrossTotal:         req.GrossTotal,
		WaiverPercent:      req.WaiverPct,
		ScholarshipPercent: req.ScholarshipPct,
	}
	if req.FixedFee != nil {
		in.FixedFee = *req.FixedFee
	} else {
		defaults, err := s.store.Defaults(r.Context())
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		in.FixedFee = defaults.TrimesterFee
	}

	s.writeJSON(w, http.StatusOK, tuition.Calculate(in))
}

func engineRows(courses []apiCourse, retakes []apiRetake) ([]grading.Course, []grading.Retake) {
	outCourses := make([]grading.Course, 0, len(courses))
	for _, c := range courses {
		outCourses = append(outCourses, grading.Course{Credit: c.Credit, Grade: c.Grade})
	}
	outRetakes := make([]grading.Retake, 0, len(retakes))
	for _, r := range retakes {
		outRetakes = append(outRetakes, grading.Retake{Credit: r.Credit, NewGrade: r.NewGrade, OldGrade: r.OldGrade})
	}
	return outCourses, outRetakes
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &badRequestError{fmt.Errorf("decode request body: %w", err)}
	}
	return nil
}

func decodeAndCheck(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return formstate.Check(dst)
}

// respondError maps err to a status code. Anything unrecognised is a 500 and
// its detail is only logged.
func (s *server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *formstate.ValidationError
	var berr *badRequestError

	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: formstate.ErrInvalidInput.Error(), Fields: verr.Fields})
	case errors.As(err, &berr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: berr.Error()})
	case errors.Is(err, formstate.ErrRowNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, formstate.ErrUnknownField):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, errConfirmRequired):
		s.writeJSON(w, http.StatusPreconditionRequired, errorResponse{Error: err.Error()})
	default:
		_ = level.Error(s.logger).Log("msg", "api request failed", "err", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		_ = level.Warn(s.logger).Log("msg", "encode response", "err", err)
	}
}
