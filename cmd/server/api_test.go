package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/cgpa.works/internal/formstate"
	"github.com/Simplici0/cgpa.works/internal/grading"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestAPIGrades(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/api/grades")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[gradesResponse](t, rec.Body.Bytes())
	assert.Equal(t, grading.Table(), res.Grades)
	assert.Equal(t, []int{0, 20, 25, 50}, res.WaiverOptions)
	assert.Equal(t, []int{0, 25, 50, 100}, res.ScholarshipOptions)
	assert.Equal(t, tuition.DefaultFixedFee, res.DefaultFee)
}

func TestAPIGPA(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/gpa", `{
		"courses": [{"credit": 3, "grade": "A"}, {"credit": 3, "grade": "B"}, {"credit": 0, "grade": ""}],
		"retakes": [{"credit": 3, "newGrade": "A", "oldGrade": "F"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[gpaResponse](t, rec.Body.Bytes())
	assert.InDelta(t, 33.0/9.0, res.TermGPA, 1e-9)
	assert.Equal(t, 6, res.SemesterCredits)
}

func TestAPIGPA_Invalid(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/gpa", `{"courses": [{"credit": 9, "grade": "A"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decodeBody[errorResponse](t, rec.Body.Bytes())
	assert.Equal(t, formstate.ErrInvalidInput.Error(), res.Error)
	fields := map[string]string{}
	for _, f := range res.Fields {
		fields[f.Field] = f.Error
	}
	assert.Contains(t, fields, "courses[0].credit")

	rec = c.sendJSON(http.MethodPost, "/api/gpa", `{"courses": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.sendJSON(http.MethodPost, "/api/gpa", `{"unknown": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIGPA_UnknownGradeIsSkipped(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/gpa", `{"courses": [{"credit": 3, "grade": "A"}, {"credit": 3, "grade": "Z"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[gpaResponse](t, rec.Body.Bytes())
	assert.InDelta(t, 4.0, res.TermGPA, 1e-9)
}

func TestAPICGPA(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/cgpa", `{
		"completedCredit": 30, "currentCGPA": 3.0,
		"courses": [{"credit": 3, "grade": "A"}],
		"retakes": [{"credit": 3, "newGrade": "A", "oldGrade": "C"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[cgpaResponse](t, rec.Body.Bytes())
	assert.InDelta(t, (90.0+12.0+3*(4.0-2.0))/33.0, res.CGPA, 1e-9)
	assert.Equal(t, 33.0, res.TotalCredits)

	rec = c.sendJSON(http.MethodPost, "/api/cgpa", `{"courses": [{"credit": 3, "grade": "B"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeBody[cgpaResponse](t, rec.Body.Bytes())
	assert.InDelta(t, 3.0, res.CGPA, 1e-9)
}

func TestAPITarget(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		body       string
		computable bool
		outlook    grading.Outlook
	}{
		{`{"completedCredit": 60, "currentCGPA": 3.2, "targetCGPA": 3.3, "targetCredits": 15}`, true, grading.OutlookNeeded},
		{`{"completedCredit": 60, "currentCGPA": 2.0, "targetCGPA": 3.9, "targetCredits": 6}`, true, grading.OutlookImpossible},
		{`{"completedCredit": 60, "currentCGPA": 3.8, "targetCGPA": 3.0, "targetCredits": 15}`, true, grading.OutlookAchieved},
		{`{"completedCredit": 60, "currentCGPA": 3.2, "targetCGPA": 3.5}`, false, ""},
	}

	for _, tt := range tests {
		rec := c.sendJSON(http.MethodPost, "/api/target", tt.body)
		require.Equal(t, http.StatusOK, rec.Code, tt.body)

		res := decodeBody[formstate.TargetResult](t, rec.Body.Bytes())
		assert.Equal(t, tt.computable, res.Computable, tt.body)
		assert.Equal(t, tt.outlook, res.Outlook, tt.body)
	}

	rec := c.sendJSON(http.MethodPost, "/api/target", `{"targetCGPA": 4.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.sendJSON(http.MethodPost, "/api/target", `{"completedCredit": 60, "currentCGPA": 3.2, "targetCGPA": 3.5, "targetCredits": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPITuition(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPost, "/api/tuition", `{"grossTotal": 100000, "waiverPct": 20, "scholarshipPct": 50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	plan := decodeBody[tuition.Plan](t, rec.Body.Bytes())
	assert.Equal(t, tuition.DefaultFixedFee, plan.FixedFee)
	assert.Equal(t, tuition.FromFloat(43900), plan.Total)
	assert.Equal(t, tuition.FromFloat(17560), plan.First)
	assert.Equal(t, plan.Total, plan.First+plan.Second+plan.Third)

	rec = c.sendJSON(http.MethodPost, "/api/tuition", `{"grossTotal": 10000, "fixedFee": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	plan = decodeBody[tuition.Plan](t, rec.Body.Bytes())
	assert.Equal(t, tuition.FromFloat(10000), plan.Total)

	rec = c.sendJSON(http.MethodPost, "/api/tuition", `{"grossTotal": 100000, "waiverPct": 30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.sendJSON(http.MethodPost, "/api/tuition", `{"grossTotal": 1e17}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.sendJSON(http.MethodPost, "/api/tuition", `{"grossTotal": 1000000000001}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIState_PutGetDelete(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPut, "/api/state", `{
		"completedCredit": "30", "currentCGPA": "3.0",
		"courses": [{"credit": "3", "grade": "A"}],
		"targetCGPA": "3.5", "targetCredits": "12"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	put := decodeBody[stateResponse](t, rec.Body.Bytes())
	require.NotNil(t, put.Report)
	assert.True(t, put.Report.Target.Computable)

	rec = c.get("/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[stateResponse](t, rec.Body.Bytes())
	assert.Equal(t, "30", got.State.CompletedCredit)
	require.Len(t, got.State.Courses, 1)
	require.NotNil(t, got.Report)
	assert.InDelta(t, 4.0, got.Report.Summary.TermGPA, 1e-9)

	rec = c.sendJSON(http.MethodDelete, "/api/state", "")
	require.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Equal(t, "30", savedState(t, c).CompletedCredit)

	rec = c.sendJSON(http.MethodDelete, "/api/state?confirm=true", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, formstate.State{}, savedState(t, c))
}

func TestAPIState_PutRejectsInvalid(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPut, "/api/state", `{"currentCGPA": "five", "theme": "blue"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decodeBody[errorResponse](t, rec.Body.Bytes())
	fields := map[string]bool{}
	for _, f := range res.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["currentCGPA"])
	assert.True(t, fields["theme"])

	assert.Equal(t, formstate.State{}, savedState(t, c), "invalid state must not be saved")
}

func TestAPIUpdateRows(t *testing.T) {
	c := newTestClient(t)

	rec := c.sendJSON(http.MethodPut, "/api/state", `{
		"courses": [{"credit": "3", "grade": "A"}],
		"retakes": [{"credit": "3", "newGrade": "A", "oldGrade": ""}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.sendJSON(http.MethodPatch, "/api/state/courses/0", `{"field": "grade", "value": "B+"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.sendJSON(http.MethodPatch, "/api/state/retakes/0", `{"field": "oldGrade", "value": "D"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	st := savedState(t, c)
	assert.Equal(t, "B+", st.Courses[0].Grade)
	assert.Equal(t, "D", st.Retakes[0].OldGrade)

	rec = c.sendJSON(http.MethodPatch, "/api/state/courses/3", `{"field": "grade", "value": "A"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.sendJSON(http.MethodPatch, "/api/state/courses/0", `{"field": "colour", "value": "A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.sendJSON(http.MethodPatch, "/api/state/courses/0", `{"value": "A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
