package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"survivalvolume/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return NewServer(study.DefaultStatsConfig(), nil)
}

func analyzeBody() string {
	return `{
		"subjects": {
			"m1": {"group": "treated", "threshold": 100, "measurements": [[0, 50], [5, 80], [10, 120]]},
			"m2": {"group": "treated", "threshold": 100, "measurements": [[0, 50], [5, 60], [10, 70]]},
			"m3": {"group": "vehicle", "threshold": 100, "measurements": [[0, 60], [4, 110]]}
		}
	}`
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyze(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(analyzeBody()))
	newTestServer().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var bundle study.PlotBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	require.Len(t, bundle.Groups, 2)

	treated, ok := bundle.Group("treated")
	require.True(t, ok)
	require.Len(t, treated.Records, 2)

	var m1 study.SurvivalRecord
	for _, r := range treated.Records {
		if r.SubjectID == "m1" {
			m1 = r
		}
	}
	assert.False(t, m1.Censored)
	assert.InDelta(t, 7.5, m1.TimeToEvent, 1e-12)
}

func TestAnalyze_MalformedJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json"))
	newTestServer().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_NoSubjects(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"subjects": {}}`))
	newTestServer().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no subjects")
}

func TestAnalyze_ValidationErrorIsUnprocessable(t *testing.T) {
	body := `{"subjects": {"m1": {"group": "g", "threshold": 0, "measurements": [[0, 50]]}}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	newTestServer().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestReport(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/report?title=Study+42", strings.NewReader(analyzeBody()))
	newTestServer().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Study 42")
	assert.Contains(t, rec.Body.String(), "<table>")
}

func TestStudyRoutesDisabledWithoutRepository(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/studies/x", strings.NewReader(analyzeBody()))
	newTestServer().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToSubjects_DeterministicOrder(t *testing.T) {
	req := AnalyzeRequest{Subjects: map[string]SubjectInput{
		"b": {Group: "g", Threshold: 1, Measurements: [][2]float64{{0, 0.5}}},
		"a": {Group: "g", Threshold: 1, Measurements: [][2]float64{{0, 0.5}}},
		"c": {Group: "g", Threshold: 1, Measurements: [][2]float64{{0, 0.5}}},
	}}

	subjects := req.toSubjects()
	require.Len(t, subjects, 3)
	assert.Equal(t, study.SubjectID("a"), subjects[0].ID)
	assert.Equal(t, study.SubjectID("b"), subjects[1].ID)
	assert.Equal(t, study.SubjectID("c"), subjects[2].ID)
}
