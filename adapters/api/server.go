package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"survivalvolume/adapters/postgres"
	"survivalvolume/adapters/report"
	"survivalvolume/domain/study"
	"survivalvolume/internal"
	"survivalvolume/internal/analysis"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the analysis pipeline to rendering collaborators over
// HTTP. It owns no computation of its own; every request runs the same
// pure pipeline the CLI uses.
type Server struct {
	router  chi.Router
	log     *internal.Logger
	stats   study.StatsConfig
	results *postgres.ResultsRepository // nil when persistence is disabled
}

// NewServer builds the HTTP surface. Pass a nil repository to run without
// persistence.
func NewServer(stats study.StatsConfig, results *postgres.ResultsRepository) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     internal.DefaultLogger,
		stats:   stats,
		results: results,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Post("/report", s.handleReport)
	if s.results != nil {
		s.router.Post("/studies/{name}", s.handleSaveStudy)
		s.router.Get("/studies/{name}/records", s.handleStudyRecords)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SubjectInput is the wire form of one subject, matching the ingestion
// contract: measurements are (time, value) pairs in consistent units.
type SubjectInput struct {
	Group        string       `json:"group"`
	Threshold    float64      `json:"threshold"`
	Measurements [][2]float64 `json:"measurements"`
}

// AnalyzeRequest maps subject identifiers to their raw series. Origin, if
// set, is subtracted from every measurement time before validation.
type AnalyzeRequest struct {
	Subjects map[string]SubjectInput `json:"subjects"`
	Origin   float64                 `json:"origin"`
}

func (req *AnalyzeRequest) toSubjects() []study.Subject {
	ids := make([]string, 0, len(req.Subjects))
	for id := range req.Subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	subjects := make([]study.Subject, 0, len(ids))
	for _, id := range ids {
		in := req.Subjects[id]
		ms := make([]study.Measurement, len(in.Measurements))
		for i, pair := range in.Measurements {
			ms[i] = study.Measurement{Time: pair[0], Value: pair[1]}
		}
		subjects = append(subjects, study.Subject{
			ID:           study.SubjectID(id),
			Group:        study.GroupID(in.Group),
			Measurements: ms,
			Threshold:    in.Threshold,
		})
	}
	return subjects
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Survival summary"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(title, bundle))
}

func (s *Server) handleSaveStudy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	bundle, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	if err := s.results.SaveBundle(r.Context(), name, bundle); err != nil {
		s.log.Error("failed to save study %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleStudyRecords(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	records, err := s.results.LoadRecords(r.Context(), name)
	if err != nil {
		s.log.Error("failed to load study %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// runPipeline decodes the request and runs the analysis, writing the error
// response itself when anything fails. Data errors surface to the caller
// rather than being downgraded; there is nothing to retry.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) (*study.PlotBundle, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if len(req.Subjects) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no subjects supplied"})
		return nil, false
	}

	bundle, err := analysis.Analyze(r.Context(), req.toSubjects(), req.Origin, s.stats)
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return bundle, true
}

func statusFor(err error) int {
	switch {
	case study.IsValidationError(err), study.IsInsufficientDataError(err), study.IsEmptyGroupError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
