package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/panel"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// Evaluator runs a prompt through a stored panel. Satisfied by
// panel.Orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, panelID, prompt string) (panel.Evaluation, error)
}

// Server hosts the HTTP handlers for the panel service.
type Server struct {
	store     ports.DocumentStore
	evaluator Evaluator
	mux       *http.ServeMux
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(store ports.DocumentStore, evaluator Evaluator) *Server {
	s := &Server{store: store, evaluator: evaluator, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /list-judges", s.handleListJudges)
	s.mux.HandleFunc("POST /create-judge", s.handleCreateJudge)
	s.mux.HandleFunc("PUT /update-judge/{id}", s.handleUpdateJudge)
	s.mux.HandleFunc("DELETE /delete-judge/{id}", s.handleDeleteJudge)

	s.mux.HandleFunc("GET /list-assemblies", s.handleListAssemblies)
	s.mux.HandleFunc("POST /create-assembly", s.handleCreateAssembly)
	s.mux.HandleFunc("PUT /update-assembly/{id}", s.handleUpdateAssembly)
	s.mux.HandleFunc("DELETE /delete-assembly/{id}", s.handleDeleteAssembly)

	s.mux.HandleFunc("POST /evaluate", s.handleEvaluate)

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleListJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := s.store.ListJudges(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	if judges == nil {
		judges = []domain.JudgeSpec{}
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("%d Judges Retrieved", len(judges)),
		Message: "Successfully retrieved judge data from the database.",
		Content: judges,
	})
}

func (s *Server) handleCreateJudge(w http.ResponseWriter, r *http.Request) {
	var spec domain.JudgeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if err := s.store.PutJudge(r.Context(), spec); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Judge %s Created", spec.Name),
		Message: "Judge created and ready for usage.",
		Content: spec,
	})
}

func (s *Server) handleUpdateJudge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var spec domain.JudgeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	spec.ID = id
	if err := spec.Validate(); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	if _, err := s.store.GetJudge(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	if err := s.store.PutJudge(r.Context(), spec); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Judge %s Updated", spec.Name),
		Message: "Judge data has been updated successfully.",
		Content: spec,
	})
}

func (s *Server) handleDeleteJudge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteJudge(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Judge %s Deleted", id),
		Message: "Judge has been deleted successfully.",
		Content: map[string]string{"judge_id": id},
	})
}

func (s *Server) handleListAssemblies(w http.ResponseWriter, r *http.Request) {
	panels, err := s.store.ListPanels(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	if panels == nil {
		panels = []domain.PanelSpec{}
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("%d Assemblies Retrieved", len(panels)),
		Message: "Successfully retrieved assemblies with proper filter.",
		Content: panels,
	})
}

func (s *Server) handleCreateAssembly(w http.ResponseWriter, r *http.Request) {
	var spec domain.PanelSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if err := s.store.PutPanel(r.Context(), spec); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Assembly %s Created", spec.ID),
		Message: "Assembly has been created successfully.",
		Content: spec,
	})
}

func (s *Server) handleUpdateAssembly(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var spec domain.PanelSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	spec.ID = id
	if err := spec.Validate(); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	if _, err := s.store.GetPanel(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	if err := s.store.PutPanel(r.Context(), spec); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Assembly %s Updated", id),
		Message: "Assembly has been updated successfully.",
		Content: spec,
	})
}

func (s *Server) handleDeleteAssembly(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeletePanel(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   fmt.Sprintf("Assembly %s Deleted", id),
		Message: "Assembly has been deleted successfully.",
		Content: map[string]string{"assembly_id": id},
	})
}

// evaluateRequest is the body of POST /evaluate.
type evaluateRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if req.ID == "" || req.Prompt == "" {
		writeValidationError(w, r, "both 'id' and 'prompt' are required")
		return
	}

	result, err := s.evaluator.Evaluate(r.Context(), req.ID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Not Found",
				fmt.Sprintf("Assembly '%s' not found.", req.ID), nil)
		case errors.Is(err, domain.ErrEmptyPanelID):
			writeValidationError(w, r, err.Error())
		default:
			clog.FromContext(r.Context()).ErrorContext(r.Context(), "evaluation failed",
				"assembly_id", req.ID, "error", err)
			writeError(w, r, http.StatusInternalServerError, "Evaluation Error",
				"Found Errors on processing your requests.", err.Error())
		}
		return
	}

	writeJSON(w, r, http.StatusOK, SuccessMessage{
		Title:   "Evaluation Complete",
		Message: "Judging completed successfully.",
		Content: map[string]any{
			"assembly_id": req.ID,
			"result":      result.Report,
			"verdicts":    result.Verdicts,
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// storeFailure maps document store errors onto HTTP statuses.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Not Found", "Document not found.", nil)
		return
	}
	clog.FromContext(r.Context()).ErrorContext(r.Context(), "store operation failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, "Storage Error",
		"Found Errors on processing your requests.", err.Error())
}
