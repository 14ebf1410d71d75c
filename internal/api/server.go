package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"whisperstudio/internal/history"
	"whisperstudio/internal/logging"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/services"
)

const maxRequestBody = 1 << 20

// Deps are the collaborators the HTTP surface reads from.
type Deps struct {
	Jobs    *JobService
	Runs    *runs.Manager
	Tracker *history.Tracker
	// Store is optional; without it /api/history only returns recent entries.
	Store *history.Store
}

// Server exposes transcription jobs, history and run files over HTTP.
type Server struct {
	bind     string
	logger   *slog.Logger
	deps     Deps
	router   *mux.Router
	upgrader websocket.Upgrader

	listener net.Listener
	server   *http.Server
}

// NewServer builds the HTTP surface. It does not listen until Start.
func NewServer(bind string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		deps:   deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs", s.handleJobs).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}", s.handleJob).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}/files", s.handleRunFiles).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}/files/{name}", s.handleRunFile).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	s.router = r

	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "listen", "api_bind is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting requests, waiting up to five seconds for
// in-flight ones.
func (s *Server) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	active := 0
	if s.deps.Jobs != nil {
		active = s.deps.Jobs.Active()
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Jobs: active})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "jobs unavailable")
		return
	}
	var req JobRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	job, err := s.deps.Jobs.Submit(req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, SubmitResponse{
		ID:     job.ID,
		Events: "/api/jobs/" + job.ID + "/events",
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Jobs == nil {
		s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: []Job{}})
		return
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: s.deps.Jobs.List()})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		s.writeError(w, http.StatusNotFound, ErrJobNotFound.Error())
		return
	}
	job, err := s.deps.Jobs.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp := HistoryResponse{Recent: []HistoryEntry{}}
	if s.deps.Tracker != nil {
		resp.Recent = FromEntries(s.deps.Tracker.Snapshot())
	}
	if s.deps.Store != nil {
		limit := history.Capacity
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				s.writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}
		var statuses []history.Status
		for _, raw := range r.URL.Query()["status"] {
			switch status := history.Status(strings.ToLower(strings.TrimSpace(raw))); status {
			case history.StatusRunning, history.StatusCompleted, history.StatusFailed:
				statuses = append(statuses, status)
			default:
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", raw))
				return
			}
		}
		records, err := s.deps.Store.Recent(r.Context(), limit, statuses...)
		if err != nil {
			s.logger.Error("history query failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		resp.Runs = make([]RunRecord, 0, len(records))
		for _, rec := range records {
			resp.Runs = append(resp.Runs, FromRecord(rec))
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunFiles(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := mux.Vars(r)["id"]
	names, err := s.deps.Runs.Files(id)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	files := make([]ArtifactLink, 0, len(names))
	for _, name := range names {
		files = append(files, ArtifactLink{Name: name, URL: FileURL(id, name)})
	}
	s.writeJSON(w, http.StatusOK, RunFilesResponse{RunID: id, Files: files})
}

func (s *Server) handleRunFile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	vars := mux.Vars(r)
	path, err := s.deps.Runs.ResolveFile(vars["id"], vars["name"])
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, runs.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("run lookup failed", logging.Error(err))
	s.writeError(w, http.StatusInternalServerError, "failed to read run")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
