// Package api serves the queue control plane over HTTP: enqueue, listing,
// status, job control, and the DLQ. Workers run in their own process; this
// server only mutates the store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"queuectl/internal/domain"
	"queuectl/internal/ports"
	"queuectl/internal/usecase"
)

type Server struct {
	router *chi.Mux
	store  ports.Store
	enq    usecase.Enqueuer
	dbPath string
	logDir string
}

func NewServer(store ports.Store, dbPath, logDir string) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		enq:    usecase.Enqueuer{Store: store},
		dbPath: dbPath,
		logDir: logDir,
	}

	s.router.Post("/enqueue", s.handleEnqueue)
	s.router.Get("/jobs", s.handleListJobs)
	s.router.Get("/jobs/{id}", s.handleGetJob)
	s.router.Post("/jobs/{id}/pause", s.handlePause)
	s.router.Post("/jobs/{id}/resume", s.handleResume)
	s.router.Delete("/jobs/{id}", s.handleCancel)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/dlq", s.handleListDead)
	s.router.Post("/dlq/{id}/retry", s.handleRetryDead)
	s.router.Delete("/dlq", s.handlePurgeDead)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return s
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var d usecase.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	job, err := s.enq.Enqueue(r.Context(), d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": job.ID})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List(r.Context(), domain.State(r.URL.Query().Get("state")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	full := make(map[domain.State]int, len(domain.States))
	for _, st := range domain.States {
		full[st] = counts[st]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts":  full,
		"db_path": s.dbPath,
		"log_dir": s.logDir,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.store.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.store.Resume)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.store.Cancel)
}

func (s *Server) handleRetryDead(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.store.RetryDead)
}

func (s *Server) control(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleListDead(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListDead(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handlePurgeDead(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.PurgeDead(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

// Handler returns the router wrapped in the middleware chain; split out
// from Run so tests can drive the server without a listener.
func (s *Server) Handler() http.Handler {
	return chainMiddleware(
		s.router,
		recoverHandler,
		loggerHandler(func(w http.ResponseWriter, r *http.Request) bool { return r.URL.Path == "/metrics" }),
		realIPHandler,
		requestIDHandler,
		corsHandler,
	)
}

// Run serves on addr until SIGINT/SIGTERM, then drains with a 30s grace
// period.
func (s *Server) Run(addr string) {
	httpServer := http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Fatal().Err(err).Msg("Server forced to shutdown")
		}

		close(done)
	}()

	log.Info().Msgf("server serving on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Failed to listen and serve")
	}

	<-done
	log.Info().Msg("Server stopped")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrDuplicateJob):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrContention):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
