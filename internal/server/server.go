// Package server exposes the conversion controller over a small JSON API.
//
// Routes:
//
//	POST   /api/jobs           start a conversion
//	GET    /api/jobs           list running and recently settled jobs
//	GET    /api/jobs/{id}      one job
//	DELETE /api/jobs/{id}      cancel a job
//	GET    /api/engine         engine availability and version
//	POST   /api/engine/probe   re-run the engine probe
//	GET    /health             liveness
//	GET    /metrics            Prometheus metrics
//
// Jobs run under the server's base context, not the request's, so they
// outlive the POST that started them.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/forPelevin/audioconv/internal/pipeline"
	"github.com/forPelevin/audioconv/internal/ports/adapters/notifier"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultHistorySize = 100

	shutdownTimeout = 30 * time.Second
)

type Server struct {
	ctrl    *transcode.Controller
	adv     *notifier.Log
	log     logrus.FieldLogger
	hist    *history
	baseCtx context.Context
	router  *mux.Router
}

// New builds the server. Jobs started through it are cancelled when ctx is.
func New(ctx context.Context, svc *pipeline.Service, log logrus.FieldLogger, historySize int) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	s := &Server{
		ctrl:    svc.Controller,
		adv:     svc.Advisories,
		log:     log,
		hist:    newHistory(historySize),
		baseCtx: ctx,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs", s.createJob).Methods("POST")
	api.HandleFunc("/jobs", s.listJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.getJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.cancelJob).Methods("DELETE")
	api.HandleFunc("/engine", s.engine).Methods("GET")
	api.HandleFunc("/engine/probe", s.reprobe).Methods("POST")

	r.Use(s.logRequests)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts the HTTP server
// down and cancels the jobs still running.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting audio conversion server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("Failed to gracefully shutdown")
	}
	if err := s.ctrl.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("Jobs did not settle before shutdown deadline")
		return err
	}
	s.log.Info("Server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}
