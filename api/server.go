package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"idealista-watcher/models"
	"idealista-watcher/storage"
	"idealista-watcher/utils"
)

// ReportSource exposes the most recent cycle report.
type ReportSource interface {
	LastReport() *models.CycleReport
}

// Server serves the watcher's health and status over HTTP.
type Server struct {
	reports  ReportSource
	errState storage.ErrorStateStore
	logger   *utils.Logger
	router   *mux.Router
}

func New(reports ReportSource, errState storage.ErrorStateStore, logger *utils.Logger) *Server {
	s := &Server{
		reports:  reports,
		errState: errState,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	LastCycle   *models.CycleReport `json:"last_cycle"`
	BlockedCode *int                `json:"blocked_code"`
	StateError  string              `json:"state_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := statusResponse{LastCycle: s.reports.LastReport()}
	status, err := s.errState.Load(ctx)
	if err != nil {
		resp.StateError = err.Error()
	}
	resp.BlockedCode = status.Code

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("[api] encode status: %v", err)
	}
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Status server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
