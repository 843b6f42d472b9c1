package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// maxRequestBytes bounds a decoded request body
const maxRequestBytes = 64 << 10

// Grading is the part of the pipeline the HTTP surface exposes
type Grading interface {
	Evaluate(ctx context.Context, req *core.GradingRequest) (*core.Evaluation, *int64, error)
	NextSentence(ctx context.Context, level core.Level, avoidID int64) (*core.SourceSentence, error)
}

// Server is a JSON HTTP surface for the grading pipeline
type Server struct {
	service         Grading
	logger          *zap.Logger
	listenAddr      string
	shutdownTimeout time.Duration

	http     *http.Server
	listener net.Listener
}

// EvaluationResponse is the body returned for a graded submission
type EvaluationResponse struct {
	Evaluation *core.Evaluation `json:"evaluation"`
	FeedbackID *int64           `json:"feedback_id"`
}

// SentenceResponse is the body returned for a practice sentence
type SentenceResponse struct {
	ID       int64      `json:"id"`
	Level    core.Level `json:"level"`
	Sentence string     `json:"sentence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new HTTP surface
func NewServer(service Grading, logger *zap.Logger, listenAddr string, shutdownTimeout time.Duration) *Server {
	return &Server{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluations", s.handleEvaluate)
	mux.HandleFunc("GET /v1/sentences/next", s.handleNextSentence)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.listenAddr
}

// Stop gracefully shuts the server down within the shutdown timeout
func (s *Server) Stop() error {
	if s.http == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req core.GradingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ev, id, err := s.service.Evaluate(r.Context(), &req)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, EvaluationResponse{Evaluation: ev, FeedbackID: id})
}

func (s *Server) handleNextSentence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var avoid int64
	if raw := q.Get("avoid"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid avoid parameter %q", raw))
			return
		}
		avoid = v
	}

	sentence, err := s.service.NextSentence(r.Context(), core.Level(q.Get("level")), avoid)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, SentenceResponse{ID: sentence.ID, Level: sentence.Level, Sentence: sentence.Sentence})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSentenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrGradingService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
