// Package server provides the HTTP and WebSocket surface of SignBridge.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/emitter"
	"github.com/ayusman/signbridge/internal/gesture"
	"github.com/ayusman/signbridge/internal/server/api"
	"github.com/ayusman/signbridge/internal/store"
)

// shutdownTimeout bounds how long Serve waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// TranscriptStore persists and serves committed letter streams.
type TranscriptStore interface {
	api.TranscriptStore
	Create(t *store.Transcript) error
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// Samples is the shared training set. Classification, sample and
	// stream routes are only registered when it is set.
	Samples *gesture.SampleStore
	// Classifier defaults to the rules/model arbiter over Samples.
	Classifier  gesture.Classifier
	Transcripts TranscriptStore
	Emitter     emitter.Emitter
	Params      gesture.Params
	Logger      *zap.Logger
}

// Server represents the HTTP server for the SignBridge application.
type Server struct {
	config Config
	router chi.Router
	stream *StreamHandler
	logger *zap.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Params == (gesture.Params{}) {
		config.Params = gesture.DefaultParams()
	}
	if config.Emitter == nil {
		config.Emitter = emitter.Nop{}
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: config.Logger.Named("http"),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Samples != nil {
		rules := gesture.NewRuleClassifier()
		classifier := s.config.Classifier
		if classifier == nil {
			model := gesture.NewNearestNeighbor(s.config.Samples, s.config.Params)
			classifier = gesture.NewArbiter(rules, model, s.config.Params)
			s.config.Classifier = classifier
		}

		classify := api.NewClassifyHandler(classifier, rules)
		samples := api.NewSamplesHandler(s.config.Samples, s.logger)

		r.Post("/api/classify", classify.Classify)
		r.Route("/api/samples", func(r chi.Router) {
			r.Get("/", samples.Status)
			r.Post("/", samples.Add)
			r.Delete("/", samples.Clear)
		})

		s.stream = NewStreamHandler(StreamConfig{
			Samples:     s.config.Samples,
			Classifier:  classifier,
			Params:      s.config.Params,
			Transcripts: s.config.Transcripts,
			Emitter:     s.config.Emitter,
			Logger:      s.config.Logger,
		})
		r.Handle("/api/stream", s.stream)
	}

	if s.config.Transcripts != nil {
		transcripts := api.NewTranscriptsHandler(s.config.Transcripts)
		r.Route("/api/transcripts", func(r chi.Router) {
			r.Get("/", transcripts.List)
			r.Get("/{id}", transcripts.Get)
			r.Delete("/{id}", transcripts.Delete)
		})
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stream returns the WebSocket stream handler, or nil when no sample set
// was configured.
func (s *Server) Stream() *StreamHandler {
	return s.stream
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.stream != nil {
		response["sessions"] = s.stream.Sessions()
	}
	if s.config.Samples != nil {
		response["trained"] = s.config.Samples.IsTrained()
	}

	writeJSON(w, http.StatusOK, response)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.stream != nil {
		s.stream.CloseAll()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request at debug level, and failed ones at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
