package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"soulcare/internal/config"
	"soulcare/internal/dialogue"
	"soulcare/internal/domain"
	"soulcare/internal/metrics"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the conversational booking API.
type HTTPServer struct {
	cfg       config.ServerConfig
	rateCfg   config.RateLimitConfig
	machine   *dialogue.Machine
	store     domain.AvailabilityStore
	extractor domain.Extractor
	limiter   domain.RateLimiter
	server    *http.Server
	log       zerolog.Logger
}

func NewHTTPServer(
	cfg config.ServerConfig,
	rateCfg config.RateLimitConfig,
	machine *dialogue.Machine,
	store domain.AvailabilityStore,
	extractor domain.Extractor,
	limiter domain.RateLimiter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		rateCfg:   rateCfg,
		machine:   machine,
		store:     store,
		extractor: extractor,
		limiter:   limiter,
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/send_message", srv.handleSendMessage)
	mux.HandleFunc("/appointment_step", srv.handleAppointmentStep)
	mux.HandleFunc("/available_slots", srv.handleAvailableSlots)
	mux.HandleFunc("/available_dates", srv.handleAvailableDates)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second, // dialogue turns wait on the model
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.rateCfg.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		window := time.Duration(s.rateCfg.WindowSeconds) * time.Second
		allowed, err := s.limiter.Allow(r.Context(), clientKey(r), s.rateCfg.Requests, window)
		if err != nil {
			// A broken limiter must not take the API down with it.
			s.log.Warn().Err(err).Msg("rate limiter error, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Status: statusError, Message: message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
