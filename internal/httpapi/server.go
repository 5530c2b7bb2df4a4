// Package httpapi exposes dispatch and failure history over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tgchannel/internal/channel"
	"tgchannel/internal/metrics"
	"tgchannel/internal/storage"
	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

const maxBodyBytes = 64 << 10

// Dispatcher is the part of *channel.Channel the API needs.
type Dispatcher interface {
	Send(ctx context.Context, to channel.Notifiable, n channel.Notification) (map[string]any, error)
}

// Options are the reloadable knobs of the API.
type Options struct {
	// Token, when set, is required as "Authorization: Bearer <token>" on /v1.
	Token         string
	DefaultChatID string
	ChunkSize     int
	// Pprof is read when the handler is built; changing it needs a new Handler.
	Pprof bool
}

type Server struct {
	dispatch Dispatcher
	store    storage.Store
	metrics  *metrics.Metrics
	log      logx.Logger
	opts     atomic.Pointer[Options]
}

// New builds the API. store and m may be nil.
func New(d Dispatcher, store storage.Store, m *metrics.Metrics, log logx.Logger, opts Options) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{dispatch: d, store: store, metrics: m, log: log}
	s.SetOptions(opts)
	return s
}

func (s *Server) SetOptions(opts Options) { s.opts.Store(&opts) }

func (s *Server) options() Options { return *s.opts.Load() }

// Handler returns the full router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/notify", s.handleNotify)
		r.Get("/failures", s.handleFailures)
	})
	if s.options().Pprof {
		r.With(s.requireToken).Mount("/debug", middleware.Profiler())
	}
	return r
}

// NewHTTPServer wraps the handler with timeouts.
func (s *Server) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Int("status", ww.Status()),
			logx.String("request_id", middleware.GetReqID(r.Context())),
			logx.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.options().Token
		if want != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.store != nil,
	})
}

type notifyRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
	Token     string `json:"token"`
	Silent    bool   `json:"silent"`
}

type notifyResponse struct {
	Sent   bool           `json:"sent"`
	Result map[string]any `json:"result,omitempty"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if _, err := telegram.ParseModeOf(req.ParseMode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.options()
	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		chatID = opts.DefaultChatID
	}
	notice := channel.Notice{
		Text:      req.Text,
		ParseMode: req.ParseMode,
		Token:     req.Token,
		Silent:    req.Silent,
		ChunkSize: opts.ChunkSize,
	}

	res, err := s.dispatch.Send(r.Context(), channel.To(chatID), notice)
	switch {
	case err == nil:
		// (nil, nil) means nothing was sent, e.g. no destination.
		writeJSON(w, http.StatusOK, notifyResponse{Sent: res != nil, Result: res})
	case errors.Is(err, telegram.ErrSendFailed), errors.Is(err, telegram.ErrDecodeFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("notify failed", logx.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	recs, err := s.store.RecentFailures(r.Context(), limit)
	if err != nil {
		s.log.Error("list failures", logx.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to list failures")
		return
	}
	if recs == nil {
		recs = []storage.FailureRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
