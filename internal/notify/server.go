package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/godilite/eval-server/internal/auth"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Sender forwards a message and reports the upstream HTTP status.
type Sender interface {
	Send(ctx context.Context, m Message) (int, error)
}

type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}

type Option func(*Server)

// WithAllowedOrigins sets the CORS allow-list. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o != "" {
				s.origins[o] = struct{}{}
			}
		}
	}
}

// WithAllowedHQs sets the headquarters whose members may send notifications.
func WithAllowedHQs(hqs ...string) Option {
	return func(s *Server) {
		for _, h := range hqs {
			if h != "" {
				s.hqs[h] = struct{}{}
			}
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the HTTP notification relay.
type Server struct {
	router   chi.Router
	sender   Sender
	tokens   TokenValidator
	validate *validator.Validate
	origins  map[string]struct{}
	hqs      map[string]struct{}
	logger   *zap.Logger
}

func NewServer(sender Sender, tokens TokenValidator, opts ...Option) *Server {
	if sender == nil || tokens == nil {
		panic("sender and token validator must not be nil")
	}
	s := &Server{
		sender:   sender,
		tokens:   tokens,
		validate: validator.New(),
		origins:  map[string]struct{}{},
		hqs:      map[string]struct{}{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("notify")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.cors)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/notify", s.handleNotify)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) originAllowed(origin string) bool {
	if _, ok := s.origins["*"]; ok {
		return true
	}
	_, ok := s.origins[origin]
	return ok
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !s.originAllowed(origin) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Status: http.StatusUnauthorized, Error: "missing bearer token"})
		return
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Status: http.StatusUnauthorized, Error: "invalid token"})
		return
	}
	if !claims.Approved {
		writeJSON(w, http.StatusForbidden, Response{Status: http.StatusForbidden, Error: "caller not approved"})
		return
	}
	if _, ok := s.hqs[claims.HQID]; !ok {
		writeJSON(w, http.StatusForbidden, Response{Status: http.StatusForbidden, Error: "headquarters not allowed"})
		return
	}

	var msg Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: http.StatusBadRequest, Error: "invalid JSON body"})
		return
	}
	if err := s.validate.Struct(msg); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}

	status, err := s.sender.Send(r.Context(), msg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, Response{Success: true, Status: status})
	case errors.Is(err, ErrUpstream):
		writeJSON(w, http.StatusOK, Response{Success: false, Status: status})
	case errors.Is(err, ErrNotConfigured):
		s.logger.Error("notification dropped", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Response{Status: http.StatusServiceUnavailable, Error: "webhook not configured"})
	default:
		s.logger.Error("notification forward failed", zap.String("uid", claims.UID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Response{Status: http.StatusBadGateway, Error: "webhook unreachable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
