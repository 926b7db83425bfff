package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/control"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Version is reported by GET /info. The CLI sets it to its build version.
var Version = "dev"

// Server implements the generated ServerInterface on top of a control.Controller.
type Server struct {
	control *control.Controller
	metrics http.Handler
	logger  *slog.Logger
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for the controller.
func NewHandler(ctrl *control.Controller, opts ...Option) http.Handler {
	s := &Server{
		control: ctrl,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.fail(w, http.StatusBadRequest, err)
		},
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, Info{
		App:        "parley-http",
		Version:    strings.TrimSpace(Version),
		ApiVersion: apiVersion,
	})
}

// ListConversations handles GET /conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.control.Conversations(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}

	views := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		view := ConversationView{
			ContextId:      c.ContextID,
			Seq:            c.SequenceNumber,
			ConversationId: c.ConversationID,
			State:          c.State,
		}
		if c.NodeID != "" {
			view.NodeId = ptr(c.NodeID)
		}
		views = append(views, view)
	}
	s.writeJSON(w, http.StatusOK, views)
}

// ListFlags handles GET /flags.
func (s *Server) ListFlags(w http.ResponseWriter, r *http.Request) {
	names, err := s.control.Flags(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// RaiseFlag handles POST /flags/{name}.
func (s *Server) RaiseFlag(w http.ResponseWriter, r *http.Request, name string) {
	err := s.control.RaiseFlag(r.Context(), name)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, control.ErrInvalidFlag):
		s.fail(w, http.StatusBadRequest, err)
	case errors.Is(err, control.ErrUnknownFlag):
		s.fail(w, http.StatusNotFound, err)
	case errors.Is(err, control.ErrPublish):
		s.fail(w, http.StatusBadGateway, err)
	default:
		s.fail(w, http.StatusServiceUnavailable, err)
	}
}

// GetGraph handles GET /graph/{conversation}.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, conversation string) {
	out, err := s.control.Mermaid(r.Context(), conversation)
	switch {
	case errors.Is(err, control.ErrUnknownConversation):
		s.fail(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, Error{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
