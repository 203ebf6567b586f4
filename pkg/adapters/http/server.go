package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/claimdesk/intake/api"
	"github.com/claimdesk/intake/internal/logging"
	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps request bodies; drafts are small JSON documents.
const maxBodyBytes = 1 << 20

// Server exposes wizard sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	version  string
	validate func(http.Handler) http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsHandler replaces the default Prometheus handler served on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server over a session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
		metrics:  promhttp.Handler(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	doc, err := api.GetSwagger()
	if err == nil {
		s.validate, err = s.requestValidator(doc)
	}
	if err != nil {
		s.logger.Error("request validation disabled", "err", err)
	}
	return s
}

// NewHandler creates the HTTP handler for a session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	r.Get("/openapi.yaml", s.GetDocument)

	r.Get("/variants", s.ListVariants)
	r.Get("/variants/{variant}/steps", s.ListSteps)

	r.Route("/wizards/{org}/{user}/{variant}", func(r chi.Router) {
		if s.validate != nil {
			r.Use(s.validate)
		}
		r.Use(s.bindKey)
		r.Post("/start", s.StartSession)
		r.Get("/", s.GetSession)
		r.Delete("/", s.DropSession)
		r.Patch("/draft", s.PatchDraft)
		r.Post("/next", s.GoNext)
		r.Post("/previous", s.GoPrevious)
		r.Post("/goto/{index}", s.GoToStep)
		r.Post("/cancel", s.Cancel)
		r.Get("/validate/{step}", s.ValidateStep)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := api.GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":           "intake-http",
		"version":       s.version,
		"api_version":   apiVersion,
		"variants":      s.Sessions.Registry().Variants(),
		"live_sessions": s.Sessions.Live(),
	})
}

// GetDocument handles GET /openapi.yaml.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.Document())
}

// ListVariants handles GET /variants.
func (s *Server) ListVariants(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Sessions.Registry().Variants())
}

// ListSteps handles GET /variants/{variant}/steps.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.Sessions.Registry().Steps(chi.URLParam(r, "variant"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, steps)
}

type startRequest struct {
	Seed domain.ClaimDraft `json:"seed"`
}

type startResponse struct {
	sessionView
	Resumed bool `json:"resumed"`
}

// StartSession handles POST /wizards/{org}/{user}/{variant}/start.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &body) {
			return
		}
	}

	key := keyFrom(r)
	_, resumed, err := s.Sessions.Start(r.Context(), key, body.Seed)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var view sessionView
	if err := s.Sessions.Do(r.Context(), key, func(_ context.Context, c *runtime.Controller) error {
		view = s.view(c)
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}

	s.broadcast(key, domain.Diff(nil, view.Session))
	s.writeJSON(w, http.StatusOK, startResponse{sessionView: view, Resumed: resumed})
}

// GetSession handles GET /wizards/{org}/{user}/{variant}/.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	var view sessionView
	err := s.Sessions.Do(r.Context(), keyFrom(r), func(_ context.Context, c *runtime.Controller) error {
		view = s.view(c)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// DropSession handles DELETE /wizards/{org}/{user}/{variant}/.
// Progress is flushed and stays resumable.
func (s *Server) DropSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Drop(r.Context(), keyFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchDraft handles PATCH /wizards/{org}/{user}/{variant}/draft.
// The body is a shallow-merge patch keyed by section name.
func (s *Server) PatchDraft(w http.ResponseWriter, r *http.Request) {
	var p domain.Patch
	if !s.decode(w, r, &p) {
		return
	}
	s.mutate(w, r, func(_ context.Context, c *runtime.Controller) (runtime.Move, error) {
		_, err := c.Patch(p)
		idx := c.Session().CurrentStepIndex
		return runtime.Move{From: idx, To: idx}, err
	})
}

// GoNext handles POST /wizards/{org}/{user}/{variant}/next.
func (s *Server) GoNext(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, c *runtime.Controller) (runtime.Move, error) {
		return c.GoNext(ctx)
	})
}

// GoPrevious handles POST /wizards/{org}/{user}/{variant}/previous.
func (s *Server) GoPrevious(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, c *runtime.Controller) (runtime.Move, error) {
		return c.GoPrevious(ctx)
	})
}

// GoToStep handles POST /wizards/{org}/{user}/{variant}/goto/{index}.
// The path segment may be a step index or a step id.
func (s *Server) GoToStep(w http.ResponseWriter, r *http.Request) {
	var target string
	if err := bindPath(r, "index", &target); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	s.mutate(w, r, func(ctx context.Context, c *runtime.Controller) (runtime.Move, error) {
		if i, err := strconv.Atoi(target); err == nil {
			return c.GoToStep(ctx, i)
		}
		return c.GoToStepID(ctx, target)
	})
}

// Cancel handles POST /wizards/{org}/{user}/{variant}/cancel.
func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, c *runtime.Controller) (runtime.Move, error) {
		idx := c.Session().CurrentStepIndex
		return runtime.Move{From: idx, To: idx}, c.Cancel(ctx)
	})
}

// ValidateStep handles GET /wizards/{org}/{user}/{variant}/validate/{step}.
func (s *Server) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var stepID string
	if err := bindPath(r, "step", &stepID); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var res domain.ValidationResult
	err := s.Sessions.Do(r.Context(), keyFrom(r), func(_ context.Context, c *runtime.Controller) error {
		var err error
		res, err = c.Validate(stepID)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// sessionView is the response body for session reads and moves.
type sessionView struct {
	Session *domain.WizardSession    `json:"session"`
	Actions runtime.Actions          `json:"actions"`
	Current *domain.ValidationResult `json:"currentValidation,omitempty"`
	Save    persistence.SaveStatus   `json:"save"`
}

type moveResponse struct {
	sessionView
	Move  runtime.Move `json:"move"`
	Error string       `json:"error,omitempty"`
}

func (s *Server) view(c *runtime.Controller) sessionView {
	v := sessionView{
		Session: c.Session(),
		Actions: c.AllowedActions(),
		Save:    s.Sessions.SaveStatus(c.Key()),
	}
	if step, ok := c.Current(); ok {
		if res, err := c.Validate(step.ID); err == nil {
			v.Current = &res
		}
	}
	return v
}

// mutate runs fn under the session lock, broadcasts the resulting diff and writes the response.
// Blocked moves answer 422, submission failures 502.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *runtime.Controller) (runtime.Move, error)) {
	key := keyFrom(r)
	var (
		before *domain.WizardSession
		resp   moveResponse
		fnErr  error
	)
	err := s.Sessions.Do(r.Context(), key, func(ctx context.Context, c *runtime.Controller) error {
		before = c.Session()
		resp.Move, fnErr = fn(ctx, c)
		if fnErr != nil && !errors.Is(fnErr, domain.ErrSubmissionFailed) {
			return fnErr
		}
		resp.sessionView = s.view(c)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.broadcast(key, domain.Diff(before, resp.Session))

	switch {
	case fnErr != nil:
		resp.Error = fnErr.Error()
		s.logger.Warn("submission failed", "key", key.String(), "err", fnErr)
		s.writeJSON(w, http.StatusBadGateway, resp)
	case resp.Move.Blocked:
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) broadcast(key domain.ProgressKey, diff *domain.DraftDiff) {
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(key.String(), string(data))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrStepNotFound),
		errors.Is(err, domain.ErrCheckpointNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidPatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
