package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/panelstate"
	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/aretw0/panelstate/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server bridges a registry to hosts living in another process.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h (typically promhttp.HandlerFor) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler. streams should be among the notifiers
// bound to the manager's entries for /events to see saves; a nil streams gets
// a private StreamManager that only carries patch events.
func NewHandler(sessions *session.Manager, streams *StreamManager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Streams:  streams,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/states", func(r chi.Router) {
		r.Get("/", s.ListStates)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/", s.GetOrCreate)
			r.Get("/", s.GetState)
			r.Patch("/", s.SetState)
			r.Delete("/", s.ResetState)
			r.Post("/get", s.Resolve)
			r.Post("/save", s.SaveState)
		})
	})

	r.Post("/merge", s.Merge)
	r.Post("/diff", s.Diff)
	r.Post("/flatten", s.Flatten)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StateResponse is returned by every endpoint that exposes an entry.
type StateResponse struct {
	ID      string       `json:"id"`
	Created bool         `json:"created,omitempty"`
	State   *domain.Tree `json:"state"`
}

// CreateRequest is the body of POST /states/{id}. Both fields are optional.
type CreateRequest struct {
	Defaults *domain.Tree `json:"defaults"`
	Initial  *domain.Tree `json:"initial"`
}

// ResolveResponse is returned by POST /states/{id}/get.
type ResolveResponse struct {
	Value *domain.Tree `json:"value"`
	Found bool         `json:"found"`
}

// PatchEvent is streamed as "patch" whenever PATCH changes an entry.
type PatchEvent struct {
	Key   string       `json:"key"`
	Patch *domain.Tree `json:"patch"`
}

// DiffRequest is the body of POST /diff.
type DiffRequest struct {
	Before *domain.Tree `json:"before"`
	After  *domain.Tree `json:"after"`
}

// FlattenRequest is the body of POST /flatten.
type FlattenRequest struct {
	Tree   *domain.Tree `json:"tree"`
	Prefix string       `json:"prefix"`
}

// Leaf is one element of the POST /flatten response.
type Leaf struct {
	Path  string       `json:"path"`
	Value *domain.Tree `json:"value"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "panelstate-http",
		"version": strings.TrimSpace(panelstate.Version),
		"entries": len(s.Sessions.IDs()),
	})
}

// ListStates handles GET /states.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"ids": s.Sessions.IDs()})
}

// GetOrCreate handles POST /states/{id}.
func (s *Server) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if !s.decode(w, r, &body, true) {
		return
	}

	id := chi.URLParam(r, "id")
	state, created, err := s.Sessions.GetOrCreate(id, body.Defaults, body.Initial)
	if err != nil {
		s.writeError(w, "GetOrCreate", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, StateResponse{ID: id, Created: created, State: state})
}

// GetState handles GET /states/{id}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Sessions.State(id)
	if err != nil {
		s.writeError(w, "GetState", err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{ID: id, State: state})
}

// Resolve handles POST /states/{id}/get. The body is the shape.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var shape domain.Tree
	if !s.decode(w, r, &shape, false) {
		return
	}

	value, err := s.Sessions.Get(chi.URLParam(r, "id"), &shape)
	if err != nil {
		s.writeError(w, "Resolve", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ResolveResponse{Value: value, Found: value != nil})
}

// SetState handles PATCH /states/{id}. The body is the partial tree. The
// change is streamed to subscribers as a "patch" event.
func (s *Server) SetState(w http.ResponseWriter, r *http.Request) {
	var partial domain.Tree
	if !s.decode(w, r, &partial, false) {
		return
	}

	id := chi.URLParam(r, "id")
	var state, patch *domain.Tree
	err := s.Sessions.WithEntry(id, func(e *registry.Entry) error {
		before := e.State()
		e.Set(&partial)
		// Set installs a fresh tree, so before is still intact.
		patch = domain.Diff(before, e.State())
		state = e.State().Clone()
		return nil
	})
	if err != nil {
		s.writeError(w, "SetState", err)
		return
	}

	if patch != nil && patch.Len() > 0 {
		if data, err := json.Marshal(PatchEvent{Key: id, Patch: patch}); err == nil {
			s.Streams.Broadcast(id, Event{Name: "patch", Data: string(data)})
		} else {
			s.logger.Warn("SetState: patch not streamed", "id", id, "err", err)
		}
	}
	s.writeJSON(w, http.StatusOK, StateResponse{ID: id, State: state})
}

// ResetState handles DELETE /states/{id}.
func (s *Server) ResetState(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Reset(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "ResetState", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveState handles POST /states/{id}/save?action=tag.
func (s *Server) SaveState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := r.URL.Query().Get("action")

	if err := s.Sessions.Save(r.Context(), id, action); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			s.writeError(w, "SaveState", err)
			return
		}
		http.Error(w, fmt.Sprintf("Notify error: %v", err), http.StatusBadGateway)
		s.logger.Error("SaveState: notify failed", "id", id, "action", action, "err", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "action": action, "sent": action != ""})
}

// Merge handles POST /merge with a JSON array of trees.
func (s *Server) Merge(w http.ResponseWriter, r *http.Request) {
	var trees []*domain.Tree
	if !s.decode(w, r, &trees, false) {
		return
	}
	s.writeJSON(w, http.StatusOK, domain.Merge(trees...))
}

// Diff handles POST /diff.
func (s *Server) Diff(w http.ResponseWriter, r *http.Request) {
	var body DiffRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]*domain.Tree{"patch": domain.Diff(body.Before, body.After)})
}

// Flatten handles POST /flatten.
func (s *Server) Flatten(w http.ResponseWriter, r *http.Request) {
	var body FlattenRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	pairs := domain.Flatten(body.Tree, body.Prefix)
	leaves := make([]Leaf, len(pairs))
	for i, p := range pairs {
		leaves[i] = Leaf{Path: p.Path, Value: p.Value}
	}
	s.writeJSON(w, http.StatusOK, leaves)
}

// SubscribeEvents handles GET /events?key=id (SSE). Without key every entry
// is streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	key := r.URL.Query().Get("key")
	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to entry updates", "id", key)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "id", key)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

// decode reads a JSON body into v. An empty body is accepted when optional.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	http.Error(w, "Invalid request body", http.StatusBadRequest)
	s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
	return false
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrEmptyIdentifier), errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvalidTree):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
