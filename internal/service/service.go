package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"railviz/internal/codec"
	"railviz/internal/domain"
	"railviz/internal/metrics"
	"railviz/internal/repository"
	"railviz/internal/scene"
	"railviz/internal/session"
	"railviz/internal/toggle"
	"railviz/internal/viewport"
)

// ErrInvalidInput marks a request the service cannot interpret
var ErrInvalidInput = errors.New("invalid input")

// Viewport gesture actions
const (
	ActionZoom  = "zoom"
	ActionPan   = "pan"
	ActionReset = "reset"
	ActionSet   = "set"
)

// ViewportRequest is one user gesture. Zoom uses Factor around (X, Y);
// pan uses DX and DY; set restores a whole transform from K, X and Y.
type ViewportRequest struct {
	Action string  `json:"action"`
	Factor float64 `json:"factor,omitempty"`
	K      float64 `json:"k,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
}

// RenderService provides the render workflows over sessions and the store
type RenderService struct {
	store    repository.GraphStore
	sessions *session.Manager
	eventBus *EventBus
	metrics  *metrics.Registry
}

// NewRenderService creates a render service. The metrics registry may be nil.
func NewRenderService(store repository.GraphStore, cfg session.Config, eventBus *EventBus, reg *metrics.Registry) *RenderService {
	s := &RenderService{
		store:    store,
		eventBus: eventBus,
		metrics:  reg,
	}
	s.sessions = session.NewManager(cfg, session.Hooks{
		OnFrame:         s.onFrame,
		OnDone:          s.onDone,
		OnAssetFallback: s.onAssetFallback,
	})
	return s
}

func (s *RenderService) onFrame(f session.Frame) {
	if s.metrics != nil {
		s.metrics.RecordTick()
	}
	s.eventBus.Publish(Event{Type: EventFrame, SessionID: f.SessionID, Payload: f})
}

func (s *RenderService) onDone(r session.Result) {
	if s.metrics != nil {
		s.metrics.RecordLayoutRun(string(r.Outcome), r.Elapsed)
	}
	s.eventBus.Publish(Event{Type: EventLayoutDone, SessionID: r.SessionID, Payload: r})
}

func (s *RenderService) onAssetFallback(sessionID string, err error) {
	if s.metrics != nil {
		s.metrics.RecordAssetFallback()
	}
}

// Create starts a session for graph and stores the payload under the
// session id
func (s *RenderService) Create(ctx context.Context, name string, graph *domain.Graph) (session.State, error) {
	sess, err := s.sessions.Create(ctx, graph)
	if err != nil {
		s.reject(err)
		return session.State{}, err
	}

	if err := s.store.SaveGraph(ctx, sess.ID(), name, graph); err != nil {
		s.sessions.Delete(sess.ID())
		return session.State{}, fmt.Errorf("failed to store graph: %w", err)
	}

	s.loaded(sess.ID())
	return sess.State(), nil
}

// Import decodes a payload by content type and creates a session for it
func (s *RenderService) Import(ctx context.Context, name, contentType string, r io.Reader) (session.State, error) {
	graph, err := codec.ForContentType(contentType).Parse(r)
	if err != nil {
		s.reject(ErrInvalidInput)
		return session.State{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.Create(ctx, name, graph)
}

// LoadFile renders a payload file into the session with the given id,
// creating the session on first use
func (s *RenderService) LoadFile(ctx context.Context, id, path string) (session.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return session.State{}, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	graph, err := codec.ForPath(path).Parse(f)
	if err != nil {
		s.reject(ErrInvalidInput)
		return session.State{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
	}

	if _, getErr := s.sessions.Get(id); getErr == nil {
		err = s.sessions.Reload(ctx, id, graph)
	} else {
		_, err = s.sessions.CreateWithID(ctx, id, graph)
	}
	if err != nil {
		s.reject(err)
		return session.State{}, err
	}

	if err := s.store.SaveGraph(ctx, id, path, graph); err != nil {
		return session.State{}, fmt.Errorf("failed to store graph: %w", err)
	}

	s.loaded(id)
	return s.Get(id)
}

// Get returns the state of one session
func (s *RenderService) Get(id string) (session.State, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}
	return sess.State(), nil
}

// List returns every live session
func (s *RenderService) List() []session.State {
	return s.sessions.List()
}

// StoredGraphs lists the stored payloads without their graph bodies
func (s *RenderService) StoredGraphs(ctx context.Context) ([]repository.GraphRecord, error) {
	return s.store.ListGraphs(ctx)
}

// Delete closes a session and drops its stored payload
func (s *RenderService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	if err := s.store.DeleteGraph(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("Failed to delete stored graph %s: %v", id, err)
	}

	s.updateActive()
	s.eventBus.Publish(Event{Type: EventSessionDeleted, SessionID: id})
	return nil
}

// Rerender runs a full re-render of the stored payload. Toggles and the
// fitted view are reset.
func (s *RenderService) Rerender(ctx context.Context, id string) (session.State, error) {
	var graph *domain.Graph
	rec, err := s.store.GetGraph(ctx, id)
	switch {
	case err == nil:
		graph = rec.Graph
	case errors.Is(err, repository.ErrNotFound):
		// the session's own copy is used
	default:
		return session.State{}, fmt.Errorf("failed to load stored graph: %w", err)
	}

	if err := s.sessions.Reload(ctx, id, graph); err != nil {
		s.reject(err)
		return session.State{}, err
	}

	s.loaded(id)
	return s.Get(id)
}

// Wait blocks until the session's current layout has finished
func (s *RenderService) Wait(id string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	return sess.Wait()
}

// SetToggle applies one toggle transition
func (s *RenderService) SetToggle(id, name string, enabled bool) (toggle.State, error) {
	n, err := toggle.ParseName(name)
	if err != nil {
		return toggle.State{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		return toggle.State{}, err
	}
	state, err := sess.SetToggle(n, enabled)
	if err != nil {
		return toggle.State{}, err
	}

	s.eventBus.Publish(Event{Type: EventTogglesChanged, SessionID: id, Payload: state})
	return state, nil
}

// Viewport applies a zoom, pan, set or reset gesture
func (s *RenderService) Viewport(id string, req ViewportRequest) (viewport.Transform, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return viewport.Identity, err
	}

	var tr viewport.Transform
	switch req.Action {
	case ActionZoom:
		if req.Factor <= 0 {
			return viewport.Identity, fmt.Errorf("%w: zoom factor must be positive", ErrInvalidInput)
		}
		tr = sess.Zoom(req.Factor, req.X, req.Y)
	case ActionPan:
		tr = sess.Pan(req.DX, req.DY)
	case ActionSet:
		if req.K <= 0 {
			return viewport.Identity, fmt.Errorf("%w: scale must be positive", ErrInvalidInput)
		}
		tr = sess.SetView(viewport.Transform{K: req.K, X: req.X, Y: req.Y})
	case ActionReset:
		tr, err = sess.ResetView()
		if err != nil {
			return viewport.Identity, err
		}
	default:
		return viewport.Identity, fmt.Errorf("%w: unknown viewport action %q", ErrInvalidInput, req.Action)
	}

	s.eventBus.Publish(Event{Type: EventViewportChanged, SessionID: id, Payload: tr})
	return tr, nil
}

// WriteSVG writes the current frame of a session
func (s *RenderService) WriteSVG(id string, w io.Writer) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	return sess.WriteSVG(w)
}

// Scene returns the current primitives of a session
func (s *RenderService) Scene(id string) (scene.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return scene.View{}, err
	}
	return sess.Scene()
}

// Export encodes the last loaded payload of a session. It returns the
// encoded bytes and their content type.
func (s *RenderService) Export(id, format string) ([]byte, string, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, "", err
	}
	graph := sess.Graph()
	if graph == nil {
		return nil, "", session.ErrNotLoaded
	}

	var buf bytes.Buffer
	if err := c.Export(graph, &buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), c.ContentType(), nil
}

// Close stops every session
func (s *RenderService) Close() {
	s.sessions.Close()
	s.updateActive()
}

func (s *RenderService) loaded(id string) {
	s.updateActive()
	s.eventBus.Publish(Event{Type: EventSessionLoaded, SessionID: id})
}

func (s *RenderService) updateActive() {
	if s.metrics != nil {
		s.metrics.SetSessionsActive(s.sessions.Len())
	}
}

func (s *RenderService) reject(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrMalformedGraph):
		s.metrics.RecordRejected("malformed")
	case errors.Is(err, domain.ErrInvalidGraph), errors.Is(err, ErrInvalidInput):
		s.metrics.RecordRejected("invalid")
	}
}
