// Package session ties one render together: payload, scene, viewport,
// toggles and the running layout simulation.
//
// Every Load bumps a generation counter and detaches the previous
// simulation before a new one starts, so frames of an old graph can never
// reach the new scene.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"railviz/internal/domain"
	"railviz/internal/geometry"
	"railviz/internal/layout"
	"railviz/internal/normalize"
	"railviz/internal/scene"
	"railviz/internal/toggle"
	"railviz/internal/viewport"
)

var (
	// ErrNotFound is returned for unknown session ids
	ErrNotFound = errors.New("session not found")

	// ErrNotLoaded is returned when a session has no graph yet
	ErrNotLoaded = errors.New("session has no graph loaded")

	// ErrClosed is returned for operations on a closed session
	ErrClosed = errors.New("session closed")
)

// Config holds the render settings shared by every session
type Config struct {
	Width            float64
	Height           float64
	Offset           float64
	AspectCorrection bool

	Layout layout.Options
	Table  geometry.Table

	// LoadIcon supplies the signal icon; nil uses the embedded one
	LoadIcon func() (*scene.Icon, error)
}

// DefaultConfig returns settings for an 800x600 canvas
func DefaultConfig() Config {
	return Config{
		Width:  800,
		Height: 600,
		Offset: normalize.DefaultOffset,
		Layout: layout.DefaultOptions(800, 600),
		Table:  geometry.DefaultTable,
	}
}

// Frame describes one applied layout tick
type Frame struct {
	SessionID  string             `json:"session_id"`
	Generation uint64             `json:"generation"`
	Tick       int                `json:"tick"`
	Alpha      float64            `json:"alpha"`
	Done       bool               `json:"done"`
	Fitted     bool               `json:"fitted"`
	Transform  viewport.Transform `json:"transform"`
}

// Result describes how a simulation run ended
type Result struct {
	SessionID  string         `json:"session_id"`
	Generation uint64         `json:"generation"`
	Outcome    layout.Outcome `json:"outcome"`
	Ticks      int            `json:"ticks"`
	Elapsed    time.Duration  `json:"elapsed"`
}

// Hooks are optional callbacks. They run outside the session lock.
type Hooks struct {
	OnFrame         func(Frame)
	OnDone          func(Result)
	OnAssetFallback func(sessionID string, err error)
}

// State is a summary of a session
type State struct {
	ID         string             `json:"id"`
	Generation uint64             `json:"generation"`
	Loaded     bool               `json:"loaded"`
	Nodes      int                `json:"nodes"`
	Edges      int                `json:"edges"`
	Tick       int                `json:"tick"`
	Alpha      float64            `json:"alpha"`
	Converged  bool               `json:"converged"`
	ZoomSet    bool               `json:"zoom_set"`
	Transform  viewport.Transform `json:"transform"`
	Toggles    toggle.State       `json:"toggles"`
	CreatedAt  time.Time          `json:"created_at"`
	LoadedAt   time.Time          `json:"loaded_at,omitempty"`
}

// Session is one render surface
type Session struct {
	id    string
	cfg   Config
	hooks Hooks

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	closed   bool
	graph    *domain.Graph
	scene    *scene.Scene
	view     *viewport.Controller
	toggles  *toggle.Controller
	sim      *layout.Simulation
	tick     int
	alpha    float64
	done     bool
	created  time.Time
	loadedAt time.Time
}

// New creates an empty session
func New(id string, cfg Config, hooks Hooks) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		cfg:     cfg,
		hooks:   hooks,
		ctx:     ctx,
		cancel:  cancel,
		view:    viewport.NewController(cfg.Width, cfg.Height),
		created: time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Load validates and renders a graph, replacing whatever was shown.
// A malformed payload is rejected before anything is drawn and the
// previous render stays in place. ctx bounds the load itself; the
// simulation runs until the next Load or Close.
func (s *Session) Load(ctx context.Context, graph *domain.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	work := graph.Clone()
	n := &normalize.Normalizer{
		Width:            s.cfg.Width,
		Height:           s.cfg.Height,
		Offset:           s.cfg.Offset,
		AspectCorrection: s.cfg.AspectCorrection,
	}
	n.Apply(work.Nodes)

	icon, err := s.loadIcon()
	if err != nil {
		log.Printf("Signal icon unavailable for session %s, drawing labels only: %v", s.id, err)
		if s.hooks.OnAssetFallback != nil {
			s.hooks.OnAssetFallback(s.id, err)
		}
		icon = nil
	}

	sc, err := scene.Build(work, icon, s.cfg.Table)
	if err != nil {
		return fmt.Errorf("failed to build scene: %w", err)
	}

	opts := s.cfg.Layout
	opts.Width, opts.Height = s.cfg.Width, s.cfg.Height
	sim, err := layout.New(work.Nodes, work.Edges, opts)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	// detach the old simulation, then wait for it outside the lock since its
	// tick handler takes the lock too
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	gen := s.gen
	prev := s.sim
	s.sim = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.gen != gen {
		// a newer load won
		return nil
	}

	s.graph = graph.Clone()
	s.scene = sc
	s.view.Reset()
	if s.toggles == nil {
		s.toggles = toggle.NewController(sc)
	}
	s.toggles.Reset(sc)
	s.sim = sim
	s.tick, s.alpha, s.done = 0, sim.Alpha(), false
	s.loadedAt = time.Now()

	started := time.Now()
	if err := sim.Start(s.ctx, func(snap layout.Snapshot) { s.onTick(gen, snap) }); err != nil {
		return fmt.Errorf("failed to start simulation: %w", err)
	}
	go s.awaitResult(gen, sim, started)

	log.Printf("Session %s loaded graph: %d nodes, %d edges (generation %d)", s.id, len(graph.Nodes), len(graph.Edges), gen)
	return nil
}

func (s *Session) loadIcon() (*scene.Icon, error) {
	if s.cfg.LoadIcon == nil {
		return scene.DefaultIcon()
	}
	return s.cfg.LoadIcon()
}

// onTick applies a frame and runs the one-time auto-fit in the same handler
func (s *Session) onTick(gen uint64, snap layout.Snapshot) {
	s.mu.Lock()
	if gen != s.gen || s.scene == nil {
		s.mu.Unlock()
		return
	}
	s.scene.ApplySnapshot(snap)
	tr, fitted := s.view.AutoFit(s.scene, s.graph.Properties)
	s.tick, s.alpha, s.done = snap.Tick, snap.Alpha, snap.Done
	s.mu.Unlock()

	if s.hooks.OnFrame != nil {
		s.hooks.OnFrame(Frame{
			SessionID:  s.id,
			Generation: gen,
			Tick:       snap.Tick,
			Alpha:      snap.Alpha,
			Done:       snap.Done,
			Fitted:     fitted,
			Transform:  tr,
		})
	}
}

func (s *Session) awaitResult(gen uint64, sim *layout.Simulation, started time.Time) {
	sim.Wait()
	res := Result{
		SessionID:  s.id,
		Generation: gen,
		Outcome:    sim.Outcome(),
		Ticks:      sim.Ticks(),
		Elapsed:    time.Since(started),
	}
	if res.Outcome != layout.OutcomeCancelled {
		log.Printf("Session %s layout %s after %d ticks in %s", s.id, res.Outcome, res.Ticks, res.Elapsed)
	}
	if s.hooks.OnDone != nil {
		s.hooks.OnDone(res)
	}
}

// Wait blocks until the current simulation has finished
func (s *Session) Wait() error {
	s.mu.Lock()
	sim := s.sim
	s.mu.Unlock()

	if sim == nil {
		return nil
	}
	return sim.Wait()
}

// SetToggle flips one toggle
func (s *Session) SetToggle(name toggle.Name, enabled bool) (toggle.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.toggles == nil {
		return toggle.State{}, ErrNotLoaded
	}
	return s.toggles.Set(name, enabled)
}

// Zoom scales the view around a screen point
func (s *Session) Zoom(factor, cx, cy float64) viewport.Transform {
	return s.view.Zoom(factor, cx, cy)
}

// Pan translates the view
func (s *Session) Pan(dx, dy float64) viewport.Transform {
	return s.view.Pan(dx, dy)
}

// SetView replaces the transform, clamping its scale
func (s *Session) SetView(t viewport.Transform) viewport.Transform {
	return s.view.Set(t)
}

// ResetView recomputes the fitted transform for the current frame
func (s *Session) ResetView() (viewport.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil {
		return viewport.Identity, ErrNotLoaded
	}
	return s.view.Refit(s.scene, s.graph.Properties), nil
}

// WriteSVG renders the current frame
func (s *Session) WriteSVG(w io.Writer) error {
	sc, v, tr, _, err := s.frame()
	if err != nil {
		return err
	}
	return sc.WriteView(w, v, scene.SVGOptions{
		Width:     int(s.cfg.Width),
		Height:    int(s.cfg.Height),
		Transform: tr.String(),
	})
}

// Scene returns a copy of the current scene
func (s *Session) Scene() (scene.View, error) {
	_, v, _, _, err := s.frame()
	return v, err
}

// frame reads the scene and the viewport together, under the lock onTick
// holds while it applies a snapshot and fits
func (s *Session) frame() (*scene.Scene, scene.View, viewport.Transform, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil {
		return nil, scene.View{}, viewport.Identity, false, ErrNotLoaded
	}
	return s.scene, s.scene.View(), s.view.Transform(), s.view.ZoomSet(), nil
}

// Graph returns a copy of the loaded payload, or nil
func (s *Session) Graph() *domain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		return nil
	}
	return s.graph.Clone()
}

// State summarizes the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:         s.id,
		Generation: s.gen,
		Loaded:     s.graph != nil,
		Tick:       s.tick,
		Alpha:      s.alpha,
		Converged:  s.done,
		ZoomSet:    s.view.ZoomSet(),
		Transform:  s.view.Transform(),
		CreatedAt:  s.created,
		LoadedAt:   s.loadedAt,
	}
	if s.graph != nil {
		st.Nodes = len(s.graph.Nodes)
		st.Edges = len(s.graph.Edges)
	}
	if s.toggles != nil {
		st.Toggles = s.toggles.State()
	}
	return st
}

// Close stops the simulation. The session cannot be reused.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	prev := s.sim
	s.sim = nil
	s.mu.Unlock()

	s.cancel()
	if prev != nil {
		prev.Stop()
	}
}
