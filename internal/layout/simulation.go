package layout

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"railviz/internal/domain"
)

// ErrAlreadyStarted is returned when Start is called on a running simulation
var ErrAlreadyStarted = errors.New("simulation already started")

type body struct {
	id     string
	x, y   float64
	vx, vy float64
	pinned bool
	fx, fy float64
}

type link struct {
	source, target *body
	strength       float64
	bias           float64
}

// Simulation is a force-directed layout over one graph.
// Step is not safe for concurrent use; Start and Stop are.
type Simulation struct {
	opts   Options
	bodies []*body
	links  []link
	index  map[string]int
	rng    *rand.Rand

	alpha   float64
	tick    int
	outcome Outcome

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// New builds a simulation from normalized nodes and their edges.
// Every edge end must resolve to a node, otherwise a
// *domain.MalformedGraphError is returned and nothing is simulated.
func New(nodes []domain.Node, edges []domain.Edge, opts Options) (*Simulation, error) {
	opts.applyDefaults()

	s := &Simulation{
		opts:    opts,
		bodies:  make([]*body, len(nodes)),
		index:   make(map[string]int, len(nodes)),
		rng:     rand.New(rand.NewSource(opts.Seed)),
		alpha:   1,
		outcome: OutcomeRunning,
	}

	cx, cy := opts.Width/2, opts.Height/2
	for i, n := range nodes {
		b := &body{id: n.UUID}
		if n.Pinned() {
			b.pinned = true
			b.fx, b.fy = *n.FX, *n.FY
			b.x, b.y = b.fx, b.fy
		} else {
			// phyllotaxis arrangement around the canvas center
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			b.x = cx + radius*math.Cos(angle)
			b.y = cy + radius*math.Sin(angle)
		}
		s.bodies[i] = b
		s.index[n.UUID] = i
	}

	if err := s.resolveLinks(edges); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) resolveLinks(edges []domain.Edge) error {
	count := make([]int, len(s.bodies))
	resolved := make([][2]int, 0, len(edges))

	for _, e := range edges {
		si, ok := s.index[e.Source]
		if !ok {
			return &domain.MalformedGraphError{EdgeUUID: e.UUID, End: "source", NodeUUID: e.Source}
		}
		ti, ok := s.index[e.Target]
		if !ok {
			return &domain.MalformedGraphError{EdgeUUID: e.UUID, End: "target", NodeUUID: e.Target}
		}
		count[si]++
		count[ti]++
		resolved = append(resolved, [2]int{si, ti})
	}

	s.links = make([]link, len(resolved))
	for i, r := range resolved {
		cs, ct := count[r[0]], count[r[1]]
		s.links[i] = link{
			source:   s.bodies[r[0]],
			target:   s.bodies[r[1]],
			strength: 1 / float64(min(cs, ct)),
			bias:     float64(cs) / float64(cs+ct),
		}
	}
	return nil
}

// Alpha returns the current temperature
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Ticks returns the number of steps taken
func (s *Simulation) Ticks() int {
	return s.tick
}

// Outcome reports how the last run ended
func (s *Simulation) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Converged reports whether the simulation has reached a stopping condition
func (s *Simulation) Converged() bool {
	if s.alpha < s.opts.AlphaMin {
		return true
	}
	return s.opts.MaxIterations > 0 && s.tick >= s.opts.MaxIterations
}

// Step advances the simulation by one tick and returns the resulting frame
func (s *Simulation) Step() Snapshot {
	s.alpha += (s.opts.AlphaTarget - s.alpha) * s.opts.AlphaDecay

	s.applyLinks()
	s.applyCenter()

	keep := 1 - s.opts.VelocityDecay
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.vx = b.fx, 0
			b.y, b.vy = b.fy, 0
			continue
		}
		b.vx *= keep
		b.x += b.vx
		b.vy *= keep
		b.y += b.vy
	}

	s.tick++
	return s.snapshot()
}

func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, tgt := l.source, l.target
		x := tgt.x + tgt.vx - src.x - src.vx
		if x == 0 {
			x = s.jiggle()
		}
		y := tgt.y + tgt.vy - src.y - src.vy
		if y == 0 {
			y = s.jiggle()
		}
		dist := math.Sqrt(x*x + y*y)
		k := (dist - s.opts.LinkDistance) / dist * s.alpha * l.strength
		x *= k
		y *= k
		tgt.vx -= x * l.bias
		tgt.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

func (s *Simulation) applyCenter() {
	n := len(s.bodies)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	sx = (sx/float64(n) - s.opts.Width/2) * s.opts.CenterStrength
	sy = (sy/float64(n) - s.opts.Height/2) * s.opts.CenterStrength
	for _, b := range s.bodies {
		b.x -= sx
		b.y -= sy
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func (s *Simulation) snapshot() Snapshot {
	positions := make([]domain.NodePosition, len(s.bodies))
	for i, b := range s.bodies {
		positions[i] = domain.NodePosition{NodeID: b.id, X: b.x, Y: b.y, Pinned: b.pinned}
	}
	return Snapshot{
		Tick:      s.tick,
		Alpha:     s.alpha,
		Positions: positions,
		Done:      s.Converged(),
		index:     s.index,
	}
}

// Run steps the simulation until it converges or ctx is cancelled, calling
// onTick after every step. It returns ctx.Err() on cancellation.
func (s *Simulation) Run(ctx context.Context, onTick TickFunc) error {
	var ticker *time.Ticker
	if s.opts.TickInterval > 0 {
		ticker = time.NewTicker(s.opts.TickInterval)
		defer ticker.Stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			s.setOutcome(OutcomeCancelled)
			return err
		}

		snap := s.Step()
		if onTick != nil {
			onTick(snap)
		}
		if snap.Done {
			if s.alpha < s.opts.AlphaMin {
				s.setOutcome(OutcomeConverged)
			} else {
				s.setOutcome(OutcomeCapped)
			}
			return nil
		}

		if ticker == nil {
			runtime.Gosched()
			continue
		}
		select {
		case <-ctx.Done():
			s.setOutcome(OutcomeCancelled)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Start runs the simulation in its own goroutine. Ticks are delivered on
// that goroutine.
func (s *Simulation) Start(ctx context.Context, onTick TickFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		defer cancel()
		err := s.Run(ctx, onTick)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return nil
}

// Stop cancels a running simulation and waits for its goroutine to exit.
// No tick is delivered after Stop returns. It must not be called from
// inside a tick callback.
func (s *Simulation) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until a started simulation finishes and returns its error
func (s *Simulation) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Simulation) setOutcome(o Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.mu.Unlock()
}
