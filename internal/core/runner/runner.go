package runner

import (
	"fmt"
	"math"
	"time"

	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/session"
	"github.com/zeusync/suika/internal/core/sim"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// Runner couples a session with the physics world. Collisions found by one
// step are resolved on the next tick, the same one-frame lag a rigid body
// engine's event queue has.
type Runner struct {
	session *session.Session
	world   *sim.World
	subs    []bus.Subscription
	bus     bus.EventBus
	obs     *bus.LogObserver
	pending []physics.CollisionEvent
}

func New(s *session.Session, world *sim.World, eventBus bus.EventBus, logger log.Log) (*Runner, error) {
	if eventBus == nil {
		return nil, fmt.Errorf("runner needs an event bus")
	}
	subs, err := world.Attach(eventBus)
	if err != nil {
		return nil, fmt.Errorf("attach world: %w", err)
	}
	obs := bus.NewLogObserver(logger.With(log.String("session", s.ID())))
	eventBus.AddObserver(obs)
	return &Runner{
		session: s,
		world:   world,
		subs:    subs,
		bus:     eventBus,
		obs:     obs,
	}, nil
}

func (r *Runner) Session() *session.Session { return r.session }

func (r *Runner) World() *sim.World { return r.world }

// Events returns the bus counters accumulated so far.
func (r *Runner) Events() bus.EventBusMetrics { return r.bus.GetMetrics() }

// Step runs one frame: session tick, physics step, transform write-back.
func (r *Runner) Step(dt time.Duration, pointer []physics.Vec2, click bool) (session.Report, error) {
	report, err := r.session.Tick(session.Input{
		Dt:         dt,
		Pointer:    pointer,
		Click:      click,
		Collisions: r.pending,
	})
	r.pending = r.world.Step(dt)
	r.world.Sync(r.session)
	if err != nil {
		return report, fmt.Errorf("step %d: %w", report.Tick, err)
	}
	return report, nil
}

// Close detaches the world and the log observer from the bus.
func (r *Runner) Close() error {
	r.bus.RemoveObserver(r.obs)
	for _, s := range r.subs {
		if err := r.bus.Unsubscribe(s); err != nil {
			return err
		}
	}
	r.subs = nil
	return nil
}

// Autopilot produces deterministic input for unattended runs: the pointer
// sweeps the board and a click lands every Every ticks.
type Autopilot struct {
	Width float64
	Every int
	Phase float64
	tick  int
}

func NewAutopilot(width float64, every int, phase float64) *Autopilot {
	if every < 1 {
		every = 1
	}
	return &Autopilot{Width: width, Every: every, Phase: phase}
}

func (a *Autopilot) Next() (physics.Vec2, bool) {
	a.tick++
	x := a.Width / 2 * math.Sin(a.Phase+float64(a.tick)*0.05)
	return physics.Vec2{X: x}, a.tick%a.Every == 0
}
