// Package agent pairs a transition block with one sequence per logical state.
// The block decides where the agent goes next; the sequence of the current
// state does the work and is stopped gracefully before the agent moves on.
package agent

import (
	"log/slog"
	"time"

	scripted "github.com/stateforward/go-scripted"
	"github.com/stateforward/go-scripted/clock"
)

type Config struct {
	Name string
	// EvaluateEvery is the number of ticks between two evaluations of the block.
	EvaluateEvery int
	// Stop is the procedure requested from the active sequence on a state change.
	Stop   scripted.StopProcedure
	Clock  clock.Clock
	Logger *slog.Logger
}

var DefaultConfig = Config{
	Name:          "agent",
	EvaluateEvery: 1,
	Stop:          scripted.StopAfterCurrent,
}

type Agent[S comparable, O any] struct {
	name      string
	owner     O
	block     *scripted.Block[S]
	sequences map[S]*scripted.Sequence[O]
	state     S
	pending   S
	switching bool
	ticks     int
	every     int
	stop      scripted.StopProcedure
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates an agent in state initial. The sequences map is not copied.
func New[S comparable, O any](owner O, sequences map[S]*scripted.Sequence[O], initial S, config ...Config) *Agent[S, O] {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig.Name
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Make()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Agent[S, O]{
		name:      cfg.Name,
		owner:     owner,
		sequences: sequences,
		state:     initial,
		every:     max(1, cfg.EvaluateEvery),
		stop:      cfg.Stop,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
}

// Use sets the block deciding the agent's next state. Blocks usually gate their
// groups with Is, so they are built after the agent.
func (agent *Agent[S, O]) Use(block *scripted.Block[S]) *Agent[S, O] {
	agent.block = block
	return agent
}

func (agent *Agent[S, O]) Owner() O {
	return agent.owner
}

func (agent *Agent[S, O]) State() S {
	return agent.state
}

// Pending returns the state the agent is moving to while the active sequence
// winds down.
func (agent *Agent[S, O]) Pending() (S, bool) {
	return agent.pending, agent.switching
}

// Active returns the sequence of the current state, or nil when it has none.
func (agent *Agent[S, O]) Active() *scripted.Sequence[O] {
	return agent.sequences[agent.state]
}

// Is returns a trigger that holds while the agent is in state.
func (agent *Agent[S, O]) Is(state S) func() bool {
	return func() bool {
		return agent.state == state
	}
}

// Tick steps the agent by the time elapsed on its clock.
func (agent *Agent[S, O]) Tick() {
	agent.Step(agent.clock.Tick())
}

// Step runs one tick of length delta.
func (agent *Agent[S, O]) Step(delta time.Duration) {
	agent.evaluate()
	active := agent.Active()
	if active != nil {
		active.Update(delta)
	}
	if !agent.switching {
		return
	}
	if active != nil && active.Len() > 0 && !active.IsStopped() {
		return
	}
	agent.enter(delta)
}

func (agent *Agent[S, O]) evaluate() {
	if agent.block == nil || agent.switching {
		return
	}
	agent.ticks++
	if agent.ticks < agent.every {
		return
	}
	agent.ticks = 0
	decision := agent.block.Decide()
	if !decision.OK() || decision.State == agent.state {
		return
	}
	agent.pending = decision.State
	agent.switching = true
	agent.logger.Debug("state change requested",
		"agent", agent.name,
		"from", agent.state,
		"to", decision.State,
		"score", decision.Score,
		"global", decision.Global,
		"default", decision.Default,
	)
	if active := agent.Active(); active != nil {
		active.RequestStop(agent.stop)
	}
}

func (agent *Agent[S, O]) enter(delta time.Duration) {
	from := agent.state
	agent.state = agent.pending
	agent.switching = false
	agent.logger.Info("state changed",
		"agent", agent.name,
		"from", from,
		"to", agent.state,
	)
	if next := agent.Active(); next != nil {
		next.Start()
		next.Update(delta)
	}
}
