// Package scripted provides two behavior-scripting primitives for tick-driven agents.
//
// # Overview
//
// A [Sequence] drives a cursor through an ordered list of [Action] values. Each
// action moves through an OnStart, Update and OnEnd lifecycle, and the sequence
// guarantees that the previous action has exited before the next one starts.
//
// A [Block] decides which logical state an agent should move to next. It is
// declared with a fluent grammar and scores competing candidate transitions:
//
//	block, err := scripted.Begin[State]().
//	    Transitions().
//	    From(Idle).When(agent.Is(Idle)).
//	    To(Chase).Condition(seesPlayer).Evaluations(closeness, health).
//	    To(Patrol).Evaluations(boredom).
//	    Default(Idle).
//	    Build()
//
//	next := block.Evaluate()
//
// Both types are single threaded: callers serialize Update and Evaluate.
package scripted

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/stateforward/go-scripted/embedded"
)

type Element = embedded.Element

type Trace = embedded.Trace

/******* Element *******/

type element struct {
	kind uint64
	name string
	id   string
}

func (element *element) Kind() uint64 {
	if element == nil {
		return 0
	}
	return element.kind
}

func (element *element) Id() string {
	if element == nil {
		return ""
	}
	return element.id
}

func (element *element) Name() string {
	if element == nil {
		return ""
	}
	return element.name
}

func newElement(kind uint64, name string) element {
	return element{kind: kind, name: name, id: newId()}
}

func newId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

/******* Config *******/

type Config struct {
	// Name labels the sequence or block in logs, traces and diagrams.
	Name   string
	Logger *slog.Logger
	Trace  Trace
}

var DefaultConfig = Config{}

func configure(config []Config) Config {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
