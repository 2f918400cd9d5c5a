package scripted

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/stateforward/go-scripted/kinds"
)

// chain carries the declaration in progress along one fluent chain.
type chain[S comparable] struct {
	block     *Block[S]
	from      S
	to        S
	trigger   func() bool
	condition func() bool
	parent    *ToBuilder[S]
}

func newTransitionOrPanic[S comparable](from, to S, evaluations []func() float64, condition func() bool) *Transition[S] {
	if len(evaluations) == 0 {
		slog.Error("evaluations must not be empty", "from", from, "to", to)
		panic(fmt.Errorf("transition from %v to %v: %w", from, to, ErrMissingEvaluations))
	}
	return newTransition(from, to, slices.Clone(evaluations), condition, false)
}

type FromBuilder[S comparable] struct {
	block *Block[S]
}

// Transitions starts declaring from-state groups on the block.
func (block *Block[S]) Transitions() *FromBuilder[S] {
	return &FromBuilder[S]{block: block}
}

func (builder *FromBuilder[S]) From(state S) *WhenBuilder[S] {
	return &WhenBuilder[S]{chain: &chain[S]{block: builder.block, from: state}}
}

type WhenBuilder[S comparable] struct {
	chain *chain[S]
}

// When sets the trigger gating the from-state group. The trigger conventionally
// reports whether the agent is currently in the from-state.
func (builder *WhenBuilder[S]) When(trigger func() bool) *ToBuilder[S] {
	builder.chain.trigger = trigger
	to := &ToBuilder[S]{chain: builder.chain}
	builder.chain.parent = to
	return to
}

type ToBuilder[S comparable] struct {
	chain *chain[S]
}

func (builder *ToBuilder[S]) To(state S) *EvaluationsBuilder[S] {
	builder.chain.to = state
	builder.chain.condition = nil
	return &EvaluationsBuilder[S]{chain: builder.chain}
}

// Default registers the group's fallback, taken when its trigger holds but no
// candidate wins.
func (builder *ToBuilder[S]) Default(state S) *Block[S] {
	c := builder.chain
	transition := newTransition(c.from, state, []func() float64{func() float64 { return 1 }}, nil, true)
	c.block.group(c.from).setDefault(transition, c.trigger)
	return c.block
}

func (builder *ToBuilder[S]) End() *Block[S] {
	return builder.chain.block
}

type EvaluationsBuilder[S comparable] struct {
	chain *chain[S]
}

// Condition attaches a hard gate to the transition being declared.
func (builder *EvaluationsBuilder[S]) Condition(condition func() bool) *EvaluationsBuilder[S] {
	builder.chain.condition = condition
	return builder
}

// Evaluations registers the transition with its scoring functions. Calling it
// without any function is a configuration error and panics.
func (builder *EvaluationsBuilder[S]) Evaluations(evaluations ...func() float64) *ToBuilder[S] {
	c := builder.chain
	transition := newTransitionOrPanic(c.from, c.to, evaluations, c.condition)
	c.block.group(c.from).add(transition, c.trigger)
	c.condition = nil
	return c.parent
}

/******* Global *******/

// GlobalBuilder declares transitions that apply regardless of the from-state.
// They are attached to a block with SetGlobalState.
type GlobalBuilder[S comparable] struct {
	group     *Group[S]
	to        S
	condition func() bool
}

func GlobalBlock[S comparable]() *GlobalBuilder[S] {
	var zero S
	return &GlobalBuilder[S]{group: newGroup(zero, kinds.Global)}
}

func (builder *GlobalBuilder[S]) To(state S) *GlobalEvaluationsBuilder[S] {
	builder.to = state
	builder.condition = nil
	return &GlobalEvaluationsBuilder[S]{parent: builder}
}

type GlobalEvaluationsBuilder[S comparable] struct {
	parent *GlobalBuilder[S]
}

func (builder *GlobalEvaluationsBuilder[S]) Condition(condition func() bool) *GlobalEvaluationsBuilder[S] {
	builder.parent.condition = condition
	return builder
}

func (builder *GlobalEvaluationsBuilder[S]) Evaluations(evaluations ...func() float64) *GlobalBuilder[S] {
	global := builder.parent
	transition := newTransitionOrPanic(global.group.From, global.to, evaluations, global.condition)
	global.group.add(transition, nil)
	global.condition = nil
	return global
}
