package scripted

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stateforward/go-scripted/embedded"
	"github.com/stateforward/go-scripted/kinds"
	"github.com/stateforward/go-scripted/pkg/set"
)

/******* Transition *******/

// Transition is a scored candidate move from FromState to ToState.
type Transition[S comparable] struct {
	element
	FromState S
	ToState   S
	// Evaluations are averaged into the transition's utility.
	Evaluations []func() float64
	// ConcreteCondition, when set, excludes the transition whenever it is false.
	ConcreteCondition func() bool
	IsDefault         bool
}

func newTransition[S comparable](from, to S, evaluations []func() float64, condition func() bool, isDefault bool) *Transition[S] {
	kind := kinds.Transition
	if isDefault {
		kind = kinds.Default
	}
	return &Transition[S]{
		element:           newElement(kind, fmt.Sprintf("%v->%v", from, to)),
		FromState:         from,
		ToState:           to,
		Evaluations:       evaluations,
		ConcreteCondition: condition,
		IsDefault:         isDefault,
	}
}

func (transition *Transition[S]) HasConcreteCondition() bool {
	return transition.ConcreteCondition != nil
}

// Score returns the mean of the evaluations. It reports false when the
// concrete condition excludes the transition.
func (transition *Transition[S]) Score() (float64, bool) {
	if transition.HasConcreteCondition() && !transition.ConcreteCondition() {
		return 0, false
	}
	if len(transition.Evaluations) == 0 {
		return 0, true
	}
	total := 0.0
	for _, evaluation := range transition.Evaluations {
		total += evaluation()
	}
	return total / float64(len(transition.Evaluations)), true
}

func (transition *Transition[S]) Source() string {
	return fmt.Sprint(transition.FromState)
}

func (transition *Transition[S]) Target() string {
	return fmt.Sprint(transition.ToState)
}

func (transition *Transition[S]) Scorers() int {
	return len(transition.Evaluations)
}

func (transition *Transition[S]) Conditional() bool {
	return transition.HasConcreteCondition()
}

/******* Group *******/

// Group holds the candidate transitions declared for one from-state.
type Group[S comparable] struct {
	element
	From S
	// Trigger gates the whole group for an evaluation pass.
	Trigger     func() bool
	Transitions []*Transition[S]
	Default     *Transition[S]
}

func newGroup[S comparable](from S, kind uint64) *Group[S] {
	return &Group[S]{
		element: newElement(kind, fmt.Sprint(from)),
		From:    from,
	}
}

func (group *Group[S]) add(transition *Transition[S], trigger func() bool) {
	group.Transitions = append(group.Transitions, transition)
	group.Trigger = trigger
}

func (group *Group[S]) setDefault(transition *Transition[S], trigger func() bool) {
	group.Default = transition
	group.Trigger = trigger
}

func (group *Group[S]) Source() string {
	return fmt.Sprint(group.From)
}

func (group *Group[S]) Members() []embedded.Transition {
	members := make([]embedded.Transition, len(group.Transitions))
	for i, transition := range group.Transitions {
		members[i] = transition
	}
	return members
}

func (group *Group[S]) Fallback() embedded.Transition {
	if group.Default == nil {
		return nil
	}
	return group.Default
}

/******* Block *******/

// Decision is the outcome of one evaluation pass.
type Decision[S comparable] struct {
	// State is the zero value when no transition was selected.
	State      S
	Transition *Transition[S]
	Score      float64
	Global     bool
	Default    bool
}

func (decision Decision[S]) OK() bool {
	return decision.Transition != nil
}

// Block maps from-states to their transition groups, plus an optional global
// group evaluated before any of them.
type Block[S comparable] struct {
	element
	order  *set.Set[S]
	groups map[S]*Group[S]
	global *Group[S]
	logger *slog.Logger
	trace  Trace
}

// Begin starts an empty block.
func Begin[S comparable](config ...Config) *Block[S] {
	cfg := configure(config)
	name := cfg.Name
	if name == "" {
		name = "transitions"
	}
	return &Block[S]{
		element: newElement(kinds.Block, name),
		order:   set.New[S](),
		groups:  map[S]*Group[S]{},
		logger:  cfg.Logger,
		trace:   cfg.Trace,
	}
}

// group returns the group for from, creating it on first use.
func (block *Block[S]) group(from S) *Group[S] {
	if group, ok := block.groups[from]; ok {
		return group
	}
	group := newGroup(from, kinds.Group)
	block.groups[from] = group
	block.order.Add(from)
	return group
}

// Lookup returns the group declared for from.
func (block *Block[S]) Lookup(from S) (*Group[S], bool) {
	group, ok := block.groups[from]
	return group, ok
}

// States returns the from-states in declaration order.
func (block *Block[S]) States() []S {
	states := make([]S, 0, block.order.Size())
	for state := range block.order.Items() {
		states = append(states, state)
	}
	return states
}

func (block *Block[S]) GlobalTransitions() *Group[S] {
	return block.global
}

func (block *Block[S]) Groups() []embedded.Group {
	groups := make([]embedded.Group, 0, block.order.Size())
	for state := range block.order.Items() {
		groups = append(groups, block.groups[state])
	}
	return groups
}

func (block *Block[S]) Global() embedded.Group {
	if block.global == nil {
		return nil
	}
	return block.global
}

// SetGlobalState replaces the global group with the transitions declared on
// builder. A nil builder removes the global group.
func (block *Block[S]) SetGlobalState(builder *GlobalBuilder[S]) *Block[S] {
	if builder == nil {
		block.global = nil
		return block
	}
	var zero S
	global := newGroup(zero, kinds.Global)
	global.name = "global"
	for _, transition := range builder.group.Transitions {
		global.add(transition, nil)
	}
	block.global = global
	return block
}

// Validate reports every configuration error of the block.
func (block *Block[S]) Validate() error {
	if block.order.Size() == 0 {
		return ErrNoTransitions
	}
	var errs []error
	check := func(transitions []*Transition[S]) {
		for _, transition := range transitions {
			if len(transition.Evaluations) == 0 {
				errs = append(errs, fmt.Errorf("transition from %v to %v: %w", transition.FromState, transition.ToState, ErrMissingEvaluations))
			}
		}
	}
	for state := range block.order.Items() {
		group := block.groups[state]
		if group.Trigger == nil {
			errs = append(errs, fmt.Errorf("transitions from %v: %w", state, ErrMissingTrigger))
		}
		check(group.Transitions)
	}
	if block.global != nil {
		check(block.global.Transitions)
	}
	return errors.Join(errs...)
}

// Build validates the block and returns it ready for evaluation.
func (block *Block[S]) Build() (*Block[S], error) {
	if err := block.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", block.name, err)
	}
	return block, nil
}

// Evaluate returns the state the agent should move to next, or the zero value
// of S when no transition applies.
func (block *Block[S]) Evaluate() S {
	return block.Decide().State
}

// Decide runs one evaluation pass. Global transitions pre-empt every group;
// groups are tried in declaration order and the first whose trigger holds and
// that yields a winner or a default decides.
func (block *Block[S]) Decide() Decision[S] {
	var decision Decision[S]
	if block.trace != nil {
		end := block.trace("Evaluate", block)
		defer func() { end(decision.State, decision.Score) }()
	}
	if block.global != nil {
		if best, score := block.best(block.global.Transitions); best != nil {
			block.logger.Debug("global transition selected",
				"block", block.name,
				"to", best.ToState,
				"score", score,
			)
			decision = Decision[S]{State: best.ToState, Transition: best, Score: score, Global: true}
			return decision
		}
	}
	for state := range block.order.Items() {
		group := block.groups[state]
		if group.Trigger == nil || !group.Trigger() {
			continue
		}
		if best, score := block.best(group.Transitions); best != nil {
			block.logger.Debug("transition selected",
				"block", block.name,
				"from", best.FromState,
				"to", best.ToState,
				"score", score,
			)
			decision = Decision[S]{State: best.ToState, Transition: best, Score: score}
			return decision
		}
		if group.Default != nil {
			block.logger.Debug("default transition triggered",
				"block", block.name,
				"from", group.Default.FromState,
				"to", group.Default.ToState,
			)
			decision = Decision[S]{State: group.Default.ToState, Transition: group.Default, Default: true}
			return decision
		}
	}
	return decision
}

// best returns the candidate with the highest mean score strictly above zero.
// Ties keep the earlier candidate.
func (block *Block[S]) best(transitions []*Transition[S]) (*Transition[S], float64) {
	var best *Transition[S]
	maxScore := 0.0
	for _, transition := range transitions {
		score, ok := block.score(transition)
		if !ok {
			continue
		}
		if score > maxScore {
			maxScore = score
			best = transition
		}
	}
	return best, maxScore
}

func (block *Block[S]) score(transition *Transition[S]) (score float64, ok bool) {
	if block.trace != nil {
		end := block.trace("Score", transition)
		defer func() { end(score, ok) }()
	}
	return transition.Score()
}
