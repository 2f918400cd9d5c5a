package scripted

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/stateforward/go-scripted/embedded"
	"github.com/stateforward/go-scripted/kinds"
)

// StopProcedure selects how a Sequence halts once a stop is requested.
type StopProcedure uint8

const (
	// StopAbruptly stops at the next Update without running any lifecycle hook.
	StopAbruptly StopProcedure = iota
	// StopAfterCurrent stops once the current action has completed OnEnd.
	StopAfterCurrent
	// StopAfterAll stops once the last action of the sequence has completed OnEnd.
	StopAfterAll
)

func (procedure StopProcedure) String() string {
	switch procedure {
	case StopAbruptly:
		return "stop_abruptly"
	case StopAfterCurrent:
		return "stop_after_current"
	case StopAfterAll:
		return "stop_after_all"
	default:
		return "unknown"
	}
}

// Phase is the lifecycle hook a Sequence is executing.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseStart
	PhaseUpdate
	PhaseEnd
)

func (phase Phase) String() string {
	switch phase {
	case PhaseStart:
		return "start"
	case PhaseUpdate:
		return "update"
	case PhaseEnd:
		return "end"
	default:
		return "none"
	}
}

func (phase Phase) Kind() uint64 {
	switch phase {
	case PhaseStart:
		return kinds.Start
	case PhaseUpdate:
		return kinds.Update
	case PhaseEnd:
		return kinds.End
	default:
		return kinds.Phase
	}
}

// CurrentActionInfo is a snapshot of the action a Sequence is working on.
type CurrentActionInfo struct {
	Action Action
	// Index is the position of Action in the sequence, or -1 before activation.
	Index int
	Phase Phase
}

type Sequence[O any] struct {
	element
	owner   O
	actions []Action
	slots   []element

	cursor   int
	current  int
	previous int

	transitioning bool
	exited        bool
	fresh         bool

	procedure  StopProcedure
	shouldStop bool
	stopped    bool

	info      CurrentActionInfo
	lastPhase Phase

	logger *slog.Logger
	trace  Trace
}

// NewSequence creates a sequence over actions. The slice is copied and never
// resized; the actions themselves stay owned by the caller.
func NewSequence[O any](owner O, actions []Action, config ...Config) *Sequence[O] {
	cfg := configure(config)
	name := cfg.Name
	if name == "" {
		name = "sequence"
	}
	sequence := &Sequence[O]{
		element:   newElement(kinds.Sequence, name),
		owner:     owner,
		actions:   slices.Clone(actions),
		slots:     make([]element, len(actions)),
		cursor:    -1,
		current:   -1,
		previous:  -1,
		procedure: StopAfterCurrent,
		info:      CurrentActionInfo{Index: -1},
		logger:    cfg.Logger,
		trace:     cfg.Trace,
	}
	for i, action := range sequence.actions {
		if action == nil {
			slog.Error("sequence action must not be nil", "sequence", name, "index", i)
			panic(fmt.Errorf("sequence %s: action %d is nil", name, i))
		}
		label := action.Label()
		if label == "" {
			label = fmt.Sprintf("action_%d", i)
		}
		sequence.slots[i] = newElement(kinds.Action, label)
	}
	return sequence
}

func (sequence *Sequence[O]) Owner() O {
	return sequence.owner
}

func (sequence *Sequence[O]) Len() int {
	return len(sequence.actions)
}

// Actions returns a copy of the action list.
func (sequence *Sequence[O]) Actions() []Action {
	return slices.Clone(sequence.actions)
}

func (sequence *Sequence[O]) Slots() []embedded.NamedElement {
	slots := make([]embedded.NamedElement, len(sequence.slots))
	for i := range sequence.slots {
		slots[i] = &sequence.slots[i]
	}
	return slots
}

// Cursor returns the index of the action being entered or run, or -1 before the
// first Update.
func (sequence *Sequence[O]) Cursor() int {
	return sequence.cursor
}

func (sequence *Sequence[O]) CurrentActionInfo() CurrentActionInfo {
	return sequence.info
}

func (sequence *Sequence[O]) IsStopped() bool {
	return sequence.stopped
}

// Transitioning reports whether an exit or entry is still pending.
func (sequence *Sequence[O]) Transitioning() bool {
	return sequence.transitioning
}

// Start clears any requested or completed stop so that Update resumes.
func (sequence *Sequence[O]) Start() {
	sequence.stopped = false
	sequence.shouldStop = false
}

// RequestStop asks the sequence to stop; it takes effect inside Update.
func (sequence *Sequence[O]) RequestStop(procedure StopProcedure) {
	sequence.procedure = procedure
	sequence.shouldStop = true
}

// Update advances the sequence by one tick of length delta.
func (sequence *Sequence[O]) Update(delta time.Duration) {
	if sequence == nil || len(sequence.actions) == 0 {
		return
	}
	if sequence.shouldStop && sequence.procedure == StopAbruptly {
		sequence.stopped = true
	}
	if sequence.stopped {
		return
	}
	if sequence.trace != nil {
		defer sequence.trace("Update", sequence)()
	}
	if sequence.current < 0 {
		sequence.moveTo(0)
		sequence.transition()
		return
	}
	sequence.advance(delta)
	if sequence.transitioning {
		sequence.transition()
		return
	}
	action := sequence.actions[sequence.current]
	switch action.Update() {
	case Success:
		sequence.moveTo(min(sequence.cursor+1, len(sequence.actions)-1))
	case ResetFromStart:
		sequence.moveTo(0)
	case ResetFromLast:
		sequence.moveTo(max(sequence.cursor-1, 0))
	case ResetFromCurrent:
		// re-enter in place: no OnEnd, no Reset
		sequence.transitioning = true
		sequence.exited = true
	default:
		return
	}
	sequence.transition()
}

func (sequence *Sequence[O]) moveTo(index int) {
	sequence.previous = sequence.current
	sequence.cursor = index
	sequence.transitioning = true
	sequence.exited = false
}

// advance feeds delta to the action whose hook is pending: the exiting action
// while its OnEnd stalls, the current action otherwise.
func (sequence *Sequence[O]) advance(delta time.Duration) {
	if sequence.transitioning && !sequence.exited && sequence.previous >= 0 {
		sequence.actions[sequence.previous].Advance(delta, false)
		return
	}
	sequence.actions[sequence.current].Advance(delta, sequence.fresh)
	sequence.fresh = false
}

// transition exits the previous action and enters the one under the cursor.
// Either hook returning false leaves the transition pending for the next tick.
func (sequence *Sequence[O]) transition() {
	if sequence.trace != nil {
		defer sequence.trace("transition", sequence, &sequence.slots[sequence.cursor])()
	}
	sequence.current = sequence.cursor
	if !sequence.exited {
		if sequence.previous >= 0 {
			sequence.enter(PhaseEnd, sequence.previous)
			if !sequence.end(sequence.previous) {
				return
			}
			sequence.actions[sequence.previous].Reset()
		}
		sequence.exited = true
		sequence.fresh = true
	}
	if sequence.enter(PhaseStart, sequence.current) {
		return
	}
	if !sequence.start(sequence.current) {
		return
	}
	sequence.transitioning = false
	sequence.enter(PhaseUpdate, sequence.current)
}

func (sequence *Sequence[O]) start(index int) bool {
	var ok bool
	if sequence.trace != nil {
		end := sequence.trace("OnStart", sequence, &sequence.slots[index])
		defer func() { end(ok) }()
	}
	ok = sequence.actions[index].OnStart()
	return ok
}

func (sequence *Sequence[O]) end(index int) bool {
	var ok bool
	if sequence.trace != nil {
		end := sequence.trace("OnEnd", sequence, &sequence.slots[index])
		defer func() { end(ok) }()
	}
	ok = sequence.actions[index].OnEnd()
	return ok
}

// enter records the phase now executing and applies a requested graceful stop
// once an action has completed OnEnd. It reports whether the sequence stopped.
func (sequence *Sequence[O]) enter(phase Phase, index int) bool {
	if phase != sequence.info.Phase || index != sequence.info.Index {
		sequence.lastPhase = sequence.info.Phase
		sequence.info = CurrentActionInfo{
			Action: sequence.actions[index],
			Index:  index,
			Phase:  phase,
		}
		sequence.logger.Debug("sequence phase",
			"sequence", sequence.name,
			"action", sequence.slots[index].name,
			"index", index,
			"phase", phase,
		)
	}
	if !sequence.shouldStop || phase != PhaseStart || sequence.lastPhase != PhaseEnd {
		return sequence.stopped
	}
	switch sequence.procedure {
	case StopAfterCurrent:
		sequence.stopped = true
	case StopAfterAll:
		sequence.stopped = sequence.previous == len(sequence.actions)-1
	}
	if sequence.stopped {
		sequence.logger.Debug("sequence stopped",
			"sequence", sequence.name,
			"procedure", sequence.procedure,
			"index", sequence.cursor,
		)
	}
	return sequence.stopped
}
