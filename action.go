package scripted

import "time"

// EndStatus is the outcome of one Action.Update call.
type EndStatus uint8

const (
	Running EndStatus = iota
	Success
	ResetFromCurrent
	ResetFromLast
	ResetFromStart
)

func (status EndStatus) String() string {
	switch status {
	case Running:
		return "running"
	case Success:
		return "success"
	case ResetFromCurrent:
		return "reset_from_current"
	case ResetFromLast:
		return "reset_from_last"
	case ResetFromStart:
		return "reset_from_start"
	default:
		return "unknown"
	}
}

// Action is a unit of behavior run by a Sequence.
//
// OnStart and OnEnd may return false to signal that entering or exiting needs
// more ticks; the sequence retries them until they return true.
type Action interface {
	OnStart() bool
	Update() EndStatus
	OnEnd() bool
	Reset()
	// Advance adds delta to the elapsed time, clearing it first when reset is set.
	Advance(delta time.Duration, reset bool)
	ElapsedTime() time.Duration
	Label() string
}

// Base implements Action with hooks that start, succeed and exit immediately.
// Concrete actions embed it and override the hooks they need.
type Base[O any] struct {
	owner   O
	label   string
	elapsed time.Duration
}

func NewBase[O any](owner O, maybeLabel ...string) Base[O] {
	base := Base[O]{owner: owner}
	if len(maybeLabel) > 0 {
		base.label = maybeLabel[0]
	}
	return base
}

func (base *Base[O]) Owner() O {
	return base.owner
}

func (base *Base[O]) Label() string {
	return base.label
}

func (base *Base[O]) OnStart() bool {
	return true
}

func (base *Base[O]) Update() EndStatus {
	return Success
}

func (base *Base[O]) OnEnd() bool {
	return true
}

func (base *Base[O]) Advance(delta time.Duration, reset bool) {
	if reset {
		base.elapsed = 0
	}
	base.elapsed += delta
}

func (base *Base[O]) Reset() {
	base.elapsed = 0
}

func (base *Base[O]) ElapsedTime() time.Duration {
	return base.elapsed
}
