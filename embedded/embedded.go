// Package embedded declares the read-only views that exporters consume without
// depending on the generic types.
package embedded

type Element interface {
	Kind() uint64
	Id() string
}

type NamedElement interface {
	Element
	Name() string
}

// Trace is invoked when a traced step begins; the returned function is invoked
// with the step results when it ends.
type Trace func(step string, elements ...Element) func(...any)

type Transition interface {
	NamedElement
	Source() string
	Target() string
	// Scorers is the number of evaluation functions averaged into the score.
	Scorers() int
	Conditional() bool
}

type Group interface {
	NamedElement
	Source() string
	Members() []Transition
	Fallback() Transition
}

type Block interface {
	NamedElement
	Groups() []Group
	Global() Group
}

type Sequence interface {
	NamedElement
	Slots() []NamedElement
}
