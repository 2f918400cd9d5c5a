package scripted

import "errors"

var (
	ErrNoTransitions      = errors.New("no transitions defined")
	ErrMissingEvaluations = errors.New("transition is missing evaluations")
	ErrMissingTrigger     = errors.New("transition group is missing a trigger")
)
