// Package bt exposes sequences and transition blocks as go-behaviortree nodes so
// that scripted behavior can be composed into larger trees.
package bt

import (
	"github.com/joeycumines/go-behaviortree"
	scripted "github.com/stateforward/go-scripted"
	"github.com/stateforward/go-scripted/clock"
)

// Sequence returns a leaf that updates sequence by the clock delta on every
// tick. It is Running until the sequence stops and Success afterwards; an empty
// sequence succeeds immediately.
func Sequence[O any](sequence *scripted.Sequence[O], clk clock.Clock) behaviortree.Node {
	if clk == nil {
		clk = clock.Make()
	}
	return behaviortree.New(func(children []behaviortree.Node) (behaviortree.Status, error) {
		if sequence.Len() == 0 || sequence.IsStopped() {
			return behaviortree.Success, nil
		}
		sequence.Update(clk.Tick())
		if sequence.IsStopped() {
			return behaviortree.Success, nil
		}
		return behaviortree.Running, nil
	})
}

// Decision returns a condition leaf that succeeds when block selects state.
func Decision[S comparable](block *scripted.Block[S], state S) behaviortree.Node {
	return behaviortree.New(func(children []behaviortree.Node) (behaviortree.Status, error) {
		if block.Evaluate() == state {
			return behaviortree.Success, nil
		}
		return behaviortree.Failure, nil
	})
}

// Decide returns a leaf that evaluates block and hands a selected state to
// apply. It fails when no transition applies.
func Decide[S comparable](block *scripted.Block[S], apply func(S)) behaviortree.Node {
	return behaviortree.New(func(children []behaviortree.Node) (behaviortree.Status, error) {
		decision := block.Decide()
		if !decision.OK() {
			return behaviortree.Failure, nil
		}
		if apply != nil {
			apply(decision.State)
		}
		return behaviortree.Success, nil
	})
}
