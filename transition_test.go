package scripted_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	scripted "github.com/stateforward/go-scripted"
	"github.com/stateforward/go-scripted/pkg/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state string

const (
	none   state = ""
	idle   state = "idle"
	patrol state = "patrol"
	chase  state = "chase"
	flee   state = "flee"
)

func score(value float64) func() float64 {
	return func() float64 { return value }
}

func is(value bool) func() bool {
	return func() bool { return value }
}

func TestEvaluateSelectsHighestMean(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Evaluations(score(0.2), score(0.6)).
		To(chase).Evaluations(score(0.7)).
		End().
		Build()
	require.NoError(t, err)

	decision := block.Decide()
	assert.Equal(t, chase, decision.State)
	assert.InDelta(t, 0.7, decision.Score, 1e-9)
	assert.True(t, decision.OK())
	assert.False(t, decision.Global)
	assert.False(t, decision.Default)
	assert.Equal(t, chase, block.Evaluate())
}

func TestEvaluateConditionExcludesCandidate(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Evaluations(score(0.4)).
		To(chase).Condition(is(false)).Evaluations(score(0.7)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, patrol, block.Evaluate())
}

func TestEvaluateConditionAppliesToOneTransition(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Condition(is(false)).Evaluations(score(0.9)).
		To(chase).Evaluations(score(0.3)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, chase, block.Evaluate())

	group, ok := block.Lookup(idle)
	require.True(t, ok)
	assert.True(t, group.Transitions[0].HasConcreteCondition())
	assert.False(t, group.Transitions[1].HasConcreteCondition())
}

func TestEvaluateFallsBackToDefault(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(0)).
		Default(patrol).
		Build()
	require.NoError(t, err)

	decision := block.Decide()
	assert.Equal(t, patrol, decision.State)
	assert.True(t, decision.Default)
	assert.True(t, decision.Transition.IsDefault)
}

func TestEvaluateNegativeScoresNeverWin(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(-1)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, none, block.Evaluate())
	assert.False(t, block.Decide().OK())
}

func TestEvaluateTieKeepsEarlierCandidate(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Evaluations(score(0.5)).
		To(chase).Evaluations(score(0.5)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, patrol, block.Evaluate())
}

func TestEvaluateGlobalPreempts(t *testing.T) {
	global := scripted.GlobalBlock[state]().
		To(flee).Evaluations(score(0.1))
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(0.9)).
		End().
		SetGlobalState(global).
		Build()
	require.NoError(t, err)

	decision := block.Decide()
	assert.Equal(t, flee, decision.State)
	assert.True(t, decision.Global)
	require.NotNil(t, block.Global())
	assert.Equal(t, "global", block.Global().Name())

	block.SetGlobalState(nil)
	assert.Nil(t, block.Global())
	assert.Equal(t, chase, block.Evaluate())
}

func TestEvaluateGatedGlobalYields(t *testing.T) {
	fleeing := false
	global := scripted.GlobalBlock[state]().
		To(flee).Condition(func() bool { return fleeing }).Evaluations(score(1))
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(0.3)).
		End().
		SetGlobalState(global).
		Build()
	require.NoError(t, err)

	assert.Equal(t, chase, block.Evaluate())
	fleeing = true
	assert.Equal(t, flee, block.Evaluate())
}

func TestEvaluateGroupOrder(t *testing.T) {
	current := patrol
	in := func(s state) func() bool {
		return func() bool { return current == s }
	}
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(in(idle)).
		To(patrol).Evaluations(score(1)).
		End().
		Transitions().
		From(patrol).When(in(patrol)).
		To(chase).Evaluations(score(1)).
		End().
		Build()
	require.NoError(t, err)

	assert.Equal(t, []state{idle, patrol}, block.States())
	assert.Equal(t, chase, block.Evaluate())
	current = idle
	assert.Equal(t, patrol, block.Evaluate())
	current = flee
	assert.Equal(t, none, block.Evaluate())
}

func TestEvaluateFirstTriggeredGroupDecides(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Evaluations(score(0.2)).
		End().
		Transitions().
		From(patrol).When(is(true)).
		To(chase).Evaluations(score(0.9)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, patrol, block.Evaluate())
}

func TestEvaluateFallsThroughUndecidedGroup(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(patrol).Evaluations(score(0)).
		End().
		Transitions().
		From(patrol).When(is(true)).
		To(chase).Evaluations(score(0.9)).
		End().
		Build()
	require.NoError(t, err)
	assert.Equal(t, chase, block.Evaluate())
}

func TestDefaultSharesGroupTrigger(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(false)).
		To(chase).Evaluations(score(1)).
		Default(patrol).
		Build()
	require.NoError(t, err)
	assert.Equal(t, none, block.Evaluate())
}

func TestEvaluationsOnSamePairAreDistinct(t *testing.T) {
	block, err := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(0.1)).
		To(chase).Evaluations(score(0.8)).
		End().
		Build()
	require.NoError(t, err)

	group, ok := block.Lookup(idle)
	require.True(t, ok)
	require.Len(t, group.Transitions, 2)
	assert.NotEqual(t, group.Transitions[0].Id(), group.Transitions[1].Id())
	assert.Same(t, group.Transitions[1], block.Decide().Transition)
}

func TestTransitionScore(t *testing.T) {
	block := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Condition(is(true)).Evaluations(score(1), score(0), score(0.5)).
		End()
	group, _ := block.Lookup(idle)
	transition := group.Transitions[0]

	value, ok := transition.Score()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, value, 1e-9)
	assert.Equal(t, "idle->chase", transition.Name())
	assert.Equal(t, "idle", transition.Source())
	assert.Equal(t, "chase", transition.Target())
	assert.Equal(t, 3, transition.Scorers())
	assert.True(t, transition.Conditional())

	transition.ConcreteCondition = is(false)
	_, ok = transition.Score()
	assert.False(t, ok)
}

func TestBuildErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := scripted.Begin[state]().Build()
		assert.ErrorIs(t, err, scripted.ErrNoTransitions)
	})
	t.Run("missing trigger", func(t *testing.T) {
		_, err := scripted.Begin[state]().
			Transitions().
			From(idle).When(nil).
			To(chase).Evaluations(score(1)).
			End().
			Build()
		assert.ErrorIs(t, err, scripted.ErrMissingTrigger)
		assert.Contains(t, err.Error(), "transitions:")
	})
	t.Run("missing evaluations", func(t *testing.T) {
		block := scripted.Begin[state](scripted.Config{Name: "guard"}).
			Transitions().
			From(idle).When(is(true)).
			To(chase).Evaluations(score(1)).
			End()
		group, _ := block.Lookup(idle)
		group.Transitions[0].Evaluations = nil
		_, err := block.Build()
		assert.ErrorIs(t, err, scripted.ErrMissingEvaluations)
		assert.Contains(t, err.Error(), "guard:")
	})
	t.Run("joined", func(t *testing.T) {
		block := scripted.Begin[state]().
			Transitions().
			From(idle).When(nil).
			To(chase).Evaluations(score(1)).
			End()
		group, _ := block.Lookup(idle)
		group.Transitions[0].Evaluations = nil
		err := block.Validate()
		assert.True(t, errors.Is(err, scripted.ErrMissingTrigger))
		assert.True(t, errors.Is(err, scripted.ErrMissingEvaluations))
	})
}

func TestEvaluationsWithoutFunctionsPanics(t *testing.T) {
	assert.Panics(t, func() {
		scripted.Begin[state]().
			Transitions().
			From(idle).When(is(true)).
			To(chase).Evaluations()
	})
	assert.Panics(t, func() {
		scripted.GlobalBlock[state]().To(flee).Evaluations()
	})
}

func TestEvaluateLogsAndTraces(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	recorder := tests.NewRecorder()
	block, err := scripted.Begin[state](scripted.Config{Name: "guard", Logger: logger, Trace: recorder.Trace}).
		Transitions().
		From(idle).When(is(true)).
		To(chase).Evaluations(score(0)).
		Default(patrol).
		Build()
	require.NoError(t, err)

	block.Evaluate()

	assert.Contains(t, buffer.String(), "default transition triggered")
	assert.Contains(t, buffer.String(), "block=guard")
	records := recorder.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Score", records[0].Step)
	assert.Equal(t, []string{"idle->chase"}, records[0].Names)
	assert.Equal(t, []any{0.0, true}, records[0].Results)
	assert.Equal(t, "Evaluate", records[1].Step)
	assert.Equal(t, []string{"guard"}, records[1].Names)
	assert.Equal(t, []any{patrol, 0.0}, records[1].Results)
}

func TestBlockGroupsView(t *testing.T) {
	block := scripted.Begin[state]().
		Transitions().
		From(idle).When(is(true)).
		To(chase).Condition(is(true)).Evaluations(score(1)).
		Default(patrol)
	groups := block.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "idle", groups[0].Source())
	require.Len(t, groups[0].Members(), 1)
	require.NotNil(t, groups[0].Fallback())
	assert.Equal(t, "patrol", groups[0].Fallback().Target())
	assert.Nil(t, block.Global())
	assert.Nil(t, block.GlobalTransitions())
}

func TestAbandonedConditionDoesNotLeak(t *testing.T) {
	block := scripted.Begin[state]()
	when := block.Transitions().From(idle).When(is(true))
	when.To(patrol).Condition(is(false))
	when.To(chase).Evaluations(score(0.5))
	_, err := block.Build()
	require.NoError(t, err)

	group, ok := block.Lookup(idle)
	require.True(t, ok)
	require.Len(t, group.Transitions, 1)
	assert.False(t, group.Transitions[0].HasConcreteCondition())
	assert.Equal(t, chase, block.Evaluate())

	global := scripted.GlobalBlock[state]()
	global.To(patrol).Condition(is(false))
	global.To(flee).Evaluations(score(0.5))
	block.SetGlobalState(global)
	assert.False(t, block.GlobalTransitions().Transitions[0].HasConcreteCondition())
	assert.Equal(t, flee, block.Evaluate())
}
