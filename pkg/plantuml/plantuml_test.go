package plantuml_test

import (
	"strings"
	"testing"

	scripted "github.com/stateforward/go-scripted"
	"github.com/stateforward/go-scripted/pkg/plantuml"
	"github.com/stateforward/go-scripted/pkg/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	always := func() bool { return true }
	half := func() float64 { return 0.5 }
	block, err := scripted.Begin[string](scripted.Config{Name: "guard"}).
		Transitions().
		From("idle").When(always).
		To("chase").Condition(always).Evaluations(half, half).
		To("patrol").Evaluations(half).
		Default("idle").
		Transitions().
		From("chase").When(always).
		To("idle").Evaluations(half).
		End().
		SetGlobalState(scripted.GlobalBlock[string]().To("flee").Evaluations(half)).
		Build()
	require.NoError(t, err)

	var builder strings.Builder
	require.NoError(t, plantuml.Generate(&builder, block))

	assert.Equal(t, strings.Join([]string{
		"@startuml guard",
		"state idle",
		"state chase",
		"state patrol",
		"state flee",
		"[*] ----> flee : 1 scorer",
		"idle ----> chase : 2 scorers [condition]",
		"idle ----> patrol : 1 scorer",
		"idle -[dashed]-> idle : default",
		"chase ----> idle : 1 scorer",
		"@enduml",
		"",
	}, "\n"), builder.String())
}

func TestGenerateSequence(t *testing.T) {
	log := &tests.Log{}
	_, actions := tests.Actions(3, log)
	sequence := scripted.NewSequence(log, actions, scripted.Config{Name: "patrol route"})

	var builder strings.Builder
	require.NoError(t, plantuml.GenerateSequence(&builder, sequence))

	assert.Equal(t, strings.Join([]string{
		"@startuml patrol_route",
		"start",
		":a0;",
		":a1;",
		"repeat",
		"  :a2;",
		"repeat while (stop requested?) is (no)",
		"stop",
		"@enduml",
		"",
	}, "\n"), builder.String())
}
