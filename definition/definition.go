// Package definition loads transition blocks from YAML documents whose triggers,
// conditions and evaluations are expr-lang expressions.
//
//	name: guard
//	global:
//	  - state: flee
//	    if: health < 0.2
//	    evaluations: ["1 - health"]
//	states:
//	  - from: patrol
//	    when: state == "patrol"
//	    to:
//	      - state: chase
//	        if: sees_player
//	        evaluations: ["1 - distance / 10", "health"]
//	    default: patrol
package definition

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	scripted "github.com/stateforward/go-scripted"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyState        = errors.New("state name is empty")
	ErrInvalidExpression = errors.New("invalid expression")
)

type Definition struct {
	Name   string   `yaml:"name"`
	Global []Target `yaml:"global"`
	States []State  `yaml:"states"`
}

// State declares the transitions out of one from-state.
type State struct {
	From string `yaml:"from"`
	// When is the trigger expression gating the group.
	When    string   `yaml:"when"`
	To      []Target `yaml:"to"`
	Default string   `yaml:"default"`
}

type Target struct {
	State string `yaml:"state"`
	// If is an optional hard gate.
	If          string   `yaml:"if"`
	Evaluations []string `yaml:"evaluations"`
}

func Parse(data []byte) (Definition, error) {
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return Definition{}, fmt.Errorf("definition: unmarshal: %w", err)
	}
	return definition, nil
}

func Load(filename string) (Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Definition{}, fmt.Errorf("definition: load %s: %w", filename, err)
	}
	definition, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("definition: load %s: %w", filename, err)
	}
	return definition, nil
}

type compiler struct {
	env    func() any
	sample any
	logger *slog.Logger
	errs   []error
}

// Compile builds a block from definition. env is called on every evaluation and
// must always return values of the same shape; its first result types the
// expressions.
func Compile[S ~string](definition Definition, env func() any, config ...scripted.Config) (*scripted.Block[S], error) {
	cfg := scripted.DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Name == "" {
		cfg.Name = definition.Name
	}
	if cfg.Name == "" {
		cfg.Name = "transitions"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if env == nil {
		env = func() any { return map[string]any{} }
	}
	c := &compiler{env: env, sample: env(), logger: cfg.Logger}

	block := scripted.Begin[S](cfg)
	for _, state := range definition.States {
		compileState(c, block, state)
	}
	if len(definition.Global) > 0 {
		global := scripted.GlobalBlock[S]()
		for _, target := range definition.Global {
			condition, evaluations, ok := c.target("global", target)
			if !ok {
				continue
			}
			global = global.To(S(target.State)).Condition(condition).Evaluations(evaluations...)
		}
		block.SetGlobalState(global)
	}
	if err := errors.Join(c.errs...); err != nil {
		return nil, fmt.Errorf("definition %s: %w", cfg.Name, err)
	}
	return block.Build()
}

func compileState[S ~string](c *compiler, block *scripted.Block[S], state State) {
	if state.From == "" {
		c.errs = append(c.errs, fmt.Errorf("from: %w", ErrEmptyState))
		return
	}
	var trigger func() bool
	if state.When != "" {
		trigger = c.predicate(state.From, "when", state.When)
	}
	builder := block.Transitions().From(S(state.From)).When(trigger)
	for _, target := range state.To {
		condition, evaluations, ok := c.target(state.From, target)
		if !ok {
			continue
		}
		builder = builder.To(S(target.State)).Condition(condition).Evaluations(evaluations...)
	}
	if state.Default != "" {
		builder.Default(S(state.Default))
	}
}

// target compiles the gate and evaluations of one candidate. It reports false
// when the candidate cannot be registered.
func (c *compiler) target(from string, target Target) (func() bool, []func() float64, bool) {
	if target.State == "" {
		c.errs = append(c.errs, fmt.Errorf("state %s: to: %w", from, ErrEmptyState))
		return nil, nil, false
	}
	if len(target.Evaluations) == 0 {
		c.errs = append(c.errs, fmt.Errorf("transition from %s to %s: %w", from, target.State, scripted.ErrMissingEvaluations))
		return nil, nil, false
	}
	var condition func() bool
	if target.If != "" {
		condition = c.predicate(from, "if", target.If)
	}
	evaluations := make([]func() float64, 0, len(target.Evaluations))
	for _, source := range target.Evaluations {
		if evaluation := c.evaluation(from, source); evaluation != nil {
			evaluations = append(evaluations, evaluation)
		}
	}
	if (condition == nil && target.If != "") || len(evaluations) != len(target.Evaluations) {
		return nil, nil, false
	}
	return condition, evaluations, true
}

func (c *compiler) compile(from, field, source string, options ...expr.Option) *vm.Program {
	program, err := expr.Compile(source, append([]expr.Option{expr.Env(c.sample)}, options...)...)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("state %s: %s %q: %w: %w", from, field, source, ErrInvalidExpression, err))
		return nil
	}
	return program
}

// predicate compiles a boolean expression. Evaluation failures are logged and
// read as false.
func (c *compiler) predicate(from, field, source string) func() bool {
	program := c.compile(from, field, source, expr.AsBool())
	if program == nil {
		return nil
	}
	return func() bool {
		output, err := expr.Run(program, c.env())
		if err != nil {
			c.logger.Error("expression evaluation failed", "state", from, "expression", source, "error", err)
			return false
		}
		value, _ := output.(bool)
		return value
	}
}

// evaluation compiles a scoring expression. Evaluation failures are logged and
// score zero.
func (c *compiler) evaluation(from, source string) func() float64 {
	program := c.compile(from, "evaluation", source, expr.AsFloat64())
	if program == nil {
		return nil
	}
	return func() float64 {
		output, err := expr.Run(program, c.env())
		if err != nil {
			c.logger.Error("expression evaluation failed", "state", from, "expression", source, "error", err)
			return 0
		}
		value, _ := output.(float64)
		return value
	}
}
