package rule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxConditionLength bounds condition source size so a pathological rule
// document cannot stall loading.
const maxConditionLength = 1024

// maxCostBudget is the CEL runtime cost limit per evaluation.
const maxCostBudget = 100_000

// evalTimeout caps a single condition evaluation. Conditions are tiny, so
// hitting this indicates a registry validation gap, not normal operation.
const evalTimeout = 2 * time.Second

// ConditionVars are the inputs available to a skill's CEL condition.
type ConditionVars struct {
	EventKind string
	Tool      string
	FilePath  string
	Prompt    string
}

// newConditionEnv builds the CEL environment for skill conditions.
// Conditions see only the event's observable attributes.
func newConditionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("event_kind", cel.StringType),
		cel.Variable("tool", cel.StringType),
		cel.Variable("file_path", cel.StringType),
		cel.Variable("prompt", cel.StringType),
	)
}

// compileCondition parses and type-checks a condition, returning a program
// ready for repeated evaluation. Compilation happens once at registry load.
func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	if len(expr) > maxConditionLength {
		return nil, fmt.Errorf("condition too long: %d characters (max %d)", len(expr), maxConditionLength)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile condition: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("build condition program: %w", err)
	}
	return prg, nil
}

// EvalCondition runs a compiled condition program against the event vars.
func EvalCondition(prg cel.Program, vars ConditionVars) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, map[string]any{
		"event_kind": vars.EventKind,
		"tool":       vars.Tool,
		"file_path":  vars.FilePath,
		"prompt":     vars.Prompt,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}

	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", result.Value())
	}
	return b, nil
}
