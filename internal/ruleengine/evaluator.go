// Package ruleengine compiles and caches small arithmetic and boolean
// expressions so organs can state a formula as an expression string
// instead of Go code. Each expression is compiled on first use and kept
// for the life of the Evaluator; nothing reloads expressions from config.
package ruleengine

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles expr-lang expressions once and reuses the compiled
// program on every subsequent call with the same expression string.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func New() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

func (e *Evaluator) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", expression, err)
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}

// EvalFloat evaluates expression against env and coerces the result to
// float64.
func (e *Evaluator) EvalFloat(expression string, env map[string]any) (float64, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("running expression %q: %w", expression, err)
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expression %q did not evaluate to a number", expression)
	}
}

// EvalBool evaluates expression against env and coerces the result to
// bool. Used for the network organ's quorum threshold gate.
func (e *Evaluator) EvalBool(expression string, env map[string]any) (bool, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("running expression %q: %w", expression, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not evaluate to a bool", expression)
	}
	return b, nil
}

// CacheSize reports how many distinct expressions are currently compiled,
// mirroring the reference condition evaluator's cache-stats introspection.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
