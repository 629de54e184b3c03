package calculator

import (
	"errors"
	"fmt"
	"math"

	"bread-calculator/internal/models"

	"github.com/Knetic/govaluate"
)

var (
	ErrDivisionByZero = errors.New("cannot divide by zero")
	ErrUnknownType    = errors.New("unknown calculation type")
	ErrNotFinite      = errors.New("result is not a finite number")
)

var expressions = map[models.CalculationType]*govaluate.EvaluableExpression{
	models.Add:      mustCompile("a + b"),
	models.Subtract: mustCompile("a - b"),
	models.Multiply: mustCompile("a * b"),
	models.Divide:   mustCompile("a / b"),
}

func mustCompile(expr string) *govaluate.EvaluableExpression {
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		panic(fmt.Sprintf("compile %q: %v", expr, err))
	}
	return e
}

// Compute evaluates a <t> b.
func Compute(a, b float64, t models.CalculationType) (float64, error) {
	expr, ok := expressions[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if t == models.Divide && b == 0 {
		return 0, ErrDivisionByZero
	}

	v, err := expr.Evaluate(map[string]interface{}{"a": a, "b": b})
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", t, err)
	}
	result, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("evaluate %s: unexpected result type %T", t, v)
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, ErrNotFinite
	}
	return result, nil
}
