package debugger

import (
	"fmt"

	"github.com/rv32ttd/rv32ttd/vm"
)

// ExpressionEvaluator evaluates the small expression language used by
// breakpoint/watchpoint conditions and the print/set commands: register
// names, memory dereferences, value-history references, numeric literals,
// and a handful of binary operators, tokenized by ExprLexer and parsed by
// ExprParser's precedence climb.
type ExpressionEvaluator struct {
	valueHistory []int32
	valueNumber  int
}

// NewExpressionEvaluator creates a new expression evaluator.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr and records the result in the value
// history, making it addressable as $N in later expressions.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, exec *vm.Executor) (int32, error) {
	result, err := e.evaluate(expr, exec)
	if err != nil {
		return 0, err
	}
	e.valueHistory = append(e.valueHistory, result)
	e.valueNumber = len(e.valueHistory)
	return result, nil
}

// Evaluate evaluates expr as a boolean condition (nonzero is true).
func (e *ExpressionEvaluator) Evaluate(expr string, exec *vm.Executor) (bool, error) {
	result, err := e.evaluate(expr, exec)
	if err != nil {
		return false, err
	}
	return result != 0, nil
}

// GetValueNumber returns the current value number.
func (e *ExpressionEvaluator) GetValueNumber() int {
	return e.valueNumber
}

// GetValue returns a value from history by number.
func (e *ExpressionEvaluator) GetValue(number int) (int32, error) {
	if number < 1 || number > len(e.valueHistory) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}
	return e.valueHistory[number-1], nil
}

func (e *ExpressionEvaluator) evaluate(expr string, exec *vm.Executor) (int32, error) {
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}
	tokens := NewExprLexer(expr).TokenizeAll()
	return NewExprParser(tokens, exec, e).Parse()
}

// Reset clears the value history.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
	e.valueNumber = 0
}
