package step

import "fmt"

// Operation is one of the four arithmetic operators that can combine two
// pool numbers.
type Operation uint8

const (
	Add Operation = iota
	Subtract
	Multiply
	Divide
)

// String returns the display symbol for the operation. These match the
// symbols numble.wtf shows on its solution cards.
func (o Operation) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	}
	return "?"
}

// Commutative returns whether operand order is irrelevant for this
// operation.
func (o Operation) Commutative() bool {
	return o == Add || o == Multiply
}

// Step is an immutable record of a single combination: two numbers drawn
// from the pool, the operation applied to them, and the number they became.
// For subtraction and division, a is the minuend/dividend.
type Step struct {
	a      int
	op     Operation
	b      int
	result int
}

// New creates a step. Commutative operations store the larger operand
// first, so a step renders the same way no matter which pool position each
// operand came from.
func New(a int, op Operation, b, result int) Step {
	if op.Commutative() && b > a {
		a, b = b, a
	}
	return Step{a: a, op: op, b: b, result: result}
}

func (s Step) A() int        { return s.a }
func (s Step) Op() Operation { return s.op }
func (s Step) B() int        { return s.b }
func (s Step) Result() int   { return s.result }

// String renders the step the way a player would write it down, e.g.
// "75 × 10 = 750".
func (s Step) String() string {
	return fmt.Sprintf("%d %s %d = %d", s.a, s.op, s.b, s.result)
}
