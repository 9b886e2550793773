// Package opgen generates the candidate combinations available in a pool,
// in a fixed deterministic order, applying the game's legality rules.
package opgen

import (
	"errors"
	"math"

	"github.com/domino14/numble/pool"
	"github.com/domino14/numble/step"
)

// ErrValueOverflow is returned when a combination would exceed the host
// integer range. Puzzle-sized inputs never get near it; it exists so that a
// pathological input fails loudly instead of wrapping around into a wrong
// answer.
var ErrValueOverflow = errors.New("arithmetic overflow while combining numbers")

// Combine computes a op b for positive operands. ok is false when the
// combination is illegal: a difference that would not be strictly positive,
// an inexact division, or a division of a number by itself (which would
// mint a 1 the pool does not otherwise hold). err is non-nil only on
// integer overflow.
func Combine(op step.Operation, a, b int) (result int, ok bool, err error) {
	switch op {
	case step.Add:
		if a > math.MaxInt-b {
			return 0, false, ErrValueOverflow
		}
		return a + b, true, nil
	case step.Subtract:
		if a <= b {
			return 0, false, nil
		}
		return a - b, true, nil
	case step.Multiply:
		if a > math.MaxInt/b {
			return 0, false, ErrValueOverflow
		}
		return a * b, true, nil
	case step.Divide:
		if a == b || a%b != 0 {
			return 0, false, nil
		}
		return a / b, true, nil
	}
	return 0, false, nil
}

// Candidate pairs a legal step with the pool positions its operands came
// from, so the search can form the successor pool without rescanning for
// values.
type Candidate struct {
	Step step.Step
	I, J int
}

// Generator enumerates legal candidate steps for a pool. It is safe to
// share one generator across search threads; it carries only configuration.
type Generator struct {
	noopPruning bool
}

// NewGenerator creates a generator with default options.
func NewGenerator() *Generator {
	return &Generator{noopPruning: true}
}

// SetNoopPruning toggles skipping of combinations that merely restate one
// of their operands (multiplying or dividing by 1). Skipping them never
// changes which targets are reachable, only how fast the search runs and
// which of several equivalent solutions it meets first. On by default.
func (g *Generator) SetNoopPruning(on bool) {
	g.noopPruning = on
}

// NoopPruning returns whether no-op pruning is on.
func (g *Generator) NoopPruning() bool {
	return g.noopPruning
}

// GenAll returns every legal candidate for p, in the fixed order the
// search depends on: for each unordered pair of pool positions (i, j) with
// i < j, taken in pool order, it tries addition, subtraction in both
// directions, multiplication, and division in both directions. The returned
// slice is owned by the caller.
func (g *Generator) GenAll(p *pool.Pool) ([]Candidate, error) {
	n := p.Len()
	if n < 2 {
		return nil, nil
	}
	cands := make([]Candidate, 0, 3*n*(n-1))
	emit := func(i, j int, s step.Step) {
		cands = append(cands, Candidate{Step: s, I: i, J: j})
	}
	for i := 0; i < n-1; i++ {
		a := p.At(i)
		for j := i + 1; j < n; j++ {
			b := p.At(j)

			r, ok, err := Combine(step.Add, a, b)
			if err != nil {
				return nil, err
			}
			if ok {
				emit(i, j, step.New(a, step.Add, b, r))
			}

			if r, ok, _ = Combine(step.Subtract, a, b); ok {
				emit(i, j, step.New(a, step.Subtract, b, r))
			}
			if r, ok, _ = Combine(step.Subtract, b, a); ok {
				emit(i, j, step.New(b, step.Subtract, a, r))
			}

			if !g.noopPruning || (a != 1 && b != 1) {
				r, ok, err = Combine(step.Multiply, a, b)
				if err != nil {
					return nil, err
				}
				if ok {
					emit(i, j, step.New(a, step.Multiply, b, r))
				}
			}

			if !g.noopPruning || b != 1 {
				if r, ok, _ = Combine(step.Divide, a, b); ok {
					emit(i, j, step.New(a, step.Divide, b, r))
				}
			}
			if !g.noopPruning || a != 1 {
				if r, ok, _ = Combine(step.Divide, b, a); ok {
					emit(i, j, step.New(b, step.Divide, a, r))
				}
			}
		}
	}
	return cands, nil
}
