package opgen

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/numble/pool"
	"github.com/domino14/numble/step"
)

func stepStrings(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Step.String()
	}
	return out
}

func TestGenAllOrder(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	steps, err := g.GenAll(pool.New([]int{2, 3}))
	is.NoErr(err)
	is.Equal(stepStrings(steps), []string{
		"3 + 2 = 5",
		"3 - 2 = 1",
		"3 × 2 = 6",
	})
}

func TestGenAllPositionPairs(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	// Equal values at different positions each pair up; the (2, 2) pair
	// itself yields only addition and multiplication.
	cands, err := g.GenAll(pool.New([]int{2, 2, 3}))
	is.NoErr(err)
	is.Equal(stepStrings(cands), []string{
		"2 + 2 = 4",
		"2 × 2 = 4",
		"3 + 2 = 5",
		"3 - 2 = 1",
		"3 × 2 = 6",
		"3 + 2 = 5",
		"3 - 2 = 1",
		"3 × 2 = 6",
	})
	// Candidates remember which positions they consume.
	is.Equal(cands[2].I, 0)
	is.Equal(cands[2].J, 2)
	is.Equal(cands[5].I, 1)
	is.Equal(cands[5].J, 2)
}

func TestGenAllDivision(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	steps, err := g.GenAll(pool.New([]int{75, 5}))
	is.NoErr(err)
	is.Equal(stepStrings(steps), []string{
		"75 + 5 = 80",
		"75 - 5 = 70",
		"75 × 5 = 375",
		"75 ÷ 5 = 15",
	})
}

func TestGenAllSelfDivisionIllegal(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	for _, pruning := range []bool{true, false} {
		g.SetNoopPruning(pruning)
		steps, err := g.GenAll(pool.New([]int{2, 2}))
		is.NoErr(err)
		// 2 - 2 is not positive and 2 ÷ 2 is self-division; neither may
		// appear whatever the pruning setting.
		is.Equal(stepStrings(steps), []string{
			"2 + 2 = 4",
			"2 × 2 = 4",
		})
	}
}

func TestGenAllNoopPruning(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	steps, err := g.GenAll(pool.New([]int{7, 1}))
	is.NoErr(err)
	is.Equal(stepStrings(steps), []string{
		"7 + 1 = 8",
		"7 - 1 = 6",
	})

	g.SetNoopPruning(false)
	steps, err = g.GenAll(pool.New([]int{7, 1}))
	is.NoErr(err)
	is.Equal(stepStrings(steps), []string{
		"7 + 1 = 8",
		"7 - 1 = 6",
		"7 × 1 = 7",
		"7 ÷ 1 = 7",
	})
}

func TestGenAllTinyPools(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	steps, err := g.GenAll(pool.New([]int{7}))
	is.NoErr(err)
	is.Equal(len(steps), 0)
	steps, err = g.GenAll(pool.New(nil))
	is.NoErr(err)
	is.Equal(len(steps), 0)
}

func TestGenAllOverflow(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	_, err := g.GenAll(pool.New([]int{math.MaxInt, 2}))
	is.True(errors.Is(err, ErrValueOverflow))
}

func TestCombineRules(t *testing.T) {
	is := is.New(t)
	type tc struct {
		op     step.Operation
		a, b   int
		result int
		ok     bool
	}
	cases := []tc{
		{step.Add, 100, 25, 125, true},
		{step.Subtract, 100, 25, 75, true},
		{step.Subtract, 25, 100, 0, false},
		{step.Subtract, 25, 25, 0, false},
		{step.Multiply, 75, 10, 750, true},
		{step.Divide, 750, 5, 150, true},
		{step.Divide, 5, 750, 0, false},
		{step.Divide, 750, 4, 0, false},
		{step.Divide, 2, 2, 0, false},
		{step.Divide, 7, 1, 7, true},
	}
	for _, c := range cases {
		r, ok, err := Combine(c.op, c.a, c.b)
		is.NoErr(err)
		is.Equal(ok, c.ok)
		if ok {
			is.Equal(r, c.result)
		}
	}
}
