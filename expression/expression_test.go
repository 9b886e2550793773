package expression

import (
	"context"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/solver"
	"github.com/domino14/numble/step"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestRenderSingleSteps(t *testing.T) {
	is := is.New(t)
	type tc struct {
		target int
		st     step.Step
		want   string
	}
	cases := []tc{
		{375, step.New(75, step.Multiply, 5, 375), "75 × 5"},
		{80, step.New(75, step.Add, 5, 80), "75 + 5"},
		{15, step.New(75, step.Divide, 5, 15), "75 ÷ 5"},
		{70, step.New(75, step.Subtract, 5, 70), "75 - 5"},
		{14, step.New(7, step.Add, 7, 14), "7 + 7"},
	}
	for _, c := range cases {
		got, err := Render(c.target, []int{5, 75, 7, 7}, []step.Step{c.st})
		is.NoErr(err)
		is.Equal(got, c.want)
	}
}

func TestRenderZeroSteps(t *testing.T) {
	is := is.New(t)
	got, err := Render(7, []int{1, 2, 7, 75}, nil)
	is.NoErr(err)
	is.Equal(got, "7")
}

func TestRenderBracketsOnlyWhereNeeded(t *testing.T) {
	is := is.New(t)
	got, err := Render(876, []int{25, 100, 50, 75, 10, 3}, []step.Step{
		step.New(100, step.Divide, 50, 2),
		step.New(75, step.Subtract, 2, 73),
		step.New(10, step.Add, 3, 13),
		step.New(25, step.Subtract, 13, 12),
		step.New(73, step.Multiply, 12, 876),
	})
	is.NoErr(err)
	is.Equal(got, "(75 - 100 ÷ 50) × (25 - (10 + 3))")

	got, err = Render(591, []int{3, 8, 10, 25, 50, 100}, []step.Step{
		step.New(50, step.Subtract, 8, 42),
		step.New(100, step.Divide, 25, 4),
		step.New(10, step.Add, 4, 14),
		step.New(42, step.Multiply, 14, 588),
		step.New(588, step.Add, 3, 591),
	})
	is.NoErr(err)
	is.Equal(got, "(50 - 8) × (10 + 100 ÷ 25) + 3")
}

func TestRenderBracketsDivisionRight(t *testing.T) {
	is := is.New(t)
	// Any compound right side of a division needs brackets.
	got, err := Render(20, []int{100, 10, 2}, []step.Step{
		step.New(10, step.Divide, 2, 5),
		step.New(100, step.Divide, 5, 20),
	})
	is.NoErr(err)
	is.Equal(got, "100 ÷ (10 ÷ 2)")
}

func TestRenderErrors(t *testing.T) {
	is := is.New(t)
	_, err := Render(12, []int{100, 3}, []step.Step{step.New(9, step.Add, 3, 12)})
	is.True(err != nil)
	_, err = Render(741, []int{100, 3}, []step.Step{step.New(100, step.Subtract, 3, 97)})
	is.True(err != nil)
}

func TestRenderSolverSolution(t *testing.T) {
	is := is.New(t)
	s := &solver.Solver{}
	s.Init(opgen.NewGenerator())
	sources := []int{100, 3, 5, 7, 10, 25, 100}
	sol, err := s.Solve(context.Background(), 741, sources)
	is.NoErr(err)
	expr, err := Render(741, sources, sol)
	is.NoErr(err)
	is.True(len(expr) > 0)
}
