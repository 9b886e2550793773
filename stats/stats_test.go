package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		nodes []int
		mean  float64
		stdev float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, n := range c.nodes {
			s.Push(float64(n))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestMinMax(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, n := range []int{14, 35, 71, 124, 10, 24} {
		s.Push(float64(n))
	}
	is.True(FuzzyEqual(s.Min(), 10))
	is.True(FuzzyEqual(s.Max(), 124))
	is.True(FuzzyEqual(s.Last(), 24))
	is.Equal(s.Iterations(), 6)
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.9599639845))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035))
}

func TestConfidenceInterval(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	is.True(FuzzyEqual(s.ConfidenceInterval(95), 0))
	for _, n := range []int{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(float64(n))
	}
	// Half-width is z times the standard error.
	is.True(FuzzyEqual(s.ConfidenceInterval(95), ZVal(95)*s.StandardError()))
	is.True(s.ConfidenceInterval(95) > 0)
}
