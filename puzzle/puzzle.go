// Package puzzle generates random numbers game puzzles with the numble.wtf
// shape: six sources drawn from a large and a small set, and a three-digit
// target.
package puzzle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/numble/solver"
)

var largeNumbers = []int{25, 50, 75, 100}

const (
	// NumSources is how many source numbers a generated puzzle carries.
	NumSources = 6

	minTarget = 101
	maxTarget = 999
	maxSmall  = 10
)

// ErrNoSolvablePuzzle is returned when repeated generation attempts all
// come up unsolvable. With these parameters that is vanishingly unlikely;
// the cap just keeps a misconfigured caller from looping forever.
var ErrNoSolvablePuzzle = errors.New("could not generate a solvable puzzle")

// Puzzle is a target and the source numbers to reach it from.
type Puzzle struct {
	Target  int   `json:"target" yaml:"target"`
	Sources []int `json:"sources" yaml:"sources"`
}

func (p Puzzle) String() string {
	return fmt.Sprintf("reach %d using %v", p.Target, p.Sources)
}

// Generate creates a puzzle with largeCount numbers drawn without
// replacement from {25, 50, 75, 100}, the rest filled with small numbers
// from 1 to 10 (at most two copies of each), and a target between 101 and
// 999. A largeCount outside 0-4 picks the count at random.
func Generate(largeCount int) Puzzle {
	if largeCount < 0 || largeCount > len(largeNumbers) {
		largeCount = frand.Intn(len(largeNumbers) + 1)
	}
	sources := make([]int, 0, NumSources)
	for _, idx := range frand.Perm(len(largeNumbers))[:largeCount] {
		sources = append(sources, largeNumbers[idx])
	}
	var smallCounts [maxSmall + 1]int
	for len(sources) < NumSources {
		v := frand.Intn(maxSmall) + 1
		if smallCounts[v] == 2 {
			continue
		}
		smallCounts[v]++
		sources = append(sources, v)
	}
	target := minTarget + frand.Intn(maxTarget-minTarget+1)
	return Puzzle{Target: target, Sources: sources}
}

// GenerateSolvable generates puzzles until the solver finds one with a
// solution, up to a fixed attempt cap.
func GenerateSolvable(ctx context.Context, s *solver.Solver, largeCount int) (Puzzle, error) {
	const maxAttempts = 100
	for i := 0; i < maxAttempts; i++ {
		if ctx.Err() != nil {
			return Puzzle{}, ctx.Err()
		}
		p := Generate(largeCount)
		_, err := s.Solve(ctx, p.Target, p.Sources)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, solver.ErrNoSolution) {
			return Puzzle{}, err
		}
		log.Debug().Int("attempt", i).Msgf("generated unsolvable puzzle (%s), retrying", p)
	}
	return Puzzle{}, ErrNoSolvablePuzzle
}
