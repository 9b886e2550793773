package solver

import (
	"fmt"

	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/pool"
)

// Verify replays sol from the initial sources and checks everything the
// search promises: each step's operands are available when the step runs,
// every combination is legal and exact, the final step produces the
// target, and the replayed pool holds it. A zero-step solution just needs
// the target among the sources.
func Verify(target int, sources []int, sol Solution) error {
	p := pool.New(sources)
	for idx, st := range sol {
		i, j, ok := findOperands(p, st.A(), st.B())
		if !ok {
			return fmt.Errorf("step %d (%s): operands not available in pool %s", idx+1, st, p)
		}
		r, legal, err := opgen.Combine(st.Op(), st.A(), st.B())
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", idx+1, st, err)
		}
		if !legal {
			return fmt.Errorf("step %d (%s): combination is illegal", idx+1, st)
		}
		if r != st.Result() {
			return fmt.Errorf("step %d (%s): result should be %d", idx+1, st, r)
		}
		p = p.Combine(i, j, r)
	}
	if len(sol) > 0 && sol[len(sol)-1].Result() != target {
		return fmt.Errorf("final step produces %d, not the target %d",
			sol[len(sol)-1].Result(), target)
	}
	if !p.Contains(target) {
		return fmt.Errorf("replay does not reach %d (pool ends as %s)", target, p)
	}
	return nil
}

// findOperands locates two distinct pool positions holding the values a
// and b, earliest first.
func findOperands(p *pool.Pool, a, b int) (int, int, bool) {
	ai := -1
	for k := 0; k < p.Len(); k++ {
		if p.At(k) == a {
			ai = k
			break
		}
	}
	if ai < 0 {
		return 0, 0, false
	}
	for k := 0; k < p.Len(); k++ {
		if k != ai && p.At(k) == b {
			return ai, k, true
		}
	}
	return 0, 0, false
}
