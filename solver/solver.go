// Package solver implements an exhaustive depth-first search for numbers
// game puzzles: combine source numbers two at a time with the four basic
// operations until the target appears. It returns the first solution met
// under a fixed enumeration order, so solves are deterministic.
package solver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/pool"
	"github.com/domino14/numble/step"
)

// FailTableMemFraction is the fraction of system memory the failed-state
// table asks for before clamping.
const FailTableMemFraction = 0.25

// ErrNoSolution is returned when the whole search space is exhausted
// without reaching the target. It is the expected way for a solve to come
// back empty, not an exceptional condition.
var ErrNoSolution = errors.New("no solution found for this puzzle")

// Solution is an ordered list of steps that reaches the target when
// replayed from the initial pool. It is empty when the target is already
// among the sources.
type Solution []step.Step

// String renders the solution one step per line, in application order.
func (sol Solution) String() string {
	return strings.Join(lo.Map(sol, func(s step.Step, _ int) string {
		return s.String()
	}), "\n")
}

// LogBranch is a per-root-branch record serialized to the solver's log
// stream, for debugging and analysis. Nodes is the solver's running node
// count at the moment the branch finished.
type LogBranch struct {
	Branch string `json:"branch" yaml:"branch"`
	Thread int    `json:"thread" yaml:"thread"`
	Nodes  uint64 `json:"nodes" yaml:"nodes"`
	Solved bool   `json:"solved" yaml:"solved"`
}

// Solver searches for step sequences that turn a pool of source numbers
// into a target number. A solver runs one solve at a time; create one per
// concurrent caller.
type Solver struct {
	gen *opgen.Generator

	failTable      *FailTable
	failTableOptim bool
	threads        int

	nodes atomic.Uint64

	logStream io.Writer
	logMx     sync.Mutex

	target    int
	targetKey uint64
}

// Init initializes the solver. A nil generator gets default options.
func (s *Solver) Init(gen *opgen.Generator) error {
	if gen == nil {
		gen = opgen.NewGenerator()
	}
	s.gen = gen
	s.failTableOptim = true
	s.threads = 1
	return nil
}

// SetThreads sets how many workers share the root branches. Anything below
// 2 keeps the solve single-threaded.
func (s *Solver) SetThreads(threads int) {
	if threads < 2 {
		s.threads = 1
		return
	}
	s.threads = threads
}

// SetFailTableOptim toggles memoization of exhausted states.
func (s *Solver) SetFailTableOptim(optim bool) {
	s.failTableOptim = optim
}

// SetFailTable lets several solvers share one table. Sharing is sound
// because entries are keyed on both pool and target and never go stale.
func (s *Solver) SetFailTable(t *FailTable) {
	s.failTable = t
}

// SetLogStream sets a writer that receives a YAML record per root branch.
func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

// Generator returns the solver's operation generator.
func (s *Solver) Generator() *opgen.Generator {
	return s.gen
}

// Nodes returns how many search nodes the last solve visited.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Solve searches for a sequence of steps that reaches target from sources.
// It returns the first solution under the solver's fixed enumeration
// order; repeated calls with the same arguments return the same solution.
// ErrNoSolution signals an exhausted search space. The context is checked
// at every node; the search imposes no deadline of its own.
func (s *Solver) Solve(ctx context.Context, target int, sources []int) (Solution, error) {
	if s.gen == nil {
		return nil, errors.New("solver was not initialized")
	}
	for _, v := range sources {
		if v < 1 {
			return nil, fmt.Errorf("source numbers must be positive; got %d", v)
		}
	}
	log.Debug().Int("target", target).Ints("sources", sources).
		Int("threads", s.threads).Bool("fail-table", s.failTableOptim).
		Msg("solve-config")
	tstart := time.Now()
	s.target = target
	var kb [8]byte
	binary.LittleEndian.PutUint64(kb[:], uint64(target))
	s.targetKey = xxhash.Sum64(kb[:])
	s.nodes.Store(0)
	if s.failTableOptim && s.failTable == nil {
		s.failTable = &FailTable{}
		s.failTable.Reset(FailTableMemFraction)
	}

	root := pool.New(sources)
	var sol Solution
	var err error
	if s.threads > 1 {
		sol, err = s.parallelSolve(ctx, root)
	} else {
		sol, err = s.sequentialSolve(ctx, root)
	}
	if err != nil {
		return nil, err
	}

	logev := log.Debug().
		Uint64("nodes", s.nodes.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds())
	if s.failTableOptim {
		logev = logev.
			Uint64("fail-table-stored", s.failTable.stored.Load()).
			Uint64("fail-table-lookups", s.failTable.lookups.Load()).
			Uint64("fail-table-hits", s.failTable.hits.Load())
	}
	logev.Bool("solved", sol != nil).Msg("solve-returning")

	if sol == nil {
		return nil, ErrNoSolution
	}
	return sol, nil
}

// sequentialSolve walks the root branches one by one, depth first.
func (s *Solver) sequentialSolve(ctx context.Context, root *pool.Pool) (Solution, error) {
	s.nodes.Add(1)
	if root.Contains(s.target) {
		return Solution{}, nil
	}
	cands, err := s.gen.GenAll(root)
	if err != nil {
		return nil, err
	}
	line := make([]step.Step, 0, root.Len())
	for i := range cands {
		c := &cands[i]
		child := root.Combine(c.I, c.J, c.Step.Result())
		line = append(line[:0], c.Step)
		sol, err := s.search(ctx, child, line)
		if err != nil {
			return nil, err
		}
		s.logBranch(c.Step, 0, sol != nil)
		if sol != nil {
			return sol, nil
		}
	}
	return nil, nil
}

// parallelSolve distributes the root branches over an errgroup. Each branch
// runs its own sequential search, and results are read off in branch
// order, so the returned solution is exactly the single-threaded one.
func (s *Solver) parallelSolve(ctx context.Context, root *pool.Pool) (Solution, error) {
	s.nodes.Add(1)
	if root.Contains(s.target) {
		return Solution{}, nil
	}
	cands, err := s.gen.GenAll(root)
	if err != nil {
		return nil, err
	}
	results := make([]Solution, len(cands))
	jobs := make(chan int, len(cands))
	for i := range cands {
		jobs <- i
	}
	close(jobs)
	// Lowest branch index known to hold a solution. Workers skip branches
	// that can no longer come first; branches at or below it still finish,
	// which keeps the order contract intact.
	var best atomic.Int64
	best.Store(int64(len(cands)))
	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < s.threads; t++ {
		t := t
		g.Go(func() error {
			for idx := range jobs {
				if int64(idx) > best.Load() {
					continue
				}
				c := &cands[idx]
				child := root.Combine(c.I, c.J, c.Step.Result())
				line := make([]step.Step, 0, root.Len())
				line = append(line, c.Step)
				sol, err := s.search(gctx, child, line)
				if err != nil {
					return err
				}
				s.logBranch(c.Step, t, sol != nil)
				if sol != nil {
					results[idx] = sol
					for {
						cur := best.Load()
						if int64(idx) >= cur || best.CompareAndSwap(cur, int64(idx)) {
							break
						}
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, sol := range results {
		if sol != nil {
			return sol, nil
		}
	}
	return nil, nil
}

// search runs the depth-first recursion below one root branch. It returns
// the solution found in this subtree (a copy of the line that reached the
// target), or nil if the subtree is exhausted. err is non-nil only on
// overflow or context cancellation.
func (s *Solver) search(ctx context.Context, p *pool.Pool, line []step.Step) (Solution, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.nodes.Add(1)
	if p.Contains(s.target) {
		sol := make(Solution, len(line))
		copy(sol, line)
		return sol, nil
	}
	if p.Len() < 2 {
		return nil, nil
	}
	var key uint64
	if s.failTableOptim {
		key = p.Key() ^ s.targetKey
		if s.failTable.lookup(key) {
			return nil, nil
		}
	}
	cands, err := s.gen.GenAll(p)
	if err != nil {
		return nil, err
	}
	for i := range cands {
		c := &cands[i]
		child := p.Combine(c.I, c.J, c.Step.Result())
		line = append(line, c.Step)
		sol, err := s.search(ctx, child, line)
		line = line[:len(line)-1]
		if err != nil {
			return nil, err
		}
		if sol != nil {
			return sol, nil
		}
	}
	if s.failTableOptim {
		s.failTable.store(key)
	}
	return nil, nil
}

func (s *Solver) logBranch(branch step.Step, thread int, solved bool) {
	if s.logStream == nil {
		return
	}
	lb := LogBranch{
		Branch: branch.String(),
		Thread: thread,
		Nodes:  s.nodes.Load(),
		Solved: solved,
	}
	out, err := yaml.Marshal([]LogBranch{lb})
	if err != nil {
		log.Error().Err(err).Msg("marshalling log")
		return
	}
	s.logMx.Lock()
	defer s.logMx.Unlock()
	s.logStream.Write(out)
}
