// Package batch generates random puzzles and pushes them through the
// solver in bulk, collecting solve-rate and performance data.
package batch

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/puzzle"
	"github.com/domino14/numble/solver"
	"github.com/domino14/numble/stats"
)

var (
	SolveCounter *expvar.Int
	IsBatching   *expvar.Int
)

func init() {
	SolveCounter = expvar.NewInt("solveCounter")
	IsBatching = expvar.NewInt("isBatching")
}

// Options configures a batch run.
type Options struct {
	// Count is how many puzzles to generate and solve.
	Count int
	// Threads is the number of worker goroutines; each owns a solver.
	Threads int
	// LargeCount is passed through to the puzzle generator; a value
	// outside 0-4 picks the large-number count at random per puzzle.
	LargeCount int
	// CSVPath, when set, receives one log row per puzzle.
	CSVPath string
}

type result struct {
	puz     puzzle.Puzzle
	found   bool
	steps   int
	nodes   uint64
	elapsed time.Duration
}

func (r result) csvRow() string {
	return fmt.Sprintf("%d,%s,%t,%d,%d,%d\n",
		r.puz.Target, joinInts(r.puz.Sources), r.found, r.steps, r.nodes,
		r.elapsed.Microseconds())
}

func joinInts(vals []int) string {
	return strings.Join(lo.Map(vals, func(v int, _ int) string {
		return strconv.Itoa(v)
	}), " ")
}

// Report aggregates a batch run.
type Report struct {
	Count      int
	Found      int
	TotalNodes uint64
	Nodes      stats.Statistic
	Steps      stats.Statistic
	SolveTime  stats.Statistic
	Elapsed    time.Duration

	lengths []float64
}

func (r *Report) add(res result) {
	r.Count++
	if res.found {
		r.Found++
		r.Steps.Push(float64(res.steps))
		r.lengths = append(r.lengths, float64(res.steps))
	}
	r.TotalNodes += res.nodes
	r.Nodes.Push(float64(res.nodes))
	r.SolveTime.Push(res.elapsed.Seconds())
}

// String renders a human-readable summary with a solution-length
// histogram.
func (r *Report) String() string {
	var sb strings.Builder
	p := message.NewPrinter(language.English)
	if r.Count == 0 {
		return "no puzzles were attempted\n"
	}
	p.Fprintf(&sb, "solved %d of %d puzzles (%.2f%%)\n",
		r.Found, r.Count, 100*float64(r.Found)/float64(r.Count))
	p.Fprintf(&sb, "searched %d nodes in total; per puzzle mean %.1f stdev %.1f min %d max %d\n",
		r.TotalNodes, r.Nodes.Mean(), r.Nodes.Stdev(),
		int(r.Nodes.Min()), int(r.Nodes.Max()))
	p.Fprintf(&sb, "solve time: mean %.3fms +/- %.3fms at 95%% confidence\n",
		r.SolveTime.Mean()*1000, r.SolveTime.ConfidenceInterval(95)*1000)
	if len(r.lengths) > 0 {
		sb.WriteString("steps per solution:\n")
		hist := histogram.Hist(6, r.lengths)
		histogram.Fprint(&sb, hist, histogram.Linear(40))
	}
	p.Fprintf(&sb, "total elapsed: %v\n", r.Elapsed.Round(time.Millisecond))
	return sb.String()
}

// Run generates and solves opts.Count random puzzles across opts.Threads
// workers and aggregates a report. Workers share one fail table (sound,
// since entries are keyed on both pool and target). Cancelling the context
// stops the run early and returns the partial report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if IsBatching.Value() > 0 {
		return nil, errors.New("a batch is already running, please wait till complete")
	}
	IsBatching.Add(1)
	defer IsBatching.Add(-1)
	if opts.Count < 1 {
		return nil, errors.New("batch needs a positive puzzle count")
	}
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	var logfile *os.File
	if opts.CSVPath != "" {
		var err error
		logfile, err = os.Create(opts.CSVPath)
		if err != nil {
			return nil, err
		}
	}
	log.Debug().Msgf("Starting %v solves, %v threads", opts.Count, threads)
	SolveCounter.Set(0)
	tstart := time.Now()

	jobs := make(chan int, 100)
	results := make(chan result, 100)
	table := &solver.FailTable{}
	table.Reset(solver.FailTableMemFraction)

	g := &errgroup.Group{}
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			s := &solver.Solver{}
			if err := s.Init(opgen.NewGenerator()); err != nil {
				return err
			}
			s.SetFailTable(table)
			for range jobs {
				p := puzzle.Generate(opts.LargeCount)
				st := time.Now()
				sol, err := s.Solve(ctx, p.Target, p.Sources)
				if err != nil && !errors.Is(err, solver.ErrNoSolution) {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					return err
				}
				results <- result{
					puz:     p,
					found:   err == nil,
					steps:   len(sol),
					nodes:   s.Nodes(),
					elapsed: time.Since(st),
				}
				SolveCounter.Add(1)
			}
			return nil
		})
	}

	go func() {
	jobLoop:
		for i := 0; i < opts.Count; i++ {
			select {
			case <-ctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				break jobLoop
			case jobs <- i:
			}
		}
		close(jobs)
	}()

	rep := &Report{}
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		if logfile != nil {
			logfile.WriteString("target,sources,found,steps,nodes,micros\n")
		}
		for res := range results {
			rep.add(res)
			if logfile != nil {
				logfile.WriteString(res.csvRow())
			}
		}
		if logfile != nil {
			logfile.Close()
		}
	}()

	err := g.Wait()
	close(results)
	<-collectorDone
	if err != nil {
		return nil, err
	}
	rep.Elapsed = time.Since(tstart)
	return rep, nil
}
