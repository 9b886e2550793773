package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/numble/archive"
	"github.com/domino14/numble/batch"
	"github.com/domino14/numble/bot"
	"github.com/domino14/numble/config"
	"github.com/domino14/numble/expression"
	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/puzzle"
	"github.com/domino14/numble/solver"
)

const (
	// SolveLog receives one YAML record per root branch when solving
	// with -log true.
	SolveLog = "/tmp/numble-solvelog"

	defaultBatchCount  = 100
	newPuzzleDeadline  = 30 * time.Second
	archiveOpDeadline  = 5 * time.Second
	batchStatusEvery   = 10 * time.Second
	defaultArchiveRows = 10
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

// settableKeys are the settings the `set` command accepts.
var settableKeys = []string{
	"threads", "noop-pruning", "fail-table", "fail-table-mem-fraction",
	"archive-enabled", "archive-path", "nats-url", "nats-subject", "debug",
}

func newConfiguredSolver(cfg *config.Config) *solver.Solver {
	gen := opgen.NewGenerator()
	gen.SetNoopPruning(cfg.GetBool("noop-pruning"))
	s := &solver.Solver{}
	if err := s.Init(gen); err != nil {
		panic(err)
	}
	s.SetThreads(cfg.GetInt("threads"))
	s.SetFailTableOptim(cfg.GetBool("fail-table"))
	if frac := cfg.GetFloat64("fail-table-mem-fraction"); frac > 0 && cfg.GetBool("fail-table") {
		table := &solver.FailTable{}
		table.Reset(frac)
		s.SetFailTable(table)
	}
	return s
}

// parsePuzzleArgs turns ["741" "100" "3" ...] into a target and sources.
func parsePuzzleArgs(args []string) (int, []int, error) {
	ints := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return 0, nil, fmt.Errorf("could not parse %q as a number", a)
		}
		ints[i] = v
	}
	if len(ints) < 2 {
		return 0, nil, errors.New("need a target and at least one source number")
	}
	return ints[0], ints[1:], nil
}

// puzzleFromCmd picks the puzzle out of the command args, falling back
// to the current puzzle.
func (sc *ShellController) puzzleFromCmd(cmd *shellcmd) (int, []int, error) {
	if len(cmd.args) == 0 {
		if sc.curPuzzle == nil {
			return 0, nil, errNoCurrentPuzzle
		}
		return sc.curPuzzle.Target, sc.curPuzzle.Sources, nil
	}
	return parsePuzzleArgs(cmd.args)
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errSolverBusy
	}
	target, sources, err := sc.puzzleFromCmd(cmd)
	if err != nil {
		return nil, err
	}

	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt("threads"))
	if err != nil {
		return nil, err
	}
	maxtime, err := cmd.options.IntDefault("maxtime", 0)
	if err != nil {
		return nil, err
	}
	sc.s.SetThreads(threads)
	sc.s.SetFailTableOptim(sc.config.GetBool("fail-table") && !cmd.options.Bool("disable-failtable"))
	sc.s.Generator().SetNoopPruning(sc.config.GetBool("noop-pruning") && !cmd.options.Bool("disable-pruning"))

	if cmd.options.Bool("log") {
		sc.solveLogFile, err = os.Create(SolveLog)
		if err != nil {
			return nil, err
		}
		sc.s.SetLogStream(sc.solveLogFile)
		sc.showMessage("solve will log to " + SolveLog)
		defer func() {
			sc.s.SetLogStream(nil)
			sc.solveLogFile.Close()
			sc.solveLogFile = nil
		}()
	}

	ctx := context.Background()
	if maxtime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(maxtime)*time.Second)
		defer cancel()
	}

	tstart := time.Now()
	sol, solveErr := sc.s.Solve(ctx, target, sources)
	sc.recordSolve(target, sources, sol, solveErr, time.Since(tstart))
	if solveErr != nil {
		return nil, solveErr
	}
	if err := solver.Verify(target, sources, sol); err != nil {
		return nil, err
	}
	sc.lastSolution = sol
	return renderSolve(target, sources, sol)
}

func renderSolve(target int, sources []int, sol solver.Solution) (*Response, error) {
	expr, err := expression.Render(target, sources, sol)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if len(sol) > 0 {
		sb.WriteString(sol.String())
		sb.WriteString("\n")
	}
	sb.WriteString(expr + " = " + strconv.Itoa(target))
	return msg(sb.String()), nil
}

// recordSolve writes the attempt to the archive when archiving is on.
// Archive trouble is logged, never surfaced; it must not break a solve.
func (sc *ShellController) recordSolve(target int, sources []int, sol solver.Solution,
	solveErr error, elapsed time.Duration) {

	if !sc.config.GetBool("archive-enabled") {
		return
	}
	if solveErr != nil && !errors.Is(solveErr, solver.ErrNoSolution) {
		return
	}
	if err := sc.ensureArchive(); err != nil {
		log.Warn().Err(err).Msg("could not open archive")
		return
	}
	rec := archive.Record{
		Target:  target,
		Sources: sources,
		Nodes:   sc.s.Nodes(),
		Micros:  elapsed.Microseconds(),
	}
	if solveErr == nil {
		rec.Found = true
		rec.Steps = len(sol)
		if expr, err := expression.Render(target, sources, sol); err == nil {
			rec.Expression = expr
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOpDeadline)
	defer cancel()
	if _, err := sc.archive.Add(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("could not archive solve")
	}
}

func (sc *ShellController) ensureArchive() error {
	if sc.archive != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOpDeadline)
	defer cancel()
	a, err := archive.Open(ctx, sc.config.GetString("archive-path"))
	if err != nil {
		return err
	}
	sc.archive = a
	return nil
}

func (sc *ShellController) newPuzzle(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errSolverBusy
	}
	large, err := cmd.options.IntDefault("large", -1)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), newPuzzleDeadline)
	defer cancel()
	p, err := puzzle.GenerateSolvable(ctx, sc.s, large)
	if err != nil {
		return nil, err
	}
	sc.curPuzzle = &p
	sc.lastSolution = nil
	return msg(p.String()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.curPuzzle == nil {
		return nil, errNoCurrentPuzzle
	}
	return msg(sc.curPuzzle.String()), nil
}

func (sc *ShellController) reveal(cmd *shellcmd) (*Response, error) {
	if sc.solving() {
		return nil, errSolverBusy
	}
	if sc.curPuzzle == nil {
		return nil, errNoCurrentPuzzle
	}
	sol, err := sc.s.Solve(context.Background(), sc.curPuzzle.Target, sc.curPuzzle.Sources)
	if err != nil {
		return nil, err
	}
	sc.lastSolution = sol
	return renderSolve(sc.curPuzzle.Target, sc.curPuzzle.Sources, sol)
}

func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		if sc.batchCancel == nil || !sc.solving() {
			return nil, errors.New("no batch to cancel")
		}
		sc.batchCancel()
		return msg(""), nil
	}
	if sc.solving() {
		return nil, errSolverBusy
	}

	count := defaultBatchCount
	if len(cmd.args) > 0 {
		var err error
		count, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	threads, err := cmd.options.IntDefault("threads", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	large, err := cmd.options.IntDefault("large", -1)
	if err != nil {
		return nil, err
	}
	opts := batch.Options{
		Count:      count,
		Threads:    threads,
		LargeCount: large,
		CSVPath:    cmd.options.String("csv"),
	}

	var ctx context.Context
	ctx, sc.batchCancel = context.WithCancel(context.Background())
	sc.batchTicker = time.NewTicker(batchStatusEvery)
	sc.batchTickerDone = make(chan bool)

	go func() {
		for {
			select {
			case <-sc.batchTickerDone:
				return
			case <-sc.batchTicker.C:
				log.Info().Msgf("Batch is at %v solves...", batch.SolveCounter.Value())
			}
		}
	}()

	go func() {
		rep, err := batch.Run(ctx, opts)
		sc.batchTicker.Stop()
		sc.batchTickerDone <- true
		if err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage(rep.String())
	}()

	return msg(fmt.Sprintf(
		"Batch of %d puzzles started. Results print when done; `batch stop` cancels.",
		count)), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.settingsDisplay()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(settableKeys, key) {
		return nil, errors.New("no such setting: " + key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	value := cmd.args[1]
	sc.config.Set(key, value)
	switch key {
	case "debug":
		if sc.config.GetBool("debug") {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	case "threads":
		sc.s.SetThreads(sc.config.GetInt("threads"))
	case "noop-pruning":
		sc.s.Generator().SetNoopPruning(sc.config.GetBool("noop-pruning"))
	case "fail-table":
		sc.s.SetFailTableOptim(sc.config.GetBool("fail-table"))
	case "archive-path":
		// Force a reopen at the new path on next use.
		if sc.archive != nil {
			sc.archive.Close()
			sc.archive = nil
		}
	}
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) settingsDisplay() string {
	keys := make([]string, len(settableKeys))
	copy(keys, settableKeys)
	sort.Strings(keys)
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range keys {
		out.WriteString(fmt.Sprintf("  %s: %v\n", key, sc.config.Get(key)))
	}
	return out.String()
}

func (sc *ShellController) archiveCmd(cmd *shellcmd) (*Response, error) {
	if err := sc.ensureArchive(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveOpDeadline)
	defer cancel()

	if len(cmd.args) == 0 || cmd.args[0] == "stats" {
		s, err := sc.archive.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return msg(s.String()), nil
	}
	switch cmd.args[0] {
	case "last":
		n := defaultArchiveRows
		if len(cmd.args) > 1 {
			var err error
			n, err = strconv.Atoi(cmd.args[1])
			if err != nil {
				return nil, err
			}
		}
		recs, err := sc.archive.Last(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return msg("the archive is empty"), nil
		}
		var sb strings.Builder
		for _, rec := range recs {
			sb.WriteString(archiveRow(rec))
			sb.WriteString("\n")
		}
		return msg(strings.TrimRight(sb.String(), "\n")), nil
	default:
		return nil, errors.New("archive takes `stats` or `last <n>`")
	}
}

func archiveRow(rec archive.Record) string {
	result := "no solution"
	if rec.Found {
		result = rec.Expression + " = " + strconv.Itoa(rec.Target)
	}
	return fmt.Sprintf("%5d  %s  reach %d using %v: %s",
		rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.Target,
		rec.Sources, result)
}

func (sc *ShellController) botCmd(cmd *shellcmd) (*Response, error) {
	target, sources, err := sc.puzzleFromCmd(cmd)
	if err != nil {
		return nil, err
	}
	if sc.botClient == nil {
		c, err := bot.NewClient(sc.config.GetString("nats-url"),
			sc.config.GetString("nats-subject"))
		if err != nil {
			return nil, err
		}
		sc.botClient = c
	}
	sc.showMessage("Requesting solution from bot")
	resp, err := sc.botClient.Solve(target, sources)
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return msg("Bot found no solution."), nil
	}
	var sb strings.Builder
	for _, s := range resp.Steps {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	sb.WriteString(resp.Expression + " = " + strconv.Itoa(target))
	sb.WriteString(fmt.Sprintf("\n(bot searched %d nodes in %.2fms)",
		resp.Nodes, float64(resp.ElapsedUs)/1000))
	return msg(sb.String()), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	helptopic := cmd.args[0]
	return usageTopic(helptopic)
}
