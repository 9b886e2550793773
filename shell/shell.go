// Package shell is the interactive front end for the solver. It reads
// commands with readline, dispatches them to the solver, the puzzle
// generator, the batch harness, the archive and the NATS bot, and also
// runs single commands non-interactively for one-shot invocations.
package shell

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/numble/archive"
	"github.com/domino14/numble/batch"
	"github.com/domino14/numble/bot"
	"github.com/domino14/numble/config"
	"github.com/domino14/numble/puzzle"
	"github.com/domino14/numble/solver"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errSolverBusy        = errors.New("a batch is running; stop it or wait for it to finish")
	errNoCurrentPuzzle   = errors.New("no current puzzle; try `new` first")
	errQuitting          = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields splits a command line into the command, its positional
// arguments and its options. Options look like `-name value`; every
// option needs a value.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			lastWasOption = true
			lastOption = fields[idx][1:]
			continue
		}
		if lastWasOption {
			options[lastOption] = append(options[lastOption], fields[idx])
			lastWasOption = false
		} else {
			args = append(args, fields[idx])
		}
	}
	if lastWasOption {
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

type ShellController struct {
	l        *readline.Instance
	config   *config.Config
	execPath string
	version  string

	s            *solver.Solver
	solveLogFile *os.File

	curPuzzle    *puzzle.Puzzle
	lastSolution solver.Solution

	batchCancel     func()
	batchTicker     *time.Ticker
	batchTickerDone chan bool

	archive   *archive.Archive
	botClient *bot.Client
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config, execPath string, gitVersion string) *ShellController {
	sc := &ShellController{config: cfg, execPath: execPath, version: gitVersion}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mnumble>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.s = newConfiguredSolver(cfg)
	return sc
}

func (sc *ShellController) solving() bool {
	return batch.IsBatching.Value() > 0
}

// standardModeSwitch parses one line and runs the matching command. A
// bare number is shorthand for `solve`.
func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	if _, converr := strconv.Atoi(cmd.cmd); converr == nil {
		cmd.args = append([]string{cmd.cmd}, cmd.args...)
		cmd.cmd = "solve"
	}
	switch cmd.cmd {
	case "solve":
		return sc.solve(cmd)
	case "new":
		return sc.newPuzzle(cmd)
	case "show":
		return sc.show(cmd)
	case "reveal":
		return sc.reveal(cmd)
	case "batch":
		return sc.batch(cmd)
	case "set":
		return sc.set(cmd)
	case "archive":
		return sc.archiveCmd(cmd)
	case "bot":
		return sc.botCmd(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "quit", "bye":
		sig <- syscall.SIGINT
		return nil, errQuitting
	default:
		return nil, errors.New("command " + strconv.Quote(cmd.cmd) + " not found")
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, err := sc.standardModeSwitch(line, sig)
		if err == errQuitting {
			break
		} else if err != nil {
			sc.showError(err)
		} else if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}

	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Execute runs a single command line non-interactively and returns the
// process exit code: 0 for a solved puzzle or successful command, 1 when
// the search space is exhausted, 2 for anything malformed.
func (sc *ShellController) Execute(sig chan os.Signal, line string) int {
	defer sc.l.Close()

	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if errors.Is(err, errQuitting) {
			return 0
		}
		if errors.Is(err, solver.ErrNoSolution) {
			writeln("No solution found.", os.Stdout)
			return 1
		}
		writeln("Error: "+err.Error(), os.Stderr)
		return 2
	}
	if resp != nil && resp.message != "" {
		writeln(resp.message, os.Stdout)
	}
	return 0
}

// Cleanup releases everything the session accumulated.
func (sc *ShellController) Cleanup() {
	if sc.batchCancel != nil {
		sc.batchCancel()
	}
	if sc.solveLogFile != nil {
		sc.solveLogFile.Close()
	}
	if sc.archive != nil {
		sc.archive.Close()
	}
	if sc.botClient != nil {
		sc.botClient.Close()
	}
}
