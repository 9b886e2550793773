// Package bot serves the solver over NATS. Clients publish a JSON
// puzzle request and get the worked solution back on the reply subject.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/numble/config"
	"github.com/domino14/numble/expression"
	"github.com/domino14/numble/opgen"
	"github.com/domino14/numble/solver"
	"github.com/domino14/numble/step"
)

const (
	// DefaultSolveTimeout bounds one request's search. It sits under the
	// client's request timeout so the reply still makes it back.
	DefaultSolveTimeout = 9 * time.Second
	MaxSolveTimeout     = 60 * time.Second
)

// SolveRequest is the payload a client publishes.
type SolveRequest struct {
	Target  int   `json:"target"`
	Sources []int `json:"sources"`
	// TimeoutMs optionally overrides the server's solve timeout.
	TimeoutMs int `json:"timeoutMs,omitempty"`
}

// SolveResponse is the reply. Found false with an empty Error means the
// search space was exhausted; a non-empty Error means the request itself
// failed.
type SolveResponse struct {
	Found      bool     `json:"found"`
	Steps      []string `json:"steps,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Nodes      uint64   `json:"nodes"`
	ElapsedUs  int64    `json:"elapsedUs"`
	Error      string   `json:"error,omitempty"`
}

type Bot struct {
	cfg *config.Config
	s   *solver.Solver
}

func NewBot(cfg *config.Config) (*Bot, error) {
	bot := &Bot{}
	bot.cfg = cfg
	gen := opgen.NewGenerator()
	gen.SetNoopPruning(cfg.GetBool("noop-pruning"))
	s := &solver.Solver{}
	if err := s.Init(gen); err != nil {
		return nil, err
	}
	s.SetThreads(cfg.GetInt("threads"))
	s.SetFailTableOptim(cfg.GetBool("fail-table"))
	if frac := cfg.GetFloat64("fail-table-mem-fraction"); frac > 0 && cfg.GetBool("fail-table") {
		table := &solver.FailTable{}
		table.Reset(frac)
		s.SetFailTable(table)
	}
	bot.s = s
	return bot, nil
}

func errorResponse(message string, err error) *SolveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &SolveResponse{Error: msg}
}

func (bot *Bot) handle(ctx context.Context, data []byte) *SolveResponse {
	var req SolveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("could not parse request", err)
	}
	timeout := DefaultSolveTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
		if timeout > MaxSolveTimeout {
			timeout = MaxSolveTimeout
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tstart := time.Now()
	sol, err := bot.s.Solve(ctx, req.Target, req.Sources)
	resp := &SolveResponse{
		Nodes:     bot.s.Nodes(),
		ElapsedUs: time.Since(tstart).Microseconds(),
	}
	if err != nil {
		if errors.Is(err, solver.ErrNoSolution) {
			return resp
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			resp.Error = "search timed out"
			return resp
		}
		return errorResponse("solve failed", err)
	}
	if err := solver.Verify(req.Target, req.Sources, sol); err != nil {
		return errorResponse("solution failed verification", err)
	}
	resp.Found = true
	resp.Steps = lo.Map(sol, func(st step.Step, _ int) string {
		return st.String()
	})
	expr, err := expression.Render(req.Target, req.Sources, sol)
	if err != nil {
		return errorResponse("could not render expression", err)
	}
	resp.Expression = expr
	return resp
}

// Main connects to NATS, subscribes on subject and serves until the
// process is killed.
func Main(subject string, bot *Bot) {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(bot.cfg.GetString("nats-url"))
			return err
		},
		retry.Attempts(5),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("nats-connect-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to NATS")
	}
	nc.Subscribe(subject, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.handle(context.Background(), m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, ideally, but we need to do something sensible here.
			m.Respond([]byte(err.Error()))
		} else {
			m.Respond(data)
		}
	})
	nc.Flush()

	if err := nc.LastError(); err != nil {
		log.Fatal().Err(err).Msg("nats subscription failed")
	}

	log.Info().Msgf("Listening on [%s]", subject)

	runtime.Goexit()
}
