package bot

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/numble/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testBot(t *testing.T) *Bot {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Load(nil); err != nil {
		t.Fatal(err)
	}
	b, err := NewBot(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func request(t *testing.T, req SolveRequest) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleSolvable(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := b.handle(context.Background(), request(t, SolveRequest{
		Target:  741,
		Sources: []int{100, 3, 5, 7, 10, 25},
	}))
	is.Equal(resp.Error, "")
	is.True(resp.Found)
	is.True(len(resp.Steps) > 0)
	is.True(len(resp.Expression) > 0)
	is.True(resp.Nodes > 0)
}

func TestHandleTargetAlreadyPresent(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := b.handle(context.Background(), request(t, SolveRequest{
		Target:  7,
		Sources: []int{1, 2, 7, 75},
	}))
	is.Equal(resp.Error, "")
	is.True(resp.Found)
	is.Equal(len(resp.Steps), 0)
	is.Equal(resp.Expression, "7")
}

func TestHandleUnsolvable(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := b.handle(context.Background(), request(t, SolveRequest{
		Target:  999,
		Sources: []int{1, 1, 2, 2, 3, 3},
	}))
	is.Equal(resp.Error, "")
	is.Equal(resp.Found, false)
	is.Equal(len(resp.Steps), 0)
}

func TestHandleMalformedPayload(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := b.handle(context.Background(), []byte("{not json"))
	is.True(strings.Contains(resp.Error, "could not parse request"))
}

func TestHandleBadSources(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := b.handle(context.Background(), request(t, SolveRequest{
		Target:  10,
		Sources: []int{0, 5},
	}))
	is.True(strings.Contains(resp.Error, "solve failed"))
}

func TestHandleCancelledContext(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := b.handle(ctx, request(t, SolveRequest{
		Target:  733,
		Sources: []int{2, 4, 5, 10, 25, 100},
	}))
	is.Equal(resp.Error, "search timed out")
	is.Equal(resp.Found, false)
}
