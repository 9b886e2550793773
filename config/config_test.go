package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt("threads"), 1)
	is.Equal(c.GetBool("noop-pruning"), true)
	is.Equal(c.GetBool("fail-table"), true)
	is.Equal(c.GetBool("archive-enabled"), false)
	is.Equal(c.GetString("nats-subject"), "numble.solve")
	is.Equal(c.GetBool("debug"), false)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load([]string{"--threads", "4", "--debug", "--archive-path", "/tmp/solves.db"}))
	is.Equal(c.GetInt("threads"), 4)
	is.Equal(c.GetBool("debug"), true)
	is.Equal(c.GetString("archive-path"), "/tmp/solves.db")
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("NUMBLE_THREADS", "8")
	t.Setenv("NUMBLE_NOOP_PRUNING", "false")
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt("threads"), 8)
	is.Equal(c.GetBool("noop-pruning"), false)
}

func TestFlagsBeatEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("NUMBLE_THREADS", "8")
	c := &Config{}
	is.NoErr(c.Load([]string{"--threads", "2"}))
	is.Equal(c.GetInt("threads"), 2)
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "numble.yaml"),
		[]byte("threads: 3\nnats-url: nats://example.com:4222\n"), 0644)
	is.NoErr(err)
	t.Chdir(dir)
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt("threads"), 3)
	is.Equal(c.GetString("nats-url"), "nats://example.com:4222")
}

func TestSetOverrides(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load(nil))
	c.Set("threads", 6)
	is.Equal(c.GetInt("threads"), 6)
}

func TestLoadStopsAtFirstPositional(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load([]string{"741", "100", "3", "5", "7", "10", "25"}))
	is.Equal(c.GetInt("threads"), 1)
	is.Equal(c.Args(), []string{"741", "100", "3", "5", "7", "10", "25"})
}

func TestFlagsBeforeCommand(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load([]string{"--threads", "4", "solve", "741", "100", "3", "-maxtime", "5"}))
	is.Equal(c.GetInt("threads"), 4)
	// Everything after the first positional belongs to the command, even
	// things that look like flags.
	is.Equal(c.Args(), []string{"solve", "741", "100", "3", "-maxtime", "5"})
}
