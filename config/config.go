// Package config holds runtime settings for the solver tools, sourced
// from command-line flags, NUMBLE_ environment variables and an optional
// numble.yaml file in the working directory.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/numble/solver"
)

type Config struct {
	v    *viper.Viper
	args []string
}

// Load parses args and binds up the setting sources. Precedence, lowest
// to highest: flag defaults, config file, environment, flags given on
// the command line, then anything changed later with Set. Parsing stops
// at the first non-flag argument; the rest is available from Args, so
// global flags can precede a one-shot shell command.
func (c *Config) Load(args []string) error {
	c.v = viper.New()

	fs := pflag.NewFlagSet("numble", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Int("threads", 1, "search goroutines per solve; 1 is single-threaded")
	fs.Bool("noop-pruning", true, "skip multiplying or dividing by 1 during search")
	fs.Bool("fail-table", true, "remember unsolvable positions across branches")
	fs.Float64("fail-table-mem-fraction", solver.FailTableMemFraction,
		"fraction of system memory the fail table may claim")
	fs.String("archive-path", "./numble.db", "sqlite file recording past solves")
	fs.Bool("archive-enabled", false, "record interactive solves to the archive")
	fs.String("nats-url", "nats://127.0.0.1:4222", "NATS server the solver bot connects to")
	fs.String("nats-subject", "numble.solve", "NATS subject the solver bot serves")
	fs.Bool("debug", false, "debug logging")
	fs.String("cpu-profile", "", "write a CPU profile to this file")
	fs.String("mem-profile", "", "write a memory profile to this file")
	if err := c.v.BindPFlags(fs); err != nil {
		return err
	}

	c.v.SetEnvPrefix("numble")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	c.v.SetConfigName("numble")
	c.v.SetConfigType("yaml")
	c.v.AddConfigPath(".")
	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	return nil
}

// Args returns whatever was left on the command line after the flags.
func (c *Config) Args() []string { return c.args }

func (c *Config) Get(key string) any            { return c.v.Get(key) }
func (c *Config) GetString(key string) string   { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Config) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

// Set overrides a setting for the rest of the session.
func (c *Config) Set(key string, value any) { c.v.Set(key, value) }

// AllSettings returns every setting for display.
func (c *Config) AllSettings() map[string]any { return c.v.AllSettings() }
