package shell

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"solve -log true",
			&shellcmd{"solve", nil, CmdOptions{"log": []string{"true"}}},
			nil},
		{"batch stop",
			&shellcmd{"batch", []string{"stop"}, CmdOptions{}},
			nil},
		{"solve 741 100 3 5 -threads 4 -maxtime 30 ",
			&shellcmd{"solve",
				[]string{"741", "100", "3", "5"},
				CmdOptions{"threads": []string{"4"}, "maxtime": []string{"30"}}},
			nil,
		},
		{"script '/tmp/my scripts/gen.lua'",
			&shellcmd{"script", []string{"/tmp/my scripts/gen.lua"}, CmdOptions{}},
			nil},
		{"batch 500 -csv",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestCmdOptions(t *testing.T) {
	is := is.New(t)
	opts := CmdOptions{
		"threads": []string{"4"},
		"log":     []string{"true"},
		"csv":     []string{"a.csv", "b.csv"},
	}
	is.Equal(opts.String("csv"), "a.csv")
	is.Equal(opts.String("missing"), "")

	n, err := opts.Int("threads")
	is.NoErr(err)
	is.Equal(n, 4)
	_, err = opts.Int("missing")
	is.True(err != nil)

	n, err = opts.IntDefault("missing", 7)
	is.NoErr(err)
	is.Equal(n, 7)
	n, err = opts.IntDefault("threads", 7)
	is.NoErr(err)
	is.Equal(n, 4)

	is.True(opts.Bool("log"))
	is.True(!opts.Bool("missing"))

	is.Equal(opts.StringArray("csv"), []string{"a.csv", "b.csv"})
}

func TestParsePuzzleArgs(t *testing.T) {
	is := is.New(t)

	target, sources, err := parsePuzzleArgs([]string{"741", "100", "3", "5", "7", "10", "25"})
	is.NoErr(err)
	is.Equal(target, 741)
	is.Equal(sources, []int{100, 3, 5, 7, 10, 25})

	_, _, err = parsePuzzleArgs([]string{"741"})
	is.True(err != nil)

	_, _, err = parsePuzzleArgs([]string{"741", "ten"})
	is.True(err != nil)
}
