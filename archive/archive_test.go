package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestAddAndLast(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	a, err := Open(ctx, filepath.Join(t.TempDir(), "numble.db"))
	is.NoErr(err)
	defer a.Close()

	id1, err := a.Add(ctx, Record{
		Target:     741,
		Sources:    []int{100, 3, 5, 7, 10, 25},
		Found:      true,
		Steps:      4,
		Expression: "(100 + 3) × 7 + 25 - 5",
		Nodes:      1234,
		Micros:     800,
	})
	is.NoErr(err)
	id2, err := a.Add(ctx, Record{
		Target:  733,
		Sources: []int{2, 4, 5, 10, 25, 100},
		Found:   false,
		Nodes:   99000,
		Micros:  52000,
	})
	is.NoErr(err)
	is.True(id2 > id1)

	recs, err := a.Last(ctx, 1)
	is.NoErr(err)
	is.Equal(len(recs), 1)
	is.Equal(recs[0].ID, id2)
	is.Equal(recs[0].Target, 733)
	is.Equal(recs[0].Found, false)

	recs, err = a.Last(ctx, 10)
	is.NoErr(err)
	is.Equal(len(recs), 2)
	is.Equal(recs[0].ID, id2)
	is.Equal(recs[1].ID, id1)
	is.Equal(recs[1].Sources, []int{100, 3, 5, 7, 10, 25})
	is.Equal(recs[1].Expression, "(100 + 3) × 7 + 25 - 5")
	is.Equal(recs[1].Nodes, uint64(1234))
	is.True(!recs[1].CreatedAt.IsZero())
}

func TestCreatedAtRoundTrip(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	a, err := Open(ctx, filepath.Join(t.TempDir(), "numble.db"))
	is.NoErr(err)
	defer a.Close()

	t0 := time.Unix(1700000000, 0).UTC()
	_, err = a.Add(ctx, Record{CreatedAt: t0, Target: 5, Sources: []int{2, 3}, Found: true, Steps: 1})
	is.NoErr(err)
	recs, err := a.Last(ctx, 1)
	is.NoErr(err)
	is.True(recs[0].CreatedAt.Equal(t0))
}

func TestStats(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	a, err := Open(ctx, filepath.Join(t.TempDir(), "numble.db"))
	is.NoErr(err)
	defer a.Close()

	s, err := a.Stats(ctx)
	is.NoErr(err)
	is.Equal(s.Total, 0)
	is.Equal(s.String(), "the archive is empty")

	for _, rec := range []Record{
		{Target: 741, Sources: []int{100, 3}, Found: true, Micros: 1000},
		{Target: 733, Sources: []int{2, 4}, Found: false, Micros: 2000},
		{Target: 952, Sources: []int{25, 50}, Found: true, Micros: 3000},
	} {
		_, err = a.Add(ctx, rec)
		is.NoErr(err)
	}

	s, err = a.Stats(ctx)
	is.NoErr(err)
	is.Equal(s.Total, 3)
	is.Equal(s.Solved, 2)
	is.Equal(s.MeanMicros, 2000.0)
	is.True(len(s.String()) > 0)
}

func TestReopenKeepsRows(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "numble.db")

	a, err := Open(ctx, path)
	is.NoErr(err)
	_, err = a.Add(ctx, Record{Target: 7, Sources: []int{7}, Found: true})
	is.NoErr(err)
	is.NoErr(a.Close())

	a, err = Open(ctx, path)
	is.NoErr(err)
	defer a.Close()
	recs, err := a.Last(ctx, 5)
	is.NoErr(err)
	is.Equal(len(recs), 1)
	is.Equal(recs[0].Target, 7)
}
