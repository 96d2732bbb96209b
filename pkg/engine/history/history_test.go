package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func snap(ts int64, violations int, mean *float64) Snapshot {
	return Snapshot{Timestamp: ts, Violations: violations, MeanGapDays: mean}
}

func TestNewSnapshot(t *testing.T) {
	s := fifo.Summary{
		Total:       3,
		MeanGapDays: ptr(4.5),
		MaxGapDays:  9,
		ByClient:    []fifo.ClientCount{{Client: "Альфа", Violations: 3, MaxGapDays: 9}},
	}
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	got := NewSnapshot(at, "log.csv", 10, 8, 1, s)
	assert.Equal(t, Snapshot{
		Timestamp:   at.Unix(),
		Source:      "log.csv",
		Records:     10,
		Eligible:    8,
		Issues:      1,
		Violations:  3,
		MeanGapDays: ptr(4.5),
		MaxGapDays:  9,
		Clients:     1,
	}, got)
	assert.Equal(t, at, got.Time())
}

func TestFileBackend(t *testing.T) {
	// 1. Setup
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	b := NewLocalBackend(path)

	// 2. Empty ledger
	got, err := b.Load(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	// 3. Append and window
	for i := int64(1); i <= 4; i++ {
		require.NoError(t, b.Append(ctx, snap(i, int(i), nil)))
	}
	got, err = b.Load(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].Timestamp)
	assert.Equal(t, int64(4), got[1].Timestamp)

	all, err := b.Load(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestFileBackend_SkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"timestamp\":1}\nnot json\n{\"timestamp\":2}\n"), 0644))

	got, err := NewLocalBackend(path).Load(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBlobBackend(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir())
	b := &BlobBackend{Store: store, Key: "ledger/history.jsonl"}

	got, err := b.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, b.Append(ctx, snap(1, 2, ptr(3))))
	require.NoError(t, b.Append(ctx, snap(2, 1, ptr(2))))

	got, err = b.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[1].Violations)
}

func TestNewBackend_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.jsonl")
	b, err := NewBackend(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, &FileBackend{Path: path}, b)
}

func TestClient_Record(t *testing.T) {
	ctx := context.Background()
	c := NewClient(NewLocalBackend(filepath.Join(t.TempDir(), "h.jsonl")))

	first, err := c.Record(ctx, snap(1, 5, ptr(4)))
	require.NoError(t, err)
	assert.Equal(t, DirectionFirst, first.Direction)
	assert.Nil(t, first.Previous)

	second, err := c.Record(ctx, snap(2, 3, ptr(2.5)))
	require.NoError(t, err)
	assert.Equal(t, DirectionBetter, second.Direction)
	assert.Equal(t, -2, second.ViolationsDelta)
	require.NotNil(t, second.MeanGapDelta)
	assert.InDelta(t, -1.5, *second.MeanGapDelta, 1e-9)

	window, err := c.LoadWindow(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestCompare(t *testing.T) {
	prev := snap(1, 2, nil)

	worse := Compare(&prev, snap(2, 4, ptr(1)))
	assert.Equal(t, DirectionWorse, worse.Direction)
	assert.Nil(t, worse.MeanGapDelta, "no mean on the previous run")

	steady := Compare(&prev, snap(2, 2, nil))
	assert.Equal(t, DirectionSteady, steady.Direction)
}

func TestTrends(t *testing.T) {
	got := Trends([]Snapshot{snap(1, 1, nil), snap(2, 3, nil), snap(3, 3, nil)})
	require.Len(t, got, 3)
	assert.Equal(t, DirectionFirst, got[0].Direction)
	assert.Equal(t, DirectionWorse, got[1].Direction)
	assert.Equal(t, int64(2), got[2].Previous.Timestamp)
	assert.Equal(t, DirectionSteady, got[2].Direction)
}

func TestClient_Record_PerSource(t *testing.T) {
	// 1. Setup: one ledger shared by two sources
	ctx := context.Background()
	c := NewClient(NewLocalBackend(filepath.Join(t.TempDir(), "h.jsonl")))
	at := func(ts int64, source string, violations int) Snapshot {
		s := snap(ts, violations, nil)
		s.Source = source
		return s
	}

	// 2. Interleave the runs
	_, err := c.Record(ctx, at(1, "sample.csv", 0))
	require.NoError(t, err)
	prod, err := c.Record(ctx, at(2, "https://prod/sheet", 40))
	require.NoError(t, err)
	sample, err := c.Record(ctx, at(3, "sample.csv", 1))
	require.NoError(t, err)
	prodAgain, err := c.Record(ctx, at(4, "https://prod/sheet", 38))
	require.NoError(t, err)

	// 3. Verify each run is compared with its own source only
	assert.Equal(t, DirectionFirst, prod.Direction)
	assert.Nil(t, prod.Previous)

	assert.Equal(t, DirectionWorse, sample.Direction)
	assert.Equal(t, int64(1), sample.Previous.Timestamp)
	assert.Equal(t, 1, sample.ViolationsDelta)

	assert.Equal(t, DirectionBetter, prodAgain.Direction)
	assert.Equal(t, int64(2), prodAgain.Previous.Timestamp)
	assert.Equal(t, -2, prodAgain.ViolationsDelta)

	// 4. Trends over the window agree
	window, err := c.LoadWindow(ctx, 0)
	require.NoError(t, err)
	trends := Trends(window)
	require.Len(t, trends, 4)
	assert.Equal(t, DirectionFirst, trends[1].Direction)
	assert.Equal(t, DirectionBetter, trends[3].Direction)
}
