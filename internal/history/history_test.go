package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	first := Entry{
		ID: "a", Trigger: "build", StartedAt: base, FinishedAt: base.Add(time.Second),
		Scanned: 4, Selected: 4, ManifestWritten: true, Status: StatusSuccess,
	}
	second := Entry{
		ID: "b", Trigger: "watch", Force: true, StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + 500*time.Millisecond),
		Scanned: 4, Selected: 1, Failed: 1, Status: StatusPartial, Error: "photo bar: corrupt",
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	if diff := cmp.Diff([]Entry{second, first}, got); diff != "" {
		t.Fatalf("Recent() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 500*time.Millisecond, got[0].Duration())

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "b", limited[0].ID)
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.Record(context.Background(), Entry{ID: "x", Trigger: "build", StartedAt: now, FinishedAt: now, Status: StatusSuccess}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRecordDuplicateID(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := Entry{ID: "dup", Trigger: "build", StartedAt: time.Now(), FinishedAt: time.Now(), Status: StatusSuccess}
	require.NoError(t, store.Record(context.Background(), e))
	require.Error(t, store.Record(context.Background(), e))
}
