package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distfs/purgequeue/intent"
)

func TestDiskRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(zaptest.NewLogger(t), dir)
	require.NoError(t, err)

	loc := Locator{PoolID: 3}
	oid := intent.BacktraceObjectID(0x100)
	path := filepath.Join(dir, "pool-3", string(oid))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	ctx := context.Background()
	require.NoError(t, d.Remove(ctx, oid, loc, intent.NullSnapContext, time.Now(), 0))
	require.Equal(t, int64(1), d.Removed())

	// Removing again must not error: purges are idempotent.
	require.NoError(t, d.Remove(ctx, oid, loc, intent.NullSnapContext, time.Now(), 0))
}

func TestDiskPurgeRangeRemovesAllNamedObjects(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(zaptest.NewLogger(t), dir)
	require.NoError(t, err)

	layout := intent.Layout{PoolID: 3}
	poolDir := filepath.Join(dir, "pool-3")
	require.NoError(t, os.MkdirAll(poolDir, 0o700))

	for n := uint64(0); n < 3; n++ {
		name := filepath.Join(poolDir, string(intent.StripeObjectID(0x200, n)))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o600))
	}

	ctx := context.Background()
	require.NoError(t, d.PurgeRange(ctx, 0x200, layout, intent.NullSnapContext, 0, 3, time.Now(), 0))
	require.Equal(t, int64(3), d.Removed())

	entries, err := os.ReadDir(poolDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
