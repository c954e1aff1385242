package objectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/distfs/purgequeue/intent"
)

func TestMemoryRecordsCalls(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Remove(ctx, "oid1", Locator{PoolID: 3}, intent.NullSnapContext, time.Now(), 0))
	require.NoError(t, m.PurgeRange(ctx, 0x100, intent.Layout{PoolID: 3}, intent.NullSnapContext, 0, 2, time.Now(), 0))

	calls := m.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "remove", calls[0].Op)
	require.Equal(t, "purge_range", calls[1].Op)
}

func TestMemoryFailStillRecordsCall(t *testing.T) {
	m := NewMemory()
	m.Fail = errors.New("boom")

	err := m.Remove(context.Background(), "oid1", Locator{PoolID: 3}, intent.NullSnapContext, time.Now(), 0)
	require.Error(t, err)
	require.Len(t, m.Calls(), 1)
}
