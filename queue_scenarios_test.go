package purgequeue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distfs/purgequeue/intent"
	"github.com/distfs/purgequeue/journal"
)

// newTestCore builds a bare Core wired to the given config, suitable for
// exercising buildOps/throttle/completion logic directly without the
// timing uncertainty of the background consume loop.
func newTestCore(t *testing.T, cfg Config) *Core {
	c := NewCore(zaptest.NewLogger(t), nil, nil, 9 /* metadataPool */, cfg)
	return c
}

// S1 — single file purge: purge_range(first=0,count=2) + backtrace remove,
// cost 2+1=3.
func TestScenarioSingleFilePurge(t *testing.T) {
	c := newTestCore(t, DefaultConfig())
	it := intent.Intent{
		Action:   intent.PurgeFile,
		Ino:      0x100,
		Size:     8 << 20,
		Layout:   intent.Layout{StripeUnit: 4 << 20, StripeCount: 1, ObjectSize: 4 << 20, PoolID: 3},
		OldPools: nil,
		Snapc:    intent.NullSnapContext,
	}

	ops := c.buildPurgeFileOps(it)
	require.Len(t, ops, 2)
	require.Equal(t, uint32(3), opCost(it, c.config.FilerMaxPurgeOps))
}

// S2 — truncate preserves backtrace: purge_range(first=1,count=2) + zero.
func TestScenarioTruncatePreservesBacktrace(t *testing.T) {
	c := newTestCore(t, DefaultConfig())
	it := intent.Intent{
		Action: intent.TruncateFile,
		Ino:    0x200,
		Size:   12 << 20,
		Layout: intent.Layout{StripeUnit: 4 << 20, StripeCount: 1, ObjectSize: 4 << 20, PoolID: 3},
		Snapc:  intent.NullSnapContext,
	}

	ops := c.buildTruncateFileOps(it)
	require.Len(t, ops, 2) // purge_range(1, 2) + zero(0, objectSize)

	cost := opCost(it, c.config.FilerMaxPurgeOps)
	require.Equal(t, uint32(4), cost) // min(3,64) + 1
}

// S3 — directory with a fragmented tree: one remove per leaf plus one for
// the root, cost = leaves + 1.
func TestScenarioFragmentedDirectoryPurge(t *testing.T) {
	c := newTestCore(t, DefaultConfig())
	it := intent.Intent{
		Action:   intent.PurgeDir,
		Ino:      0x300,
		FragTree: intent.FragTree{Leaves: []intent.Frag{{Bits: 1, Value: 0}, {Bits: 1, Value: 1}}},
		Snapc:    intent.NullSnapContext,
	}

	ops := c.buildPurgeDirOps(it)
	require.Len(t, ops, 3)
	require.Equal(t, uint32(3), opCost(it, c.config.FilerMaxPurgeOps))
}

// S4 — out-of-order completion: pushing A, B, C at expire_to 100, 200, 300
// then completing B, C, A only advances expire_pos once A (the smallest
// outstanding offset) completes, and then straight to 300.
func TestScenarioOutOfOrderCompletion(t *testing.T) {
	j := journal.NewMemory()
	require.NoError(t, j.Create(context.Background()))
	j.SetWriteable()

	c := newTestCore(t, DefaultConfig())
	c.journal = j

	a := intent.Intent{Action: intent.PurgeFile, Ino: 1, Snapc: intent.NullSnapContext}
	c.inflight.insert(100, a, 1)
	c.inflight.insert(200, a, 1)
	c.inflight.insert(300, a, 1)
	c.opsInFlight = 3

	ctx := context.Background()

	c.completeLocked(ctx, 200)
	require.Equal(t, uint64(0), j.ExpirePos())

	c.completeLocked(ctx, 300)
	require.Equal(t, uint64(0), j.ExpirePos())

	c.completeLocked(ctx, 100)
	require.Equal(t, uint64(300), j.ExpirePos())

	require.True(t, c.inflight.isEmpty())
	require.Equal(t, uint32(0), c.opsInFlight)
}

// S5 — admin pause: max_purge_files=0 blocks all dispatch regardless of
// in-flight state, and raising it again permits dispatch once more.
func TestScenarioAdminPause(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPurgeFiles = 0
	c := newTestCore(t, cfg)

	require.False(t, c.canConsumeLocked())

	c.config.MaxPurgeFiles = 10
	require.True(t, c.canConsumeLocked())
}

// S6 — budget-forcing single huge intent: with max_purge_ops=2, a single
// intent costing 50 is still admitted when the map is empty (forward
// progress guarantee), but nothing further is admitted while it's in
// flight.
func TestScenarioBudgetForcingSingleHugeIntent(t *testing.T) {
	cfg := DefaultConfig()
	c := newTestCore(t, cfg)
	c.maxPurgeOps = 2

	require.True(t, c.canConsumeLocked())

	it := intent.Intent{Action: intent.PurgeFile, Ino: 1, Snapc: intent.NullSnapContext}
	c.inflight.insert(1, it, 50)
	c.opsInFlight = 50

	require.False(t, c.canConsumeLocked())
}
