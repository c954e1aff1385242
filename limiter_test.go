package purgequeue

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distfs/purgequeue/clustermap"
)

func TestUpdateOpLimitComputesFromTopology(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPurgeOpsPerPG = 0.5
	c := NewCore(zaptest.NewLogger(t), nil, nil, 9, cfg)

	rankMap := clustermap.StaticRankMap{Ranks: 2, Pools: []int64{1, 2}}
	osMap := clustermap.StaticObjectStoreMap{1: 64, 2: 64}

	c.UpdateOpLimit(rankMap, osMap)

	// (64+64)/2 ranks * 0.5 = 32
	require.Equal(t, uint64(32), c.maxPurgeOps)
}

func TestUpdateOpLimitSkipsUnknownPools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPurgeOpsPerPG = 1.0
	c := NewCore(zaptest.NewLogger(t), nil, nil, 9, cfg)

	rankMap := clustermap.StaticRankMap{Ranks: 1, Pools: []int64{1, 2}}
	osMap := clustermap.StaticObjectStoreMap{1: 64}

	c.UpdateOpLimit(rankMap, osMap)
	require.Equal(t, uint64(64), c.maxPurgeOps)
}

func TestUpdateOpLimitClampsToMaxPurgeOps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPurgeOpsPerPG = 1.0
	cfg.MaxPurgeOps = 10
	c := NewCore(zaptest.NewLogger(t), nil, nil, 9, cfg)

	rankMap := clustermap.StaticRankMap{Ranks: 1, Pools: []int64{1}}
	osMap := clustermap.StaticObjectStoreMap{1: 64}

	c.UpdateOpLimit(rankMap, osMap)
	require.Equal(t, uint64(10), c.maxPurgeOps)
}

func TestUpdateOpLimitZeroRanksTreatedAsOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPurgeOpsPerPG = 1.0
	c := NewCore(zaptest.NewLogger(t), nil, nil, 9, cfg)

	rankMap := clustermap.StaticRankMap{Ranks: 0, Pools: []int64{1}}
	osMap := clustermap.StaticObjectStoreMap{1: 64}

	c.UpdateOpLimit(rankMap, osMap)
	require.Equal(t, uint64(64), c.maxPurgeOps)
}
