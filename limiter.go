package purgequeue

import (
	"go.uber.org/zap"

	"github.com/distfs/purgequeue/clustermap"
)

// updateOpLimitLocked recomputes maxPurgeOps from cluster topology, per
// §4.6. Callers must hold c.mu.
func (c *Core) updateOpLimitLocked(rankMap clustermap.RankMap, osMap clustermap.ObjectStoreMap) {
	var totalPGs uint64
	for _, pool := range rankMap.DataPools() {
		pgNum, ok := osMap.PGNum(pool)
		if !ok {
			// The object-store map can lag the rank map; skip with a
			// warning rather than treating this as an error.
			c.log.Warn("data pool not found in object-store map", zap.Int64("pool", pool))
			continue
		}
		totalPGs += pgNum
	}

	ranks := rankMap.MaxActiveRanks()
	if ranks <= 0 {
		ranks = 1
	}

	limit := uint64(float64(totalPGs) / float64(ranks) * c.config.MaxPurgeOpsPerPG)
	if c.config.MaxPurgeOps != 0 && limit > c.config.MaxPurgeOps {
		limit = c.config.MaxPurgeOps
	}

	c.maxPurgeOps = limit
	c.log.Debug("recomputed purge op limit",
		zap.Uint64("total_pgs", totalPGs),
		zap.Int("ranks", ranks),
		zap.Uint64("max_purge_ops", limit))
}

// UpdateOpLimit recomputes the op ceiling from cluster topology (§4.6).
func (c *Core) UpdateOpLimit(rankMap clustermap.RankMap, osMap clustermap.ObjectStoreMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateOpLimitLocked(rankMap, osMap)
}
