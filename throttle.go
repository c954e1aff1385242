package purgequeue

import "github.com/distfs/purgequeue/intent"

// canConsumeLocked implements the admission-control rule from §4.3.
// Callers must hold c.mu.
func (c *Core) canConsumeLocked() bool {
	if c.config.MaxPurgeFiles == 0 {
		return false
	}
	if c.inflight.isEmpty() {
		// Guarantees forward progress even when a single intent's op
		// cost exceeds maxPurgeOps: without this clause an operator
		// could set the op limit so low that no purge ever starts.
		return true
	}
	if uint64(c.opsInFlight) >= c.maxPurgeOps {
		return false
	}
	if c.inflight.len() >= c.config.MaxPurgeFiles {
		return false
	}
	return true
}

// opCost computes the accounting cost of dispatching it, per §4.4. It
// must be symmetric between dispatch (add) and completion (subtract),
// so it is a pure function of the intent and the filer cap, never of
// mutable throttle state.
func opCost(it intent.Intent, filerMaxPurgeOps uint64) uint32 {
	switch it.Action {
	case intent.PurgeDir:
		return uint32(it.FragTree.DirfragCount())

	case intent.PurgeFile:
		num := intent.StripeCount(it.Layout, it.Size)
		cost := minUint64(num, filerMaxPurgeOps) + 1 + uint64(len(it.OldPools))
		return uint32(cost)

	case intent.TruncateFile:
		num := intent.StripeCount(it.Layout, it.Size)
		cost := minUint64(num, filerMaxPurgeOps) + 1
		return uint32(cost)

	default:
		return 0
	}
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
