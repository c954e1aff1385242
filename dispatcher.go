package purgequeue

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/distfs/purgequeue/intent"
	"github.com/distfs/purgequeue/objectstore"
)

// dispatchLocked translates one intent into a set of object-store ops
// and launches them concurrently, per §4.4. Callers must hold c.mu; it
// returns having only started the work — completion arrives later via
// completeLocked, invoked from the gather's goroutine.
func (c *Core) dispatchLocked(ctx context.Context, it intent.Intent, expireTo uint64) {
	if !it.Action.Known() {
		// §7: logged, dropped, the journal offset is not reported as
		// errored. We never add it to InFlightMap or ops_in_flight in
		// the first place, which keeps invariant 2 (ops_in_flight
		// equals the exact sum of in-flight costs) exact — the
		// original source increments the cost before discovering the
		// action is unknown and never subtracts it back out, a latent
		// accounting leak we deliberately do not reproduce (see
		// DESIGN.md).
		c.log.Warn("dropping intent with unknown action",
			zap.Uint64("ino", it.Ino), zap.Uint8("action", uint8(it.Action)))
		return
	}

	cost := opCost(it, c.config.FilerMaxPurgeOps)
	c.inflight.insert(expireTo, it, cost)
	c.opsInFlight += cost
	c.stats.setExecuting(c.opsInFlight, c.inflight.len())

	calls := c.buildOps(it)

	var group errgroup.Group
	for _, call := range calls {
		call := call
		group.Go(func() error {
			if err := call(ctx); err != nil {
				// §7: object-store op failures are absorbed into the
				// gather; a purge is best-effort and idempotent.
				c.log.Warn("object-store op failed, purge proceeds best-effort", zap.Error(err))
			}
			return nil
		})
	}

	go func() {
		_ = group.Wait()
		c.mu.Lock()
		c.completeLocked(ctx, expireTo)
		c.cond.Broadcast()
		c.mu.Unlock()
	}()
}

type objectOp func(ctx context.Context) error

// buildOps returns the object-store operations a known-action intent
// requires, per §4.4.
func (c *Core) buildOps(it intent.Intent) []objectOp {
	switch it.Action {
	case intent.PurgeFile:
		return c.buildPurgeFileOps(it)
	case intent.PurgeDir:
		return c.buildPurgeDirOps(it)
	case intent.TruncateFile:
		return c.buildTruncateFileOps(it)
	default:
		return nil
	}
}

func (c *Core) buildPurgeFileOps(it intent.Intent) []objectOp {
	var ops []objectOp
	now := time.Now()

	purgedAny := it.Size > 0
	if purgedAny {
		num := intent.StripeCount(it.Layout, it.Size)
		ops = append(ops, func(ctx context.Context) error {
			return c.objects.PurgeRange(ctx, it.Ino, it.Layout, it.Snapc, 0, num, now, 0)
		})
	}

	// The stripe purge above already removes object 0, which carries
	// the backtrace, whenever it ran and there is no separate pool
	// namespace for the backtrace object. Skipping the redundant
	// remove in that case is an optional fast path matching the
	// original source; see DESIGN.md for the Open Question it settles.
	skipBacktrace := purgedAny && !it.Layout.HasNamespace() && c.config.BacktraceFastPathSkipsZeroObjectRemoval
	if !skipBacktrace {
		oid := intent.BacktraceObjectID(it.Ino)
		loc := objectstore.Locator{PoolID: it.Layout.PoolID, Namespace: it.Layout.Namespace}
		ops = append(ops, func(ctx context.Context) error {
			return c.objects.Remove(ctx, oid, loc, it.Snapc, now, 0)
		})
	}

	for _, pool := range it.OldPools {
		pool := pool
		oid := intent.BacktraceObjectID(it.Ino)
		loc := objectstore.Locator{PoolID: pool}
		ops = append(ops, func(ctx context.Context) error {
			return c.objects.Remove(ctx, oid, loc, it.Snapc, now, 0)
		})
	}

	return ops
}

func (c *Core) buildPurgeDirOps(it intent.Intent) []objectOp {
	now := time.Now()
	loc := objectstore.Locator{PoolID: c.metadataPool}

	frags := append([]intent.Frag{}, it.FragTree.Leaves...)
	frags = append(frags, intent.RootFrag)

	ops := make([]objectOp, 0, len(frags))
	for _, frag := range frags {
		frag := frag
		oid := intent.DirfragObjectID(it.Ino, frag)
		ops = append(ops, func(ctx context.Context) error {
			return c.objects.Remove(ctx, oid, loc, intent.NullSnapContext, now, 0)
		})
	}
	return ops
}

func (c *Core) buildTruncateFileOps(it intent.Intent) []objectOp {
	now := time.Now()
	num := intent.StripeCount(it.Layout, it.Size)

	var ops []objectOp
	if num > 1 {
		ops = append(ops, func(ctx context.Context) error {
			return c.objects.PurgeRange(ctx, it.Ino, it.Layout, it.Snapc, 1, num-1, now, 0)
		})
	}
	ops = append(ops, func(ctx context.Context) error {
		return c.objects.Zero(ctx, it.Ino, it.Layout, it.Snapc, 0, it.Layout.ObjectSize, now, 0, true)
	})
	return ops
}
