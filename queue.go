// Package purgequeue implements a per-rank, persistent, rate-limited
// queue of deferred filesystem-purge intents. A Core owns one journal
// and drains it into an object-store client at a rate bounded by
// cluster topology and operator configuration, surviving restart by
// replaying the journal from its last durable read position.
package purgequeue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/distfs/purgequeue/clustermap"
	"github.com/distfs/purgequeue/intent"
	"github.com/distfs/purgequeue/journal"
	"github.com/distfs/purgequeue/objectstore"
)

// Core is the purge queue for one rank. All mutable state is guarded by
// mu; cond wakes any goroutine blocked in Shutdown waiting for the
// queue to drain.
type Core struct {
	log *zap.Logger

	journal journal.Client
	objects objectstore.Client

	// metadataPool is the pool dirfrag objects live in; PurgeDir never
	// reads it from the intent because dirfrags are never migrated.
	metadataPool int64

	mu   sync.Mutex
	cond *sync.Cond

	config Config

	inflight    *inFlightMap
	opsInFlight uint32
	maxPurgeOps uint64

	opened bool
	closed bool

	stats *queueStats
}

// NewCore constructs a Core bound to the given journal and object
// store. Open must be called before Push.
func NewCore(log *zap.Logger, j journal.Client, objects objectstore.Client, metadataPool int64, config Config) *Core {
	c := &Core{
		log:          log,
		journal:      j,
		objects:      objects,
		metadataPool: metadataPool,
		config:       config,
		inflight:     newInFlightMap(),
		stats:        newQueueStats(),
	}
	c.cond = sync.NewCond(&c.mu)
	mon.Chain(c.stats)
	return c
}

// Open recovers or creates the queue's journal and begins draining it.
// Per §4.1, an empty journal is treated as "nothing to purge" rather
// than an error: a fresh filesystem has no purge backlog to recover.
func (c *Core) Open(ctx context.Context) error {
	err := c.journal.Recover(ctx)
	if errors.Is(err, journal.ErrNotFound) {
		if err := c.journal.Create(ctx); err != nil {
			return Error.Wrap(err)
		}
	} else if err != nil {
		return Error.Wrap(err)
	}
	c.journal.SetWriteable()

	c.mu.Lock()
	c.opened = true
	c.mu.Unlock()

	go c.consumeLoop(ctx)
	return nil
}

// Push appends a new purge intent to the journal. Per §4.2 this is a
// durable append; the caller does not wait for execution.
func (c *Core) Push(ctx context.Context, it intent.Intent) error {
	c.mu.Lock()
	opened := c.opened
	c.mu.Unlock()
	if !opened {
		return ErrNotOpen
	}

	payload, err := intent.Encode(it)
	if err != nil {
		return Error.Wrap(err)
	}
	if err := c.journal.AppendEntry(payload); err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(c.journal.Flush(ctx))
}

// consumeLoop is the queue's single background driver: it alternates
// between draining everything currently readable and blocking for more
// work, until the context is canceled. "More work" means either the
// journal has nothing readable yet, or it does but the throttle is
// refusing it — these wait on different signals. The former waits on
// the journal becoming readable; the latter parks on cond, which
// completeLocked's caller and HandleConfChange broadcast whenever the
// throttle might have newly opened up. Mirrors the original _consume
// (PurgeQueue.cc), which has no self-driven loop of its own and is
// re-entered only by execute_item_complete or a config change.
func (c *Core) consumeLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		c.drainReadyLocked(ctx)
		// drainReadyLocked only stops short of draining everything
		// readable when the throttle refuses it, so IsReadable() true
		// here always means throttled, never unconsumed-but-admitted.
		for !c.closed && c.journal.IsReadable() && !c.canConsumeLocked() {
			c.cond.Wait()
			c.drainReadyLocked(ctx)
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		if err := c.journal.WaitForReadable(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("wait for readable journal entries failed", zap.Error(err))
			return
		}
	}
}

// drainReadyLocked dispatches every intent the throttle currently
// admits, per §4.3. Callers must hold mu.
func (c *Core) drainReadyLocked(ctx context.Context) {
	for c.canConsumeLocked() {
		start := c.journal.ReadPos()
		payload, ok := c.journal.TryReadEntry()
		if !ok {
			return
		}
		expireTo := c.journal.ReadPos()

		it, err := intent.Decode(payload, start)
		if err != nil {
			c.log.Error("corrupt purge intent, skipping", zap.Error(err), zap.Uint64("offset", start))
			continue
		}

		c.dispatchLocked(ctx, it, expireTo)
	}
}

// completeLocked is invoked once a dispatched intent's object-store
// ops have all finished (successfully or not — failures are absorbed
// per §7). It implements the out-of-order completion accounting of
// §4.5: expire_pos only ever advances past the smallest outstanding
// offset, so a late-arriving completion for an offset that is not yet
// the smallest leaves expire_pos untouched until the gap closes; then
// expire_pos moves past every offset completed so far that precedes the
// next intent still in flight.
func (c *Core) completeLocked(ctx context.Context, expireTo uint64) {
	entry, ok := c.inflight.get(expireTo)
	if !ok {
		return
	}

	wasSmallest := c.inflight.isSmallest(expireTo)
	advanceTo := expireTo
	if entry.advanceTo > advanceTo {
		advanceTo = entry.advanceTo
	}
	if !wasSmallest {
		// Hand this offset to the next-older in-flight intent, so expiry
		// moves past it once that intent completes.
		prev := c.inflight.index[expireTo].Prev().Value.(*inFlightEntry)
		if advanceTo > prev.advanceTo {
			prev.advanceTo = advanceTo
		}
	}
	c.opsInFlight -= entry.cost
	c.inflight.remove(expireTo)
	c.stats.setExecuting(c.opsInFlight, c.inflight.len())
	c.stats.incExecuted()

	if wasSmallest {
		c.journal.SetExpirePos(advanceTo)
		if err := c.journal.Trim(ctx); err != nil {
			c.log.Warn("journal trim failed", zap.Error(err))
		}
	}

	c.drainReadyLocked(ctx)
}

// HandleConfChange applies a runtime configuration update and
// recomputes the op ceiling, per §4.6. It then re-attempts dispatch in
// case the new configuration newly admits work that was throttled.
func (c *Core) HandleConfChange(ctx context.Context, newConfig Config, rankMap clustermap.RankMap, osMap clustermap.ObjectStoreMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = newConfig
	c.updateOpLimitLocked(rankMap, osMap)
	c.drainReadyLocked(ctx)
	c.cond.Broadcast()
}

// IsIdle reports whether the queue has no intents currently executing
// against the object store and nothing left unread in the journal,
// per §5/§8: in_flight.empty() && read_pos == write_pos. A backlog
// that is merely unread — just pushed, or held back by an admin pause
// with MaxPurgeFiles == 0 — is not idle even though nothing is
// in flight yet.
func (c *Core) IsIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight.isEmpty() && c.journal.ReadPos() == c.journal.WritePos()
}

// Shutdown blocks until the queue drains or ctx is canceled, then marks
// the queue closed so the consume loop exits on its next wakeup.
func (c *Core) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	// cond.Wait only wakes on Broadcast/Signal, never on ctx
	// cancellation; this goroutine bridges the two so a canceled ctx
	// doesn't leave the waiter below blocked forever.
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()

	c.mu.Lock()
	for !c.inflight.isEmpty() && ctx.Err() == nil {
		c.cond.Wait()
	}
	c.closed = true
	// Wake a consumeLoop parked on the throttle so it observes closed
	// and exits instead of waiting for an unrelated future completion.
	c.cond.Broadcast()
	c.mu.Unlock()
	close(done)

	return ctx.Err()
}
