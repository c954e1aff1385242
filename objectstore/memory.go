package objectstore

import (
	"context"
	"sync"
	"time"

	"github.com/distfs/purgequeue/intent"
)

// Call records one invocation of the Memory client, for test assertions
// about exactly which ops the dispatcher issued.
type Call struct {
	Op          string // "remove", "purge_range", or "zero"
	OID         intent.ObjectID
	Ino         uint64
	Locator     Locator
	FirstObj    uint64
	Count       uint64
	Offset      uint64
	Length      uint64
	Snapc       intent.SnapContext
	TruncateHint bool
}

// Memory is an in-memory Client that records every call it receives and
// always succeeds. Tests that need to exercise op-failure absorption
// (§7) can wrap it or set Fail.
type Memory struct {
	mu    sync.Mutex
	calls []Call

	// Fail, if set, is returned by every subsequent call instead of
	// nil, without preventing the call from being recorded.
	Fail error
}

// NewMemory returns an empty Memory client.
func NewMemory() *Memory {
	return &Memory{}
}

// Calls returns a snapshot of every call recorded so far.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Memory) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.Fail
}

// Remove implements Client.
func (m *Memory) Remove(ctx context.Context, oid intent.ObjectID, loc Locator, snapc intent.SnapContext, mtime time.Time, flags uint32) error {
	return m.record(Call{Op: "remove", OID: oid, Locator: loc, Snapc: snapc})
}

// PurgeRange implements Client.
func (m *Memory) PurgeRange(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, firstObj, count uint64, mtime time.Time, flags uint32) error {
	return m.record(Call{Op: "purge_range", Ino: ino, FirstObj: firstObj, Count: count, Snapc: snapc})
}

// Zero implements Client.
func (m *Memory) Zero(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, offset, length uint64, mtime time.Time, flags uint32, truncateHint bool) error {
	return m.record(Call{Op: "zero", Ino: ino, Offset: offset, Length: length, Snapc: snapc, TruncateHint: truncateHint})
}
