package journal

import (
	"context"
	"sync"
)

// Memory is an in-process, non-durable Client. It exists to exercise the
// purge queue core's consume loop and expiry bookkeeping deterministically
// in tests; it is not a substitute for a crash-safe journal.
type Memory struct {
	mu sync.Mutex

	exists    bool
	writeable bool

	records   [][]byte
	recordEnd []uint64 // recordEnd[i] is the absolute offset just past records[i]

	writePos  uint64
	readIdx   int
	readPos   uint64
	expirePos uint64

	waiting bool
	notify  chan struct{}
}

// NewMemory returns a Memory journal as it would appear on a brand new
// deployment: Recover will report ErrNotFound until Create is called.
func NewMemory() *Memory {
	return &Memory{notify: make(chan struct{})}
}

// NewMemoryFromState returns a Memory journal pre-loaded with already
// appended records, as if resuming after a crash: readIdx records have
// already been consumed, and expirePos is the last safely-advanced
// expiry position. It is used to test that a resumed core replays
// exactly the uncompleted tail.
func NewMemoryFromState(records [][]byte, readIdx int, expirePos uint64) *Memory {
	m := &Memory{
		exists:    true,
		writeable: true,
		notify:    make(chan struct{}),
	}
	var pos uint64
	for _, r := range records {
		pos += uint64(len(r))
		m.recordEnd = append(m.recordEnd, pos)
	}
	m.records = records
	m.writePos = pos
	m.readIdx = readIdx
	if readIdx > 0 {
		m.readPos = m.recordEnd[readIdx-1]
	}
	m.expirePos = expirePos
	return m
}

// Recover implements Client.
func (m *Memory) Recover(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return ErrNotFound
	}
	return nil
}

// Create implements Client.
func (m *Memory) Create(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = true
	return nil
}

// SetWriteable implements Client.
func (m *Memory) SetWriteable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeable = true
}

// IsReadOnly implements Client.
func (m *Memory) IsReadOnly() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.writeable
}

// AppendEntry implements Client.
func (m *Memory) AppendEntry(record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.writeable {
		return Error.New("append to non-writeable journal")
	}
	buf := make([]byte, len(record))
	copy(buf, record)
	m.records = append(m.records, buf)
	m.writePos += uint64(len(buf))
	m.recordEnd = append(m.recordEnd, m.writePos)
	m.wakeLocked()
	return nil
}

// Flush implements Client. Every Memory append is already "durable" by
// the time AppendEntry returns, so Flush only waits for ctx.
func (m *Memory) Flush(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// IsReadable implements Client.
func (m *Memory) IsReadable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isReadableLocked()
}

func (m *Memory) isReadableLocked() bool {
	return m.readIdx < len(m.records)
}

// WaitForReadable implements Client.
func (m *Memory) WaitForReadable(ctx context.Context) error {
	m.mu.Lock()
	if m.isReadableLocked() {
		m.mu.Unlock()
		return nil
	}
	if m.waiting {
		m.mu.Unlock()
		return Error.New("wait_for_readable already registered")
	}
	m.waiting = true
	ch := m.notify
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.waiting = false
		m.mu.Unlock()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryReadEntry implements Client.
func (m *Memory) TryReadEntry() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isReadableLocked() {
		return nil, false
	}
	record := m.records[m.readIdx]
	m.readPos = m.recordEnd[m.readIdx]
	m.readIdx++
	return record, true
}

// ReadPos implements Client.
func (m *Memory) ReadPos() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readPos
}

// WritePos implements Client.
func (m *Memory) WritePos() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writePos
}

// SetExpirePos implements Client.
func (m *Memory) SetExpirePos(off uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expirePos = off
}

// Trim implements Client. It drops fully-expired records to free memory.
func (m *Memory) Trim(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for dropped < len(m.recordEnd) && m.recordEnd[dropped] <= m.expirePos {
		dropped++
	}
	if dropped == 0 {
		return nil
	}
	m.records = m.records[dropped:]
	m.recordEnd = m.recordEnd[dropped:]
	m.readIdx -= dropped
	return nil
}

// wakeLocked notifies any outstanding WaitForReadable call. Caller must
// hold m.mu.
func (m *Memory) wakeLocked() {
	close(m.notify)
	m.notify = make(chan struct{})
}

// ExpirePos reports the current expire position, for tests that assert
// on the core's expiry-advance bookkeeping.
func (m *Memory) ExpirePos() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expirePos
}
