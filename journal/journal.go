// Package journal defines the append-log contract the purge queue is
// both producer and consumer of (§4.2, §6), and ships an in-process
// reference implementation for tests and single-node embedding. A
// crash-safe, multi-segment journal is an external collaborator per
// spec.md §1 and is not implemented here.
package journal

import (
	"context"
	"errors"

	"github.com/zeebo/errs"
)

// Error is the error class for journal failures other than NotFound.
var Error = errs.Class("journal")

// ErrNotFound is returned by Recover on a first run: no journal exists
// yet, and the caller should bootstrap one with Create.
var ErrNotFound = errors.New("journal: not found")

// Client is the thin adapter the purge queue core needs over an
// append-log with a write cursor and a read cursor. Implementations
// must be safe for the access pattern described in §5: one writer/
// reader pair, serialized by the caller's lock, with WaitForReadable
// invoked from at most one goroutine at a time.
type Client interface {
	// Recover opens an existing journal. It returns ErrNotFound if none
	// exists yet (a fresh deployment), or any other error encountered
	// reading the journal's head.
	Recover(ctx context.Context) error

	// Create bootstraps a brand new, empty journal. Called only after
	// Recover returns ErrNotFound.
	Create(ctx context.Context) error

	// SetWriteable marks the journal ready to accept appends. Called
	// once Recover (or Create) has succeeded.
	SetWriteable()

	// IsReadOnly reports whether SetWriteable has not yet been called.
	IsReadOnly() bool

	// AppendEntry buffers a record to be written at the current write
	// position. It does not block on durability; call Flush for that.
	AppendEntry(record []byte) error

	// Flush blocks until every record appended so far is durable.
	Flush(ctx context.Context) error

	// IsReadable reports whether TryReadEntry would currently succeed.
	IsReadable() bool

	// WaitForReadable blocks until IsReadable would return true, or ctx
	// is done. Only one call may be outstanding at a time; a second
	// concurrent call is a programming error in the caller (§9).
	WaitForReadable(ctx context.Context) error

	// TryReadEntry reads the next unread record, or reports false if
	// none is available. Callers must have just confirmed IsReadable.
	TryReadEntry() ([]byte, bool)

	// ReadPos returns the absolute offset of the next byte to be read,
	// i.e. the offset just past the most recently read record.
	ReadPos() uint64

	// WritePos returns the absolute offset the next AppendEntry will
	// land at.
	WritePos() uint64

	// SetExpirePos declares that bytes before off will never be
	// re-read and may be reclaimed by a subsequent Trim.
	SetExpirePos(off uint64)

	// Trim reclaims journal storage before the current expire position.
	Trim(ctx context.Context) error
}
