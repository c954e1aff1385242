// Package objectstore defines the contract the purge queue's dispatcher
// issues object deletions against (§6). The real client — talking to a
// remote, striped object store — is an external collaborator per
// spec.md §1; this package only names the contract and ships an
// in-memory fake for tests.
package objectstore

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/distfs/purgequeue/intent"
)

// Error is the error class for object-store client failures.
var Error = errs.Class("objectstore")

// Locator identifies which pool (and, implicitly, namespace) an object
// operation targets.
type Locator struct {
	PoolID    int64
	Namespace string
}

// Client is the object-store operations the dispatcher consumes.
// Per spec.md §7, object-store op failures are absorbed into "purge
// done" by the dispatcher's gather — a Client implementation should
// still return errors (for logging) but the core does not treat them as
// fatal to the intent.
type Client interface {
	// Remove deletes a single object.
	Remove(ctx context.Context, oid intent.ObjectID, loc Locator, snapc intent.SnapContext, mtime time.Time, flags uint32) error

	// PurgeRange removes stripe objects [firstObj, firstObj+count) of
	// ino under layout. Internally throttled by the client's own
	// filer_max_purge_ops, independent of the purge queue's own
	// op-cost accounting (§4.4).
	PurgeRange(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, firstObj, count uint64, mtime time.Time, flags uint32) error

	// Zero overwrites [offset, offset+length) of object 0 of ino with
	// zeroes. truncateHint tells the client this zero is part of a
	// truncate, which some backends use to also drop any reserved
	// space beyond the new length.
	Zero(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, offset, length uint64, mtime time.Time, flags uint32, truncateHint bool) error
}
