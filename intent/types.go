// Package intent defines the PurgeIntent data model: the durable,
// versioned record that the purge queue journals for every unlinked
// inode, and the pure helpers (stripe-object counting, object naming)
// the dispatcher needs to translate an intent into object-store ops.
package intent

import "github.com/zeebo/errs"

// Error is the error class for malformed or unsupported intents.
var Error = errs.Class("intent")

// Action identifies what a PurgeIntent asks the dispatcher to do.
type Action uint8

// The three actions a PurgeIntent can carry.
const (
	PurgeFile Action = iota + 1
	PurgeDir
	TruncateFile
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case PurgeFile:
		return "purge_file"
	case PurgeDir:
		return "purge_dir"
	case TruncateFile:
		return "truncate_file"
	default:
		return "unknown"
	}
}

// Known reports whether a is one of the actions this package understands.
func (a Action) Known() bool {
	switch a {
	case PurgeFile, PurgeDir, TruncateFile:
		return true
	default:
		return false
	}
}

// Layout is the striping descriptor attached to a file intent. It mirrors
// the subset of a file layout the dispatcher needs: how many objects a
// file is striped across and how big each object is.
type Layout struct {
	StripeUnit  uint64
	StripeCount uint32
	ObjectSize  uint64
	PoolID      int64

	// Namespace is the optional pool namespace (a v2 layout feature).
	// Encoders that predate this feature leave it empty and omit it
	// from the wire form entirely.
	Namespace string
}

// HasNamespace reports whether the layout uses a non-default pool
// namespace, which gates the backtrace fast-path in the dispatcher.
func (l Layout) HasNamespace() bool {
	return l.Namespace != ""
}

// Period is the number of bytes written to a full pass across every
// stripe in the layout, i.e. stripe_unit * stripe_count.
func (l Layout) Period() uint64 {
	return l.StripeUnit * uint64(l.StripeCount)
}

// SnapContext is the snapshot sequence and ordered snap-id list attached
// to every object operation derived from an intent, so snapshot
// bookkeeping is preserved across the purge.
type SnapContext struct {
	Seq   uint64
	Snaps []int64
}

// NullSnapContext is the snap context used for directory-fragment
// removals, which are not snapshotted.
var NullSnapContext = SnapContext{}

// Frag identifies one node of a directory's fragment tree: bits is the
// depth of the split, value is the fragment's position among its
// siblings at that depth. The zero value is the tree's root.
type Frag struct {
	Bits  uint32
	Value uint32
}

// RootFrag is the fragment identifying an entire, unsplit directory.
var RootFrag = Frag{}

// IsRoot reports whether f is the root fragment.
func (f Frag) IsRoot() bool {
	return f == RootFrag
}

// FragTree is the fragment tree of a directory inode. Leaves holds every
// leaf fragment strictly below the root; an empty Leaves means the
// directory was never split and the root is its own (only) leaf.
type FragTree struct {
	Leaves []Frag
}

// DirfragCount returns the number of dirfrag objects a purge of this tree
// must remove: every recorded leaf, plus the root itself.
func (t FragTree) DirfragCount() int {
	return len(t.Leaves) + 1
}

// Intent is a single queued purge action: delete a file, delete a
// directory, or truncate a file. It is immutable once appended to the
// journal.
type Intent struct {
	Action Action
	Ino    uint64
	Size   uint64
	Layout Layout

	// OldPools lists prior pool ids in which a backtrace object for Ino
	// may still exist, left over from pool-migration history.
	OldPools []int64

	Snapc SnapContext

	// FragTree is populated only for PurgeDir intents.
	FragTree FragTree
}
