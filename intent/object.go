package intent

import "fmt"

// ObjectID is the name of an object in the backing object store.
type ObjectID string

// StripeObjectID returns the name of the nth data object of ino's
// striped layout. PurgeRange/Zero operate on a contiguous run of these.
func StripeObjectID(ino, n uint64) ObjectID {
	return ObjectID(fmt.Sprintf("%x.%016x", ino, n))
}

// BacktraceObjectID returns the name of the per-inode backtrace object:
// object 0 of the inode's striped data, which also carries its
// backtrace. It must name the same object PurgeRange(first=0, ...)
// would remove, since a backtrace-only purge and a stripe purge can
// both target object 0 of the same file.
func BacktraceObjectID(ino uint64) ObjectID {
	return StripeObjectID(ino, 0)
}

// DirfragObjectID returns the name of the object backing one shard of a
// directory inode. Directory fragments are a distinct naming domain
// from file stripe objects: they are addressed by fragment bits/value,
// not by stripe index.
func DirfragObjectID(ino uint64, frag Frag) ObjectID {
	return ObjectID(fmt.Sprintf("%x.%02x%08x", ino, frag.Bits, frag.Value))
}
