package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/distfs/purgequeue/intent"
)

var diskMon = monkit.Package()

// Disk is a local-filesystem-backed Client. It exists for integration
// tests and the purged command's standalone demo mode, where talking to
// a real object store would be overkill: every Locator/pool gets its
// own subdirectory under root, and objects are plain files named by
// their oid.
//
// Removal is logged best-effort, mirroring the teacher's piece deleter:
// a missing file is not an error, since purges must be idempotent
// against a store that may have already completed the same op from an
// earlier, interrupted attempt.
type Disk struct {
	log  *zap.Logger
	root string

	mu      sync.Mutex
	removed int64
}

// NewDisk returns a Disk client rooted at dir, creating it if needed.
func NewDisk(log *zap.Logger, dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, Error.Wrap(err)
	}
	return &Disk{log: log, root: dir}, nil
}

func (d *Disk) poolDir(poolID int64, namespace string) string {
	if namespace != "" {
		return filepath.Join(d.root, fmt.Sprintf("pool-%d-%s", poolID, namespace))
	}
	return filepath.Join(d.root, fmt.Sprintf("pool-%d", poolID))
}

func (d *Disk) path(poolID int64, namespace string, oid intent.ObjectID) string {
	return filepath.Join(d.poolDir(poolID, namespace), string(oid))
}

// Remove implements Client.
func (d *Disk) Remove(ctx context.Context, oid intent.ObjectID, loc Locator, snapc intent.SnapContext, mtime time.Time, flags uint32) (err error) {
	defer diskMon.Task()(&ctx)(&err)

	p := d.path(loc.PoolID, loc.Namespace, oid)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return Error.Wrap(err)
	}
	d.mu.Lock()
	d.removed++
	d.mu.Unlock()
	d.log.Debug("removed object", zap.String("oid", string(oid)), zap.Int64("pool", loc.PoolID))
	return nil
}

// PurgeRange implements Client.
func (d *Disk) PurgeRange(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, firstObj, count uint64, mtime time.Time, flags uint32) (err error) {
	defer diskMon.Task()(&ctx)(&err)

	var g errs.Group
	for n := firstObj; n < firstObj+count; n++ {
		oid := intent.StripeObjectID(ino, n)
		p := d.path(layout.PoolID, layout.Namespace, oid)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			g.Add(err)
			continue
		}
		d.mu.Lock()
		d.removed++
		d.mu.Unlock()
	}
	if err := g.Err(); err != nil {
		return Error.Wrap(err)
	}
	return nil
}

// Zero implements Client. It truncates the object file to offset,
// which is sufficient to model a truncate-to-zero-length operation on
// object 0; a real object store additionally supports zeroing a
// byte range without truncating, which Disk does not need for the
// truncateHint=true path exercised by TruncateFile intents.
func (d *Disk) Zero(ctx context.Context, ino uint64, layout intent.Layout, snapc intent.SnapContext, offset, length uint64, mtime time.Time, flags uint32, truncateHint bool) (err error) {
	defer diskMon.Task()(&ctx)(&err)

	oid := intent.BacktraceObjectID(ino)
	p := d.path(layout.PoolID, layout.Namespace, oid)
	f, err := os.OpenFile(p, os.O_RDWR, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return Error.Wrap(err)
	}
	defer func() { _ = f.Close() }()

	if truncateHint {
		if err := f.Truncate(int64(offset)); err != nil {
			return Error.Wrap(err)
		}
		return nil
	}
	return Error.Wrap(f.Truncate(int64(offset + length)))
}

// Removed returns the number of objects removed so far, for tests.
func (d *Disk) Removed() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removed
}
