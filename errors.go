package purgequeue

import "github.com/zeebo/errs"

// Error is the package's error class.
var Error = errs.Class("purgequeue")

// ErrNotOpen is returned by Push when called before Open has completed,
// mirroring the original's "callers should have waited for open()"
// assertion (§4.2, §9) as a returned error instead of a panic.
var ErrNotOpen = Error.New("push called before open completed")
