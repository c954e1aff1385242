package purgequeue

// Config holds the tunables the enclosing daemon recognizes, matching
// the names in spec.md §6 ("Configuration surface") so that operators
// can reason about this package using the same vocabulary the original
// system documents.
type Config struct {
	// MaxPurgeOps is a hard ceiling on concurrent op cost. 0 disables
	// the ceiling, leaving the dynamically computed limit unclamped.
	MaxPurgeOps uint64 `help:"hard ceiling on concurrent purge op cost; 0 disables the ceiling" default:"0"`

	// MaxPurgeOpsPerPG is the multiplier in the dynamic op-limit
	// formula: max_purge_ops = (total_pgs / max_active_ranks) * this.
	MaxPurgeOpsPerPG float64 `help:"multiplier applied to PGs-per-rank when computing the dynamic op ceiling" default:"0.5"`

	// MaxPurgeFiles is the concurrent intent ceiling. 0 pauses the
	// queue administratively: no new intent is dispatched, though
	// pushes still append and flush.
	MaxPurgeFiles int `help:"maximum number of purge intents dispatched concurrently; 0 pauses the queue" default:"10000"`

	// FilerMaxPurgeOps is the per-intent stripe-op cap used only in
	// the cost calculation (§4.4); the real cap is enforced by the
	// object-store client itself.
	FilerMaxPurgeOps uint64 `help:"per-intent cap on stripe ops counted toward op cost" default:"64"`

	// BacktraceFastPathSkipsZeroObjectRemoval mirrors the original
	// source's behavior of skipping the separate backtrace-object
	// removal when a file's purge already removed its stripe objects
	// (size > 0) and the layout has no pool namespace. Off by default:
	// spec.md's canonical single-file-purge scenario (S1) requires both
	// the stripe purge and the backtrace remove to fire. See DESIGN.md
	// for the Open Question this setting resolves.
	BacktraceFastPathSkipsZeroObjectRemoval bool `help:"skip the redundant backtrace removal when the stripe purge already covered object 0" default:"false"`
}

// DefaultConfig returns the configuration the original system ships
// with by default.
func DefaultConfig() Config {
	return Config{
		MaxPurgeOps:                             0,
		MaxPurgeOpsPerPG:                         0.5,
		MaxPurgeFiles:                           10000,
		FilerMaxPurgeOps:                         64,
		BacktraceFastPathSkipsZeroObjectRemoval:  false,
	}
}
