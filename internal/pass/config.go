package pass

// Config holds the policy knobs the pass is parameterized over. The original
// plugin baked these into a compiled-in local_config.h; here they're plain
// struct fields so the CLI (cmd/tmpass) can set them from flags.
type Config struct {
	// InstrumentReads, when false, leaves regular (non-volatile, non-atomic)
	// loads untouched inside clones. Some PTM algorithms only need to
	// instrument writes.
	InstrumentReads bool

	// DiscoveryPureOverrides names additional functions to seed into the
	// pure set, for library calls the pass has no way to see are safe (e.g.
	// calls into libc that a particular runtime has hand-verified).
	DiscoveryPureOverrides []string
}

// DefaultConfig matches the original plugin's INST_READ=true default: full
// read/write instrumentation, no extra pure overrides.
func DefaultConfig() Config {
	return Config{InstrumentReads: true}
}
