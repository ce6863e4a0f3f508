package ringfs

import "ringfs/internal/engine"

// Options are the constant, caller-supplied parameters a Log is built
// with: the on-flash schema version and the fixed object size. They are
// part of the on-flash contract and cannot change after New without
// reformatting.
type Options struct {
	// Version fences the on-disk schema. A Scan that finds a mismatching
	// version on any sector fails with ErrCorrupt.
	Version uint32

	// ObjectSize is the fixed size, in bytes, of one stored object.
	ObjectSize int
}

// Config is the caller-mutable runtime behavior, settable after New via
// SetConfig (struct ringfs_config in the original C implementation, whose
// doc comment notes it "can be changed after initialization").
type Config struct {
	// RejectWriteWhenFull selects the append behavior when the ring has no
	// room for a new object: false (default) evicts the oldest object;
	// true returns ErrFull and leaves flash state unchanged.
	RejectWriteWhenFull bool
}

func toEngineConfig(c Config) engine.Config {
	return engine.Config{RejectWriteWhenFull: c.RejectWriteWhenFull}
}

func fromEngineConfig(c engine.Config) Config {
	return Config{RejectWriteWhenFull: c.RejectWriteWhenFull}
}
