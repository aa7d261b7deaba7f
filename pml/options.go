package pml

import "go.uber.org/zap"

// Strictness selects the policy for malformed shape nodes.
type Strictness int

const (
	// Degrade keeps a malformed shape as a generic passthrough and records
	// a warning on the document.
	Degrade Strictness = iota
	// Abort fails the whole load on the first malformed shape.
	Abort
)

func (s Strictness) String() string {
	if s == Abort {
		return "abort"
	}
	return "degrade"
}

// Options configures a parse run. The zero value parses leniently with no
// media extraction and no logging.
type Options struct {
	// ImageDir is where extracted media blobs are written. Empty disables
	// extraction; blobs are still retained in memory either way.
	ImageDir string

	// Strictness is the malformed-shape policy.
	Strictness Strictness

	// Logger receives degradation events. Nil means no logging; warnings
	// are always recorded on the document regardless.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
