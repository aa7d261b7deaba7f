package pptparse

import (
	"errors"

	"github.com/Force1ess/PPTParse/model"
	"github.com/Force1ess/PPTParse/opc"
	"github.com/Force1ess/PPTParse/pml"
)

// ErrUnsupportedFormat is returned by Export for unknown format names.
var ErrUnsupportedFormat = errors.New("pptparse: unsupported export format")

// Sentinels from the lower layers, re-exported so callers can match them
// without importing the subpackages.
var (
	ErrPackageCorrupt  = opc.ErrPackageCorrupt
	ErrPartNotFound    = opc.ErrPartNotFound
	ErrNotPresentation = pml.ErrNotPresentation
	ErrMalformedShape  = pml.ErrMalformedShape
)

// Strictness selects the malformed-shape policy for a load.
type Strictness = pml.Strictness

// Strictness policies.
const (
	Degrade = pml.Degrade
	Abort   = pml.Abort
)

// Warning is a non-fatal degradation recorded during a load.
type Warning = model.Warning

// FormatWarnings renders warnings one per line for logging.
func FormatWarnings(warnings []Warning) string {
	return model.FormatWarnings(warnings)
}
