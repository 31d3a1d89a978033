package pipeline

import "github.com/menta2k/image-redactor/internal/utils"

// Decision is the outcome of the skip predicate for one candidate
type Decision int

const (
	// Proceed runs the full pipeline
	Proceed Decision = iota
	// SkipAlreadyRedacted means the candidate is itself a redacted output
	SkipAlreadyRedacted
	// SkipDestinationExists means an earlier run already produced the output
	SkipDestinationExists
	// ReprocessDestination removes the stale output before running the pipeline
	ReprocessDestination
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case SkipAlreadyRedacted:
		return "skip-already-redacted"
	case SkipDestinationExists:
		return "skip-destination-exists"
	case ReprocessDestination:
		return "reprocess-destination"
	default:
		return "unknown"
	}
}

// Policy holds the settings the skip predicate depends on
type Policy struct {
	Marker    string
	Reprocess bool
}

// Decide evaluates the skip rules for candidate. It touches no file system;
// destExists must be computed by the caller.
func Decide(candidate string, destExists bool, policy Policy) Decision {
	if utils.HasMarker(candidate, policy.Marker) {
		return SkipAlreadyRedacted
	}
	if !destExists {
		return Proceed
	}
	if policy.Reprocess {
		return ReprocessDestination
	}
	return SkipDestinationExists
}
