package eval

import "github.com/mfalzone/resil/internal/prom"

// Verdict is the outcome of evaluating one SLO over one window. The
// three states are distinct on purpose: no-data must never collapse
// into pass or fail, it is excluded from scoring instead.
type Verdict int

const (
	// VerdictPass indicates the SLO held throughout the window
	VerdictPass Verdict = iota

	// VerdictFail indicates the SLO was violated
	VerdictFail

	// VerdictNoData indicates the query succeeded but produced no
	// usable samples
	VerdictNoData
)

// String returns human-readable verdict
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictFail:
		return "FAIL"
	case VerdictNoData:
		return "NO_DATA"
	default:
		return "UNKNOWN"
	}
}

// Extract decides the verdict for a single query result.
//
// SLO expressions encode a failure condition, so a sample value above
// zero is a violation and zero means healthy. Range series fail on the
// first sample parsing to a positive number; unparsable range samples
// are skipped. An instant series is decided immediately: pass iff its
// value parses to exactly zero, with an unparsable value counted as a
// violation. A result whose series carry no samples at all is no-data.
func Extract(res prom.Result) Verdict {
	sawSamples := false
	for _, s := range res.Series {
		switch {
		case s.Samples != nil:
			sawSamples = true
			for _, sample := range s.Samples {
				v, err := sample.Float()
				if err != nil {
					continue
				}
				if v > 0 {
					return VerdictFail
				}
			}
		case s.Value != nil:
			sawSamples = true
			v, err := s.Value.Float()
			if err != nil || v != 0 {
				return VerdictFail
			}
			return VerdictPass
		}
	}
	if !sawSamples {
		return VerdictNoData
	}
	return VerdictPass
}
