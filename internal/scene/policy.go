package scene

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidHeight is returned by BuildMesh under PolicyReject for heights
// that are not positive and finite.
var ErrInvalidHeight = eris.New("scene: invalid building height")

// HeightPolicy decides what the extruder receives for non-positive or NaN
// heights. Color always comes from the record's own height.
type HeightPolicy string

const (
	PolicyReject HeightPolicy = "reject"
	PolicyClamp  HeightPolicy = "clamp"
	PolicyPass   HeightPolicy = "pass"
)

// DefaultMinExtrudeHeight is the height used by PolicyClamp.
const DefaultMinExtrudeHeight = 1.0

// ParseHeightPolicy accepts reject, clamp or pass (case-insensitive). The
// empty string means reject.
func ParseHeightPolicy(s string) (HeightPolicy, error) {
	switch p := HeightPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyReject, nil
	case PolicyReject, PolicyClamp, PolicyPass:
		return p, nil
	default:
		return "", eris.Errorf("scene: unknown height policy %q", s)
	}
}

func validHeight(h float64) bool {
	return h > 0 && !math.IsInf(h, 1)
}

// extrudeHeight applies the policy. ok is false when the building must be
// skipped.
func (p HeightPolicy) extrudeHeight(h, floor float64) (float64, bool) {
	if validHeight(h) {
		return h, true
	}
	switch p {
	case PolicyPass:
		return h, true
	case PolicyClamp:
		if math.IsInf(h, 1) {
			return h, false
		}
		return floor, true
	default:
		return h, false
	}
}
