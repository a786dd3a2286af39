package shielding

import (
	"math"
)

// Mode selects which quantity is solved for. Exactly one of thickness and
// distance is known; the other is the result.
type Mode int

const (
	ModeUnknown Mode = iota
	// SolveDistance takes a known thickness (mm) and returns a distance (m).
	SolveDistance
	// SolveThickness takes a known distance (m) and returns a thickness (mm).
	SolveThickness
)

func (m Mode) String() string {
	switch m {
	case SolveDistance:
		return "distance"
	case SolveThickness:
		return "thickness"
	}
	return "unknown"
}

// ParseMode accepts "distance" or "thickness".
func ParseMode(s string) (Mode, error) {
	switch normalize(s) {
	case "distance", "solvedistance", "d":
		return SolveDistance, nil
	case "thickness", "solvethickness", "t":
		return SolveThickness, nil
	case "":
		return ModeUnknown, missing("mode")
	}
	return ModeUnknown, invalid("mode", s)
}

// Problem is one single-point calculation.
type Problem struct {
	Constants  Constants
	ActivityCi float64
	Limit      float64 // mSv/h
	Mode       Mode
	// Known is the thickness in mm (SolveDistance) or the distance in m
	// (SolveThickness). It is ignored when no material attenuates.
	Known float64
}

// Shielded reports whether an attenuating material takes part.
func (p Problem) Shielded() bool { return p.Constants.Mu > 0 }

// Result echoes the problem with the solved quantity.
type Result struct {
	Problem
	ActivityGBq       float64 `json:"activityGBq"`
	ReferenceDistance float64 `json:"referenceDistance"`
	// Value is metres for SolveDistance and millimetres for SolveThickness.
	Value float64 `json:"value"`
}

// Unit returns the unit of Value.
func (r Result) Unit() string {
	if r.Mode == SolveThickness {
		return "mm"
	}
	return "m"
}

// ReferenceDistance is the unshielded distance D0 at which the dose rate
// drops to limit: sqrt(A·Γ / (2^Y · limit)).
func ReferenceDistance(activityGBq float64, c Constants, limit float64) float64 {
	return math.Sqrt((activityGBq * c.Gamma) / (math.Pow(2, c.CollimatorExponent) * limit))
}

// Solve evaluates the problem. With an attenuating material the closed form
// D0·(ln2/μ)/known serves both directions; without one the result is D0 and
// only distance can be solved.
func Solve(p Problem) (Result, error) {
	if err := validate(p); err != nil {
		return Result{}, err
	}

	a := ActivityGBq(p.ActivityCi)
	d0 := ReferenceDistance(a, p.Constants, p.Limit)
	value := d0
	if p.Shielded() {
		value = d0 * (math.Ln2 / p.Constants.Mu) * (1 / p.Known)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return Result{}, NewError(NonPhysical, p.Mode.String(), "result %v is not a physical %s", value, p.Mode)
	}
	return Result{Problem: p, ActivityGBq: a, ReferenceDistance: d0, Value: value}, nil
}

func validate(p Problem) error {
	if p.Mode != SolveDistance && p.Mode != SolveThickness {
		return missing("mode")
	}
	if !positive(p.ActivityCi) {
		return NewError(InvalidInput, "activity", "must be a positive number")
	}
	if !positive(p.Limit) {
		return missing("dose rate limit")
	}
	c := p.Constants
	if !positive(c.Gamma) {
		return NewError(UnresolvedCoefficient, "gamma", "isotope constant not resolved")
	}
	if !finite(c.CollimatorExponent) || c.CollimatorExponent < 0 {
		return NewError(UnresolvedCoefficient, "collimator", "exponent %v out of range", c.CollimatorExponent)
	}
	if !finite(c.Mu) || c.Mu < 0 {
		return NewError(UnresolvedCoefficient, "material", "attenuation coefficient %v out of range", c.Mu)
	}
	if p.Mode == SolveThickness && c.Mu == 0 {
		return NewError(UnresolvedCoefficient, "material", "thickness needs an attenuating material")
	}
	if p.Shielded() && !positive(p.Known) {
		field := "thickness"
		if p.Mode == SolveThickness {
			field = "distance"
		}
		return NewError(InvalidInput, field, "must be a positive number")
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }
