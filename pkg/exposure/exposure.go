// Package exposure turns a timed exposure into an accumulated dose.
package exposure

import (
	"math"
	"time"

	"github.com/google/uuid"

	"radiography-shield/pkg/shielding"
)

// Record is one logged exposure.
type Record struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"userId" db:"user_id"`
	Isotope     string        `json:"isotope" db:"isotope"`
	ActivityCi  float64       `json:"activityCi" db:"activity_ci"`
	Collimator  bool          `json:"collimator" db:"-"`
	DistanceM   float64       `json:"distanceM" db:"distance_m"`
	ThicknessMM float64       `json:"thicknessMM" db:"thickness_mm"`
	Mu          float64       `json:"mu" db:"mu"`
	Duration    time.Duration `json:"-" db:"-"`
	DurationS   float64       `json:"durationSeconds" db:"-"`
	DoseRate    float64       `json:"doseRate" db:"dose_rate"` // mSv/h
	Dose        float64       `json:"dose" db:"dose"`          // mSv
	CreatedAt   time.Time     `json:"createdAt" db:"-"`
}

// Input describes an exposure before its dose is known.
type Input struct {
	UserID      string
	Isotope     shielding.Isotope
	ActivityCi  float64
	Collimator  bool
	Constants   shielding.Constants
	DistanceM   float64
	ThicknessMM float64
	Duration    time.Duration
}

// Compute evaluates the dose rate at the working position and integrates it
// over the exposure time.
func Compute(in Input, now time.Time) (Record, error) {
	switch {
	case !positive(in.ActivityCi):
		return Record{}, shielding.NewError(shielding.InvalidInput, "activity", "must be a positive number")
	case !positive(in.DistanceM):
		return Record{}, shielding.NewError(shielding.InvalidInput, "distance", "must be a positive number")
	case math.IsNaN(in.ThicknessMM) || in.ThicknessMM < 0:
		return Record{}, shielding.NewError(shielding.InvalidInput, "thickness", "must not be negative")
	case in.Duration < 0:
		return Record{}, shielding.NewError(shielding.InvalidInput, "duration", "must not be negative")
	case !positive(in.Constants.Gamma):
		return Record{}, shielding.NewError(shielding.UnresolvedCoefficient, "gamma", "isotope constant not resolved")
	}

	rate := shielding.DoseRate(shielding.ActivityGBq(in.ActivityCi), in.Constants, in.DistanceM, in.ThicknessMM)
	dose := rate * in.Duration.Hours()
	if math.IsNaN(dose) || math.IsInf(dose, 0) || dose < 0 {
		return Record{}, shielding.NewError(shielding.NonPhysical, "dose", "result %v is not a physical dose", dose)
	}

	return Record{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Isotope:     in.Isotope.String(),
		ActivityCi:  in.ActivityCi,
		Collimator:  in.Collimator,
		DistanceM:   in.DistanceM,
		ThicknessMM: in.ThicknessMM,
		Mu:          in.Constants.Mu,
		Duration:    in.Duration,
		DurationS:   in.Duration.Seconds(),
		DoseRate:    rate,
		Dose:        dose,
		CreatedAt:   now.UTC(),
	}, nil
}

// maxSeconds is the longest duration time.Duration can hold, in seconds.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// DurationFromSeconds converts a caller-measured duration. Values that do not
// fit a time.Duration are rejected instead of wrapping.
func DurationFromSeconds(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || seconds < 0 || seconds >= maxSeconds {
		return 0, shielding.NewError(shielding.InvalidInput, "durationSeconds", "must be between 0 and %.0f", maxSeconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func positive(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 }
