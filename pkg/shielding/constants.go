// Package shielding holds the closed-form physics used by the radiography
// calculator: inverse-square dose rate with exponential attenuation through a
// shielding layer.
//
// Units follow the field forms: activity is entered in curie, converted to GBq,
// dose rates are mSv/h, distances metres, shielding thickness millimetres and
// linear attenuation coefficients cm⁻¹.
package shielding

import (
	"fmt"
	"strings"
)

// GBqPerCurie converts activity entered in Ci into GBq.
const GBqPerCurie = 37.0

// Isotope identifies one of the two sources supported by the forms.
type Isotope int

const (
	IsotopeUnknown Isotope = iota
	Ir192
	Se75
)

type isotopeInfo struct {
	label string
	gamma float64 // mSv·m²/(GBq·h)
	// collimator is the exponent Y applied as 2^Y when a collimator is fitted.
	collimator float64
}

var isotopes = map[Isotope]isotopeInfo{
	Ir192: {label: "Ir-192", gamma: 0.13, collimator: 4},
	Se75:  {label: "Se-75", gamma: 0.054, collimator: 6},
}

// Isotopes lists the supported isotopes in display order.
func Isotopes() []Isotope { return []Isotope{Ir192, Se75} }

// ParseIsotope accepts the labels the forms send ("Ir-192", "ir192", "A",
// "Se-75", "se", "B"). Empty and placeholder values return IsotopeUnknown
// together with a MissingInput error.
func ParseIsotope(s string) (Isotope, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", " ", "", "_", "").Replace(key)
	switch key {
	case "a", "ir", "ir192", "iridium", "iridium192":
		return Ir192, nil
	case "b", "se", "se75", "selenium", "selenium75":
		return Se75, nil
	}
	if isPlaceholder(key) {
		return IsotopeUnknown, missing("isotope")
	}
	return IsotopeUnknown, invalid("isotope", s)
}

func (i Isotope) String() string {
	if info, ok := isotopes[i]; ok {
		return info.label
	}
	return "unknown"
}

// Valid reports whether i is one of the supported isotopes.
func (i Isotope) Valid() bool {
	_, ok := isotopes[i]
	return ok
}

// Gamma returns the isotope's dose-rate constant.
func (i Isotope) Gamma() float64 { return isotopes[i].gamma }

// CollimatorExponent returns Y for the given collimator state; 0 without one.
func (i Isotope) CollimatorExponent(collimator bool) float64 {
	if !collimator {
		return 0
	}
	return isotopes[i].collimator
}

// DoseLimit is the target dose-rate option chosen on the form.
type DoseLimit int

const (
	LimitUnknown DoseLimit = iota
	LimitHigh
	LimitLow
)

// Thresholds in mSv/h: 11 µSv/h for the controlled-area boundary and
// 0.5 µSv/h for the public boundary.
const (
	HighLimitMSvPerHour = 0.011
	LowLimitMSvPerHour  = 0.0005
)

// ParseDoseLimit accepts "high"/"low" and the labels shown next to them.
func ParseDoseLimit(s string) (DoseLimit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "µ", "u", "μ", "u").Replace(key)
	switch key {
	case "high", "11usv/h", "0.011":
		return LimitHigh, nil
	case "low", "0.5usv/h", "0,5usv/h", "0.0005":
		return LimitLow, nil
	}
	if isPlaceholder(key) {
		return LimitUnknown, missing("dose rate limit")
	}
	return LimitUnknown, invalid("dose rate limit", s)
}

// Value returns the threshold in mSv/h, or 0 for LimitUnknown.
func (l DoseLimit) Value() float64 {
	switch l {
	case LimitHigh:
		return HighLimitMSvPerHour
	case LimitLow:
		return LowLimitMSvPerHour
	}
	return 0
}

func (l DoseLimit) String() string {
	switch l {
	case LimitHigh:
		return "high"
	case LimitLow:
		return "low"
	}
	return "unknown"
}

// Constants are the physical constants resolved for one calculation.
type Constants struct {
	Gamma              float64 `json:"gamma"`
	CollimatorExponent float64 `json:"collimatorExponent"`
	// Mu is the linear attenuation coefficient in cm⁻¹; 0 means no
	// attenuating material.
	Mu float64 `json:"mu"`
}

// MuPerMetre converts Mu into m⁻¹ for the table grids.
func (c Constants) MuPerMetre() float64 { return c.Mu * 100 }

func (c Constants) String() string {
	return fmt.Sprintf("Γ=%g Y=%g μ=%g cm⁻¹", c.Gamma, c.CollimatorExponent, c.Mu)
}

// ActivityGBq converts curie into GBq.
func ActivityGBq(ci float64) float64 { return ci * GBqPerCurie }

func isPlaceholder(key string) bool {
	switch key {
	case "", "select", "choose", "none", "-", "placeholder", "unselected":
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseCollimator reads the collimator selector ("yes"/"no" and variants).
func ParseCollimator(s string) (bool, error) {
	switch key := normalize(s); key {
	case "yes", "y", "true", "1", "with", "collimator", "on":
		return true, nil
	case "no", "n", "false", "0", "without", "off":
		return false, nil
	default:
		if isPlaceholder(key) {
			return false, missing("collimator")
		}
	}
	return false, invalid("collimator", s)
}
