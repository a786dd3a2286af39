// Package materials resolves a form's isotope, collimator and material choice
// into the physical constants the shielding solver needs.
package materials

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"radiography-shield/pkg/shielding"
)

// Predefined material keys.
const (
	Lead     = "lead"
	Steel    = "steel"
	Concrete = "concrete"
	Tungsten = "tungsten"
)

// predefined holds μ in cm⁻¹ derived from published half-value layers
// (μ = ln2 / HVL).
var predefined = map[string]map[shielding.Isotope]float64{
	Lead:     {shielding.Ir192: 1.444, shielding.Se75: 6.931},
	Steel:    {shielding.Ir192: 0.546, shielding.Se75: 0.866},
	Concrete: {shielding.Ir192: 0.156, shielding.Se75: 0.231},
	Tungsten: {shielding.Ir192: 2.100, shielding.Se75: 8.664},
}

// Predefined lists the predefined material keys in display order.
func Predefined() []string { return []string{Lead, Steel, Concrete, Tungsten} }

// PredefinedCoefficient looks up μ for a predefined material.
func PredefinedCoefficient(name string, iso shielding.Isotope) (float64, bool) {
	byIso, ok := predefined[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, false
	}
	mu, ok := byIso[iso]
	return mu, ok
}

// Coefficients is a user's saved material: μ for each supported isotope.
type Coefficients struct {
	AttenuationIr float64 `json:"attenuationIr" db:"attenuation_ir"`
	AttenuationSe float64 `json:"attenuationSe" db:"attenuation_se"`
}

// For returns the coefficient for iso.
func (c Coefficients) For(iso shielding.Isotope) float64 {
	if iso == shielding.Se75 {
		return c.AttenuationSe
	}
	return c.AttenuationIr
}

// Validate rejects negative or non-finite coefficients.
func (c Coefficients) Validate() error {
	for field, v := range map[string]float64{"attenuationIr": c.AttenuationIr, "attenuationSe": c.AttenuationSe} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return shielding.NewError(shielding.InvalidInput, field, "must be a non-negative number")
		}
	}
	return nil
}

// UnmarshalJSON accepts numbers as well as numeric strings such as "0,292"
// because saved entries come from locale-dependent keyboards.
func (c *Coefficients) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ir json.RawMessage `json:"attenuationIr"`
		Se json.RawMessage `json:"attenuationSe"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ir, err := flexNumber(raw.Ir)
	if err != nil {
		return fmt.Errorf("attenuationIr: %w", err)
	}
	se, err := flexNumber(raw.Se)
	if err != nil {
		return fmt.Errorf("attenuationSe: %w", err)
	}
	c.AttenuationIr, c.AttenuationSe = ir, se
	return nil
}

func flexNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseFloat(s)
}

var errNotNumber = errors.New("not a number")

// ParseFloat parses a number typed on either a "." or "," decimal keyboard.
// Blank input and NaN/Inf spellings are rejected.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotNumber
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumber
	}
	return f, nil
}
