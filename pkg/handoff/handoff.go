// Package handoff carries a solved calculation to the summary view as a flat
// set of string parameters, and rebuilds it on the other side.
package handoff

import (
	"errors"
	"net/url"
	"strconv"

	"radiography-shield/pkg/materials"
	"radiography-shield/pkg/shielding"
)

// Parameter keys.
const (
	KeyIsotope    = "isotope"
	KeyActivity   = "activity"
	KeyCollimator = "collimator"
	KeyLimit      = "limit"
	KeyMaterial   = "material"
	KeyMu         = "mu"
	KeyGamma      = "gamma"
	KeyExponent   = "collimatorExponent"
	KeyMode       = "mode"
	KeyKnown      = "known"
	KeyResult     = "result"
)

// ErrLinkNotFound is returned for unknown or malformed share codes.
var ErrLinkNotFound = errors.New("summary link not found")

// Summary is the display-side view of a calculation.
type Summary struct {
	Isotope    shielding.Isotope
	Collimator bool
	Limit      shielding.DoseLimit
	Material   string
	Result     shielding.Result
}

// Encode flattens a summary into string parameters.
func Encode(s Summary) map[string]string {
	r := s.Result
	return map[string]string{
		KeyIsotope:    s.Isotope.String(),
		KeyActivity:   num(r.ActivityCi),
		KeyCollimator: strconv.FormatBool(s.Collimator),
		KeyLimit:      s.Limit.String(),
		KeyMaterial:   s.Material,
		KeyMu:         num(r.Constants.Mu),
		KeyGamma:      num(r.Constants.Gamma),
		KeyExponent:   num(r.Constants.CollimatorExponent),
		KeyMode:       r.Mode.String(),
		KeyKnown:      num(r.Known),
		KeyResult:     num(r.Value),
	}
}

// Values is Encode as url.Values, for links.
func Values(s Summary) url.Values {
	v := url.Values{}
	for k, val := range Encode(s) {
		v.Set(k, val)
	}
	return v
}

// Decode rebuilds a summary from parameters. Numbers accept "." or ","
// decimals and the result is recomputed from the echoed inputs.
func Decode(params map[string]string) (Summary, error) {
	iso, err := shielding.ParseIsotope(params[KeyIsotope])
	if err != nil {
		return Summary{}, err
	}
	collimator, err := shielding.ParseCollimator(params[KeyCollimator])
	if err != nil {
		return Summary{}, err
	}
	limit, err := shielding.ParseDoseLimit(params[KeyLimit])
	if err != nil {
		return Summary{}, err
	}
	mode, err := shielding.ParseMode(params[KeyMode])
	if err != nil {
		return Summary{}, err
	}
	activity, err := number(params, KeyActivity, true)
	if err != nil {
		return Summary{}, err
	}
	mu, err := number(params, KeyMu, false)
	if err != nil {
		return Summary{}, err
	}
	known, err := number(params, KeyKnown, false)
	if err != nil {
		return Summary{}, err
	}

	// Γ and Y follow from isotope and collimator; echoed values are ignored.
	problem := shielding.Problem{
		Constants: shielding.Constants{
			Gamma:              iso.Gamma(),
			CollimatorExponent: iso.CollimatorExponent(collimator),
			Mu:                 mu,
		},
		ActivityCi: activity,
		Limit:      limit.Value(),
		Mode:       mode,
		Known:      known,
	}
	res, err := shielding.Solve(problem)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Isotope:    iso,
		Collimator: collimator,
		Limit:      limit,
		Material:   params[KeyMaterial],
		Result:     res,
	}, nil
}

// DecodeValues is Decode for query strings.
func DecodeValues(v url.Values) (Summary, error) {
	params := make(map[string]string, len(v))
	for k := range v {
		params[k] = v.Get(k)
	}
	return Decode(params)
}

// Tables recomputes both grids for the summary.
func (s Summary) Tables() (doseRate, distance shielding.Table) {
	a := shielding.ActivityGBq(s.Result.ActivityCi)
	return shielding.DoseRateTable(a, s.Result.Constants), shielding.DistanceTable(a, s.Result.Constants)
}

func number(params map[string]string, key string, required bool) (float64, error) {
	raw := params[key]
	if raw == "" {
		if required {
			return 0, shielding.NewError(shielding.MissingInput, key, "required")
		}
		return 0, nil
	}
	v, err := materials.ParseFloat(raw)
	if err != nil {
		return 0, shielding.NewError(shielding.InvalidInput, key, "invalid value %q", raw)
	}
	return v, nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
