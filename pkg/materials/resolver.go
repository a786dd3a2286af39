package materials

import (
	"strings"

	"radiography-shield/pkg/shielding"
)

// Kind is the shape of a material selection.
type Kind int

const (
	KindUnselected Kind = iota
	KindNone
	KindPredefined
	KindCustom
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPredefined:
		return "predefined"
	case KindCustom:
		return "custom"
	case KindOther:
		return "other"
	}
	return "unselected"
}

// Selection is the material chosen on the calculator form. For KindOther the
// coefficients are the raw strings typed inline.
type Selection struct {
	Kind    Kind
	Name    string
	OtherIr string
	OtherSe string
}

// Label is the material name shown on summaries.
func (s Selection) Label() string {
	switch s.Kind {
	case KindNone:
		return "none"
	case KindOther:
		return strings.TrimSpace(s.Name)
	}
	return s.Name
}

// ParseSelection maps the material selector value onto a Selection. The
// names "none" and "other" are reserved; predefined keys win over custom
// entries with the same name.
func ParseSelection(material, otherName, otherIr, otherSe string) Selection {
	name := strings.TrimSpace(material)
	switch key := strings.ToLower(name); key {
	case "", "select", "choose", "placeholder":
		return Selection{Kind: KindUnselected}
	case "none", "no material":
		return Selection{Kind: KindNone}
	case "other":
		return Selection{Kind: KindOther, Name: otherName, OtherIr: otherIr, OtherSe: otherSe}
	default:
		if _, ok := predefined[key]; ok {
			return Selection{Kind: KindPredefined, Name: key}
		}
	}
	return Selection{Kind: KindCustom, Name: name}
}

// Request is everything the resolver needs from the form.
type Request struct {
	Isotope    shielding.Isotope
	Collimator bool
	Material   Selection
	Mode       shielding.Mode
}

// Resolve turns a request into physical constants. custom is the user's
// saved-material snapshot keyed by name.
func Resolve(req Request, custom map[string]Coefficients) (shielding.Constants, error) {
	if !req.Isotope.Valid() {
		return shielding.Constants{}, shielding.NewError(shielding.MissingInput, "isotope", "required")
	}
	c := shielding.Constants{
		Gamma:              req.Isotope.Gamma(),
		CollimatorExponent: req.Isotope.CollimatorExponent(req.Collimator),
	}

	sel := req.Material
	switch sel.Kind {
	case KindNone:
		if req.Mode == shielding.SolveThickness {
			return shielding.Constants{}, shielding.NewError(shielding.UnresolvedCoefficient, "material",
				"no attenuating material to solve a thickness for")
		}
		return c, nil

	case KindPredefined:
		mu, ok := PredefinedCoefficient(sel.Name, req.Isotope)
		if !ok || mu <= 0 {
			return shielding.Constants{}, shielding.NewError(shielding.UnresolvedCoefficient, "material",
				"no coefficient for %s with %s", sel.Name, req.Isotope)
		}
		c.Mu = mu
		return c, nil

	case KindCustom:
		saved, ok := custom[sel.Name]
		if !ok {
			return shielding.Constants{}, shielding.NewError(shielding.UnresolvedCoefficient, "material",
				"custom material %q no longer exists", sel.Name)
		}
		mu := saved.For(req.Isotope)
		if err := saved.Validate(); err != nil || mu <= 0 {
			return shielding.Constants{}, shielding.NewError(shielding.UnresolvedCoefficient, "material",
				"custom material %q has no valid coefficient for %s", sel.Name, req.Isotope)
		}
		c.Mu = mu
		return c, nil

	case KindOther:
		if strings.TrimSpace(sel.Name) == "" {
			return shielding.Constants{}, shielding.NewError(shielding.MissingInput, "otherName",
				"other material name required")
		}
		raw, field := sel.OtherIr, "otherIr"
		if req.Isotope == shielding.Se75 {
			raw, field = sel.OtherSe, "otherSe"
		}
		mu := 0.0
		if strings.TrimSpace(raw) != "" {
			v, err := ParseFloat(raw)
			if err != nil || v < 0 {
				return shielding.Constants{}, shielding.NewError(shielding.InvalidInput, field,
					"invalid attenuation coefficient %q", raw)
			}
			mu = v
		}
		if mu == 0 && req.Mode == shielding.SolveThickness {
			return shielding.Constants{}, shielding.NewError(shielding.UnresolvedCoefficient, field,
				"attenuation coefficient required to solve a thickness")
		}
		c.Mu = mu
		return c, nil
	}

	return shielding.Constants{}, shielding.NewError(shielding.MissingInput, "material", "required")
}
