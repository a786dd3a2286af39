package materials

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"radiography-shield/pkg/shielding"
)

func TestParseFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "0.292", want: 0.292, ok: true},
		{in: "0,292", want: 0.292, ok: true},
		{in: " 12 ", want: 12, ok: true},
		{in: "-1,5", want: -1.5, ok: true},
		{in: "", ok: false},
		{in: "abc", ok: false},
		{in: "1,000.5", ok: false},
		{in: "NaN", ok: false},
		{in: "Inf", ok: false},
	}
	for _, tc := range tests {
		got, err := ParseFloat(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseFloat(%q) err=%v want ok=%t", tc.in, err, tc.ok)
		}
		if tc.ok && math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("ParseFloat(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		material string
		kind     Kind
		name     string
	}{
		{material: "", kind: KindUnselected},
		{material: "Select", kind: KindUnselected},
		{material: "none", kind: KindNone},
		{material: "Lead", kind: KindPredefined, name: Lead},
		{material: "Other", kind: KindOther, name: "Brick"},
		{material: "Barite block", kind: KindCustom, name: "Barite block"},
	}
	for _, tc := range tests {
		sel := ParseSelection(tc.material, "Brick", "", "")
		if sel.Kind != tc.kind || (tc.name != "" && sel.Name != tc.name) {
			t.Fatalf("ParseSelection(%q)=%+v want kind %v name %q", tc.material, sel, tc.kind, tc.name)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	custom := map[string]Coefficients{
		"Barite": {AttenuationIr: 0.292, AttenuationSe: 0.41},
		"Empty":  {AttenuationIr: 0, AttenuationSe: 0.2},
	}

	tests := []struct {
		name    string
		req     Request
		wantMu  float64
		wantY   float64
		wantErr error
	}{
		{
			name:   "none distance",
			req:    Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindNone}, Mode: shielding.SolveDistance},
			wantMu: 0,
		},
		{
			name:    "none thickness",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindNone}, Mode: shielding.SolveThickness},
			wantErr: shielding.ErrUnresolvedCoefficient,
		},
		{
			name:   "predefined with collimator",
			req:    Request{Isotope: shielding.Se75, Collimator: true, Material: Selection{Kind: KindPredefined, Name: Steel}, Mode: shielding.SolveThickness},
			wantMu: 0.866,
			wantY:  6,
		},
		{
			name:    "predefined unknown",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindPredefined, Name: "granite"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrUnresolvedCoefficient,
		},
		{
			name:   "custom",
			req:    Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindCustom, Name: "Barite"}, Mode: shielding.SolveDistance},
			wantMu: 0.292,
		},
		{
			name:    "custom deleted",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindCustom, Name: "Gone"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrUnresolvedCoefficient,
		},
		{
			name:    "custom zero for isotope",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindCustom, Name: "Empty"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrUnresolvedCoefficient,
		},
		{
			name:   "other comma decimal",
			req:    Request{Isotope: shielding.Se75, Material: Selection{Kind: KindOther, Name: "Brick", OtherSe: "0,35"}, Mode: shielding.SolveThickness},
			wantMu: 0.35,
		},
		{
			name:    "other without name",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindOther, Name: "  ", OtherIr: "0.3"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrMissingInput,
		},
		{
			name:   "other blank coefficient distance",
			req:    Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindOther, Name: "Brick"}, Mode: shielding.SolveDistance},
			wantMu: 0,
		},
		{
			name:    "other blank coefficient thickness",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindOther, Name: "Brick"}, Mode: shielding.SolveThickness},
			wantErr: shielding.ErrUnresolvedCoefficient,
		},
		{
			name:    "other non numeric",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindOther, Name: "Brick", OtherIr: "x"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrInvalidInput,
		},
		{
			name:    "other negative",
			req:     Request{Isotope: shielding.Ir192, Material: Selection{Kind: KindOther, Name: "Brick", OtherIr: "-0.2"}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrInvalidInput,
		},
		{
			name:    "unselected material",
			req:     Request{Isotope: shielding.Ir192, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrMissingInput,
		},
		{
			name:    "unselected isotope",
			req:     Request{Material: Selection{Kind: KindNone}, Mode: shielding.SolveDistance},
			wantErr: shielding.ErrMissingInput,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := Resolve(tc.req, custom)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Resolve err=%v want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if math.Abs(c.Mu-tc.wantMu) > 1e-12 || c.CollimatorExponent != tc.wantY {
				t.Fatalf("Resolve=%+v want μ=%v Y=%v", c, tc.wantMu, tc.wantY)
			}
			if c.Gamma != tc.req.Isotope.Gamma() {
				t.Fatalf("Gamma=%v want %v", c.Gamma, tc.req.Isotope.Gamma())
			}
		})
	}
}

func TestOtherNameRequiredMessage(t *testing.T) {
	t.Parallel()

	_, err := Resolve(Request{
		Isotope:  shielding.Ir192,
		Material: ParseSelection("Other", "", "0.3", ""),
		Mode:     shielding.SolveDistance,
	}, nil)
	if err == nil || err.Error() != "calculation error: otherName: other material name required" {
		t.Fatalf("err=%v", err)
	}
}

func TestCoefficientsUnmarshalFlexible(t *testing.T) {
	t.Parallel()

	var c Coefficients
	if err := json.Unmarshal([]byte(`{"attenuationIr":"0,292","attenuationSe":0.41}`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.AttenuationIr != 0.292 || c.AttenuationSe != 0.41 {
		t.Fatalf("got %+v", c)
	}
	if err := json.Unmarshal([]byte(`{"attenuationIr":"abc"}`), &c); err == nil {
		t.Fatalf("expected error for non-numeric coefficient")
	}
}
