package handoff

import (
	"bytes"
	"errors"
	"math"
	"net/url"
	"testing"

	"radiography-shield/pkg/shielding"
)

func solved(t *testing.T) Summary {
	t.Helper()
	res, err := shielding.Solve(shielding.Problem{
		Constants:  shielding.Constants{Gamma: shielding.Ir192.Gamma(), CollimatorExponent: shielding.Ir192.CollimatorExponent(true), Mu: 0.292},
		ActivityCi: 10,
		Limit:      shielding.HighLimitMSvPerHour,
		Mode:       shielding.SolveDistance,
		Known:      50,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return Summary{Isotope: shielding.Ir192, Collimator: true, Limit: shielding.LimitHigh, Material: "Barite", Result: res}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	in := solved(t)
	params := Encode(in)
	for _, key := range []string{KeyIsotope, KeyActivity, KeyCollimator, KeyLimit, KeyMaterial, KeyMu, KeyGamma, KeyExponent, KeyMode, KeyKnown, KeyResult} {
		if params[key] == "" {
			t.Fatalf("param %q missing in %v", key, params)
		}
	}

	out, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Material != "Barite" || out.Isotope != shielding.Ir192 || !out.Collimator {
		t.Fatalf("decoded %+v", out)
	}
	if math.Abs(out.Result.Value-in.Result.Value) > 1e-12 {
		t.Fatalf("result %v want %v", out.Result.Value, in.Result.Value)
	}
}

func TestDecodeCommaDecimals(t *testing.T) {
	t.Parallel()

	params := Encode(solved(t))
	params[KeyMu] = "0,292"
	params[KeyActivity] = "10,0"
	out, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Result.Constants.Mu != 0.292 || out.Result.ActivityCi != 10 {
		t.Fatalf("decoded %+v", out.Result)
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	params := Encode(solved(t))
	params[KeyActivity] = "abc"
	if _, err := Decode(params); !errors.Is(err, shielding.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input", err)
	}

	params = Encode(solved(t))
	delete(params, KeyIsotope)
	if _, err := Decode(params); !errors.Is(err, shielding.ErrMissingInput) {
		t.Fatalf("err=%v want missing input", err)
	}
}

func TestDecodeValuesAndTables(t *testing.T) {
	t.Parallel()

	v := Values(solved(t))
	out, err := DecodeValues(url.Values(v))
	if err != nil {
		t.Fatalf("DecodeValues: %v", err)
	}
	doseRate, distance := out.Tables()
	if len(doseRate.Cells) != len(shielding.TableDistances) || len(distance.Cells) != len(shielding.TableTargets) {
		t.Fatalf("table shapes %d/%d", len(doseRate.Cells), len(distance.Cells))
	}
}

func TestQRCode(t *testing.T) {
	t.Parallel()

	png, err := QRCode("https://example.org/summary?"+Values(solved(t)).Encode(), 64)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("not a PNG")
	}
	if _, err := QRCode("", 256); err == nil {
		t.Fatalf("empty link accepted")
	}
}
