package shielding

import (
	"math"
	"strconv"
)

// LayerThicknessMM is the thickness of one shielding layer in the grids.
const LayerThicknessMM = 10

// Placeholder fills cells that cannot be computed.
const Placeholder = "-"

// Fixed grid axes.
var (
	TableDistances = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100}
	TableLayers    = []int{0, 1, 2, 3, 4, 6, 8, 10}
	// TableTargets are dose-rate thresholds in mSv/h, strictest last.
	TableTargets = []float64{1, 0.1, 0.04, 0.02, HighLimitMSvPerHour, 0.0075, 0.0025, LowLimitMSvPerHour}
)

// Table is a presentational grid: Rows × Columns cells, formatted to two
// decimals. Values holds the same numbers, NaN where Cells has Placeholder.
type Table struct {
	Title   string      `json:"title"`
	Rows    []string    `json:"rows"`
	Columns []string    `json:"columns"`
	Cells   [][]string  `json:"cells"`
	Values  [][]float64 `json:"-"`
}

// UnshieldedDoseRate is A·Γ / (d²·2^Y) in mSv/h.
func UnshieldedDoseRate(activityGBq float64, c Constants, distanceM float64) float64 {
	return activityGBq * c.Gamma / (distanceM * distanceM * math.Pow(2, c.CollimatorExponent))
}

// Attenuation is exp(-μ·t) for a thickness in millimetres.
func Attenuation(c Constants, thicknessMM float64) float64 {
	return math.Exp(-c.MuPerMetre() * thicknessMM / 1000)
}

// DoseRate is the shielded dose rate in mSv/h at distanceM behind
// thicknessMM of the resolved material.
func DoseRate(activityGBq float64, c Constants, distanceM, thicknessMM float64) float64 {
	return UnshieldedDoseRate(activityGBq, c, distanceM) * Attenuation(c, thicknessMM)
}

// DoseRateTable grids dose rate over standoff distance (rows) and shielding
// layer count (columns).
func DoseRateTable(activityGBq float64, c Constants) Table {
	t := Table{
		Title:   "Dose rate (mSv/h)",
		Rows:    labels(TableDistances, " m"),
		Columns: layerLabels(),
	}
	muM := c.MuPerMetre()
	for _, d := range TableDistances {
		base := UnshieldedDoseRate(activityGBq, c, d)
		cells := make([]string, len(TableLayers))
		values := make([]float64, len(TableLayers))
		for j, layers := range TableLayers {
			v := base * math.Exp(-muM*float64(layers)*0.01)
			values[j] = v
			cells[j] = formatCell(v)
			if cells[j] == Placeholder {
				values[j] = math.NaN()
			}
		}
		t.Cells = append(t.Cells, cells)
		t.Values = append(t.Values, values)
	}
	return t
}

// DistanceTable grids the distance required to reach each target dose rate
// (rows) behind each layer count (columns).
func DistanceTable(activityGBq float64, c Constants) Table {
	t := Table{
		Title:   "Required distance (m)",
		Rows:    labels(TableTargets, " mSv/h"),
		Columns: layerLabels(),
	}
	muM := c.MuPerMetre()
	collimator := math.Pow(2, c.CollimatorExponent)
	for _, target := range TableTargets {
		cells := make([]string, len(TableLayers))
		values := make([]float64, len(TableLayers))
		for j, layers := range TableLayers {
			values[j] = math.NaN()
			cells[j] = Placeholder
			if target <= 0 {
				continue
			}
			thickness := float64(layers) * 0.01
			radicand := activityGBq * c.Gamma * math.Exp(-muM*thickness) / (target * collimator)
			if radicand < 0 || math.IsNaN(radicand) {
				continue
			}
			v := math.Sqrt(radicand)
			if s := formatCell(v); s != Placeholder {
				values[j] = v
				cells[j] = s
			}
		}
		t.Cells = append(t.Cells, cells)
		t.Values = append(t.Values, values)
	}
	return t
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func labels(values []float64, unit string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64) + unit
	}
	return out
}

func layerLabels() []string {
	out := make([]string, len(TableLayers))
	for i, n := range TableLayers {
		out[i] = strconv.Itoa(n*LayerThicknessMM) + " mm"
	}
	return out
}
