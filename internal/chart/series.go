package chart

import "sort"

// Palette is the fixed series color cycle.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
}

// Point is one plotted value. X is the 1-based appearance index.
type Point struct {
	X int
	Y float64
}

// Series is one unit's line.
type Series struct {
	Label  string
	Points []Point
	Color  string
}

// Units returns the dataset's units in render order.
func Units(dataset map[string][]float64) []string {
	units := make([]string, 0, len(dataset))
	for unit := range dataset {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}

// ColorFor returns the palette color for the unit at position index.
func ColorFor(index int) string {
	if index < 0 {
		index = -index
	}
	return Palette[index%len(Palette)]
}

// Render builds one series per unit. Every call produces a fresh slice; no
// state carries over between renders.
func Render(dataset map[string][]float64) []Series {
	units := Units(dataset)
	out := make([]Series, 0, len(units))
	for idx, unit := range units {
		values := dataset[unit]
		points := make([]Point, len(values))
		for i, v := range values {
			points[i] = Point{X: i + 1, Y: v}
		}
		out = append(out, Series{Label: unit, Points: points, Color: ColorFor(idx)})
	}
	return out
}
