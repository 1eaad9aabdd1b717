package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultTitle  = "Unified Unit-wise Value Analysis"
	xAxisName     = "Index (Appearance Order)"
	yAxisName     = "Value"
	defaultWidth  = 1024
	defaultHeight = 512
)

// ErrNoData is returned by WritePNG when there is nothing to plot.
var ErrNoData = errors.New("chart: no data to plot")

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  int
	Height int
}

// WritePNG renders series as a line chart. The y axis always includes zero and
// extends below it for negative values; the x axis spans the appearance
// indexes.
func WritePNG(w io.Writer, series []Series, opts Options) error {
	plotted := make([]gochart.Series, 0, len(series))
	maxX := 1
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = float64(p.X)
			ys[i] = p.Y
			if p.X > maxX {
				maxX = p.X
			}
		}
		color := parseColor(s.Color)
		plotted = append(plotted, gochart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(plotted) == 0 {
		return ErrNoData
	}
	if maxX < 2 {
		maxX = 2
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:           xAxisName,
			Range:          &gochart.ContinuousRange{Min: 1, Max: float64(maxX)},
			ValueFormatter: indexFormatter,
		},
		YAxis: gochart.YAxis{
			Name:           yAxisName,
			Range:          yRange(series),
			ValueFormatter: tickFormatter,
		},
		Series: plotted,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart: render png: %w", err)
	}
	return nil
}

// yRange spans zero and every plotted value with ten percent headroom.
func yRange(series []Series) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, p := range s.Points {
			lo = min(lo, p.Y)
			hi = max(hi, p.Y)
		}
	}
	if lo == 0 && hi == 0 {
		hi = 1
	}
	return &gochart.ContinuousRange{Min: lo * 1.1, Max: hi * 1.1}
}

func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}
