package histogram

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"github.com/nasa/opera-sds-bach-api/internal/stats"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options describe the chart labels and size.
type Options struct {
	Title  string
	Metric string
	Unit   string
	Width  vg.Length
	Height vg.Length
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

// Hours converts durations in seconds to hours.
func Hours(seconds []float64) []float64 {
	out := make([]float64, len(seconds))
	for i, s := range seconds {
		out[i] = s / 3600
	}
	return out
}

// Render plots values as a histogram and returns PNG bytes. The x axis is ticked at the P90
// and, when there are at least two values, the minimum and maximum; a dashed line marks the
// P90. Empty series render an empty chart.
func Render(values []float64, opts Options) ([]byte, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = fmt.Sprintf("%s (%s)", opts.Metric, opts.Unit)
	p.HideY()

	if len(values) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		p.X.Tick.Marker = plot.ConstantTicks(nil)
	} else {
		bins := binValues(values, Bins(values))
		hist := &plotter.Histogram{
			Bins:      bins,
			Width:     bins[len(bins)-1].Max - bins[0].Min,
			FillColor: color.RGBA{R: 31, G: 119, B: 180, A: 255},
			LineStyle: plotter.DefaultLineStyle,
		}

		peak := 0.0
		for _, b := range bins {
			peak = max(peak, b.Weight)
		}
		p90 := stats.Percentile(values, 0.9)
		marker, err := plotter.NewLine(plotter.XYs{{X: p90, Y: 0}, {X: p90, Y: peak}})
		if err != nil {
			return nil, fmt.Errorf("failed to build p90 marker: %w", err)
		}
		marker.LineStyle.Color = color.Gray{Y: 64}
		marker.LineStyle.Width = vg.Points(1)
		marker.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

		p.Add(hist, marker)
		p.X.Tick.Marker = plot.ConstantTicks(ticks(values, p90))
	}

	w, h := opts.size()
	canvas := vgimg.New(w, h)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode histogram: %w", err)
	}
	log.Debug().Str("title", opts.Title).Int("values", len(values)).Int("bytes", buf.Len()).Msg("Rendered histogram")
	return buf.Bytes(), nil
}

func ticks(values []float64, p90 float64) []plot.Tick {
	out := []plot.Tick{{Value: p90, Label: fmt.Sprintf("%.2f", p90)}}
	if len(values) >= 2 {
		lo, hi := floats.Min(values), floats.Max(values)
		out = append(out,
			plot.Tick{Value: lo, Label: fmt.Sprintf("%.2f", lo)},
			plot.Tick{Value: hi, Label: fmt.Sprintf("%.2f", hi)})
	}
	return out
}

// Encode returns the base64 text form of an image.
func Encode(png []byte) string {
	return base64.StdEncoding.EncodeToString(png)
}
