package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/histogram"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/stats"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"github.com/rs/zerolog/log"
)

// metric describes one duration metric for summary tables and charts.
type metric struct {
	kind    string // file name stem, e.g. retrieval-time
	key     string // column key prefix, e.g. retrieval_time
	title   string // column title prefix, e.g. RetrievalTime
	display string // chart label, e.g. Retrieval Time
}

// timing is shared by the retrieval and production reports: summary rows, charts and the
// single-image PNG output.
type timing struct {
	base
	metric metric
	// all holds every duration of the report for the overall chart.
	all []float64
}

func (t *timing) Supports(mime string) bool {
	if mime == render.MimePNG {
		return t.opts.Flavor == Summary
	}
	return t.base.Supports(mime)
}

func (t *timing) Render(ctx context.Context, mime string, w io.Writer) error {
	if mime != render.MimePNG {
		return t.base.Render(ctx, mime, w)
	}
	if t.table == nil {
		return ErrNotPopulated
	}
	if t.opts.Flavor != Summary {
		return fmt.Errorf("%w: image/png is only available for summary reports", render.ErrUnsupportedFormat)
	}
	png, err := histogram.Render(histogram.Hours(t.all), histogram.Options{
		Title:  t.metric.display + "s",
		Metric: t.metric.display,
		Unit:   "hours",
	})
	if err != nil {
		return err
	}
	single := *t.table
	single.Images = []render.Image{{Name: t.filename("png"), PNG: png}}
	return render.PNG(w, &single)
}

// summaryColumns lists the statistics columns; label columns come first.
func (t *timing) summaryColumns(labels ...render.Column) []render.Column {
	cols := append([]render.Column{}, labels...)
	for _, s := range []struct{ key, title string }{
		{"count", "count"}, {"p90", "P90"}, {"min", "min"}, {"max", "max"}, {"mean", "mean"}, {"median", "median"},
	} {
		cols = append(cols, render.Column{
			Key:   t.metric.key + "_" + s.key,
			Title: fmt.Sprintf("%s (%s)", t.metric.title, s.title),
		})
	}
	if t.opts.Histograms {
		cols = append(cols, render.Column{Key: "histogram", Title: "histogram", Binary: true})
	}
	return cols
}

// summaryRows renders stats rows, adding charts when enabled. label fills the label cells.
func (t *timing) summaryRows(rows []stats.Row, def string, label func(stats.Row) render.Row) ([]render.Row, []render.Image, error) {
	out := make([]render.Row, 0, len(rows))
	var images []render.Image
	for _, r := range rows {
		cells := label(r)
		cells[t.metric.key+"_count"] = r.Count
		cells[t.metric.key+"_p90"] = t.duration(r.P90, def)
		cells[t.metric.key+"_min"] = t.duration(r.Min, def)
		cells[t.metric.key+"_max"] = t.duration(r.Max, def)
		cells[t.metric.key+"_mean"] = t.duration(r.Mean, def)
		cells[t.metric.key+"_median"] = t.duration(r.Median, def)

		if t.opts.Histograms {
			title := r.InputType
			if title == "" || title == stats.AllInputs {
				title = r.OutputType + " " + title
			}
			png, err := histogram.Render(histogram.Hours(r.Values), histogram.Options{
				Title:  title,
				Metric: t.metric.display,
				Unit:   "hours",
			})
			if err != nil {
				return nil, nil, fmt.Errorf("histogram for %s/%s: %w", r.OutputType, r.InputType, err)
			}
			cells["histogram"] = png
			images = append(images, render.Image{
				Name: render.ImageName(t.metric.kind, []string{r.OutputType, r.InputType}, t.opts.Start, t.opts.End),
				PNG:  png,
			})
		}
		out = append(out, cells)
	}
	log.Debug().Str("report", t.name).Int("rows", len(out)).Int("charts", len(images)).Msg("Built summary rows")
	return out, images, nil
}

func iso(ts time.Time) string {
	return ts.UTC().Format(timefmt.ISO)
}
