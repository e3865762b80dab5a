package report

import (
	"context"
	"fmt"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/linkage"
	"github.com/nasa/opera-sds-bach-api/internal/milestone"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/stats"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RetrievalTimeName is the catalog name of the retrieval time report.
const RetrievalTimeName = "RetrievalTimeReport"

var retrievalMetric = metric{
	kind:    "retrieval-time",
	key:     "retrieval_time",
	title:   "RetrievalTime",
	display: "Retrieval Time",
}

// RetrievalTime measures how long input products took to arrive after they became publicly
// available.
type RetrievalTime struct {
	timing
}

// NewRetrievalTime builds the report. Flavors: summary (default) and detailed.
func NewRetrievalTime(deps Deps, opts Options) (*RetrievalTime, error) {
	b, err := newBase(RetrievalTimeName, []string{Summary, Detailed}, deps, opts)
	if err != nil {
		return nil, err
	}
	r := &RetrievalTime{timing: timing{base: b, metric: retrievalMetric}}
	r.filename = func(ext string) string {
		return render.Filename(retrievalMetric.kind, r.opts.Flavor, r.opts.Start, r.opts.End, ext)
	}
	return r, nil
}

// Populate fetches the input products, links ancillary catalogs and resolves retrieval
// milestones.
func (r *RetrievalTime) Populate(ctx context.Context) error {
	m := r.deps.Mappings
	docs, err := r.fetchPrimary(ctx, config.Collections(m.InputIndexes), r.window(store.TimeKeyDefault))
	if err != nil {
		return err
	}
	log.Info().Int("products", len(docs)).Msg("Fetched input products for retrieval report")

	ix := linkage.NewIndex(docs)
	if len(docs) > 0 {
		if err := r.link(ctx, ix); err != nil {
			return err
		}
	}

	records, _ := milestone.RetrievalAll(ix.Products)
	fams := families(m)
	for i := range records {
		records[i].InputType = records[i].ProductType
		records[i].OutputType = outputFor(fams, records[i].InputType)
	}

	r.all = r.all[:0]
	for _, rec := range records {
		r.all = append(r.all, rec.Duration)
	}

	if r.opts.Flavor == Detailed {
		r.table = r.detailed(records)
		return nil
	}
	return r.summary(stats.Group(records, fams))
}

// link fetches every ancillary source concurrently over the widened window, then attaches
// them in configuration order so the first configured source wins a shared channel.
func (r *RetrievalTime) link(ctx context.Context, ix *linkage.Index) error {
	sources := r.deps.Mappings.Ancillary
	results := make([][]store.Document, len(sources))
	q := store.Window(store.TimeKeyDefault, r.opts.Start, r.opts.End).Shifted(r.deps.Lookback)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			docs, _ := store.FetchCollections(gctx, r.deps.Gateway, []string{src.Index}, q)
			results[i] = docs
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, src := range sources {
		if _, err := linkage.Attach(ix, linkage.Channel(src.Channel), linkage.KeyKind(src.Key), results[i]); err != nil {
			return fmt.Errorf("ancillary source %s: %w", src.Name, err)
		}
	}
	return nil
}

func (r *RetrievalTime) header(title string) []render.HeaderLine {
	return []render.HeaderLine{
		{Key: "Title", Value: title},
		{Key: "Date of Report", Value: r.reportDate()},
		{Key: "Period of Coverage (AcquisitionTime)", Value: r.coverage(" - ")},
	}
}

func (r *RetrievalTime) detailed(records []milestone.Record) *render.Table {
	header := append(r.header("OPERA Retrieval Time Log"),
		render.HeaderLine{Key: "PublicAvailableDateTime", Value: "datetime when the product was first made available to the public by the DAAC."},
		render.HeaderLine{Key: "OperaDetectDateTime", Value: "datetime when the OPERA system first became aware of the product."},
		render.HeaderLine{Key: "ProductReceivedDateTime", Value: "datetime when the product arrived in our system"},
	)

	rows := make([]render.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, render.Row{
			"opera_product_name":        rec.ProductName,
			"product_type":              rec.ProductType,
			"public_available_datetime": iso(rec.Milestones[milestone.PublicAvailable]),
			"opera_detect_datetime":     iso(rec.Milestones[milestone.OperaDetect]),
			"product_received_datetime": iso(rec.Milestones[milestone.ProductReceived]),
			"retrieval_time":            r.duration(rec.Duration, DurationDays),
		})
	}
	return &render.Table{
		Root:   "RETRIEVAL_TIME_DETAILED_REPORT",
		Header: header,
		Columns: []render.Column{
			{Key: "opera_product_name", Title: "OPERA Product File Name"},
			{Key: "product_type", Title: "ProductType"},
			{Key: "public_available_datetime", Title: "PublicAvailableDateTime"},
			{Key: "opera_detect_datetime", Title: "OperaDetectDateTime"},
			{Key: "product_received_datetime", Title: "ProductReceivedDateTime"},
			{Key: "retrieval_time", Title: "RetrievalTime"},
		},
		Rows: rows,
	}
}

func (r *RetrievalTime) summary(groups []stats.Row) error {
	rows, images, err := r.summaryRows(groups, DurationDays, func(g stats.Row) render.Row {
		return render.Row{
			"opera_product_short_name": g.OutputType,
			"input_product_short_name": g.InputType,
		}
	})
	if err != nil {
		return err
	}
	r.table = &render.Table{
		Root:   "RETRIEVAL_TIME_SUMMARY_REPORT",
		Header: r.header("OPERA Retrieval Time Summary"),
		Columns: r.summaryColumns(
			render.Column{Key: "opera_product_short_name", Title: "OPERA Product Short Name"},
			render.Column{Key: "input_product_short_name", Title: "Input Product Short Name"},
		),
		Rows:   rows,
		Images: images,
	}
	return nil
}
