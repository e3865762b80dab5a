package report

import (
	"context"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/milestone"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/stats"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/rs/zerolog/log"
)

// ProductionTimeName is the catalog name of the production time report.
const ProductionTimeName = "ProductionTimeReport"

var productionMetric = metric{
	kind:    "production-time",
	key:     "production_time",
	title:   "ProductionTime",
	display: "Production Time",
}

// ProductionTime measures the time from input receipt to the archive being alerted of the
// generated product.
type ProductionTime struct {
	timing
}

// NewProductionTime builds the report. Flavors: summary (default) and detailed.
func NewProductionTime(deps Deps, opts Options) (*ProductionTime, error) {
	b, err := newBase(ProductionTimeName, []string{Summary, Detailed}, deps, opts)
	if err != nil {
		return nil, err
	}
	p := &ProductionTime{timing: timing{base: b, metric: productionMetric}}
	p.filename = func(ext string) string {
		return render.Filename(productionMetric.kind, p.opts.Flavor, p.opts.Start, p.opts.End, ext)
	}
	return p, nil
}

// Populate fetches generated products and resolves their production milestones. Products the
// archive was not yet alerted about are skipped.
func (p *ProductionTime) Populate(ctx context.Context) error {
	docs, err := p.fetchPrimary(ctx, config.Collections(p.deps.Mappings.ProductIndexes), p.window(store.TimeKeyDefault))
	if err != nil {
		return err
	}
	log.Info().Int("products", len(docs)).Msg("Fetched generated products for production report")

	status := make(map[string]string, len(docs))
	for _, d := range docs {
		status[d.FileName()] = milestone.TransferStatus(d)
	}

	records, _ := milestone.ProductionAll(docs)
	p.all = p.all[:0]
	for i := range records {
		records[i].OutputType = records[i].ProductType
		p.all = append(p.all, records[i].Duration)
	}

	if p.opts.Flavor == Detailed {
		p.table = p.detailed(records, status)
		return nil
	}
	return p.summary(stats.GroupByOutput(records))
}

func (p *ProductionTime) header(title string) []render.HeaderLine {
	return []render.HeaderLine{
		{Key: "Title", Value: title},
		{Key: "Date of Report", Value: p.reportDate()},
		{Key: "Period of Coverage (AcquisitionTime)", Value: p.coverage("-")},
	}
}

func (p *ProductionTime) detailed(records []milestone.Record, status map[string]string) *render.Table {
	rows := make([]render.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, render.Row{
			"opera_product_name":       rec.ProductName,
			"opera_product_short_name": rec.ProductType,
			"input_received_datetime":  iso(rec.Milestones[milestone.InputReceived]),
			"daac_alerted_datetime":    iso(rec.Milestones[milestone.DaacAlerted]),
			"production_time":          p.duration(rec.Duration, DurationHours),
			"transfer_status":          status[rec.ProductName],
		})
	}
	return &render.Table{
		Root:   "PRODUCTION_TIME_DETAILED_REPORT",
		Header: p.header("OPERA Production Time Log"),
		Columns: []render.Column{
			{Key: "opera_product_name", Title: "OPERA Product File Name"},
			{Key: "opera_product_short_name", Title: "OPERA Product Short Name"},
			{Key: "input_received_datetime", Title: "InputReceivedDateTime"},
			{Key: "daac_alerted_datetime", Title: "DaacAlertedDateTime"},
			{Key: "production_time", Title: "ProductionTime"},
			{Key: "transfer_status", Title: "TransferStatus"},
		},
		Rows: rows,
	}
}

func (p *ProductionTime) summary(groups []stats.Row) error {
	rows, images, err := p.summaryRows(groups, DurationHours, func(g stats.Row) render.Row {
		return render.Row{"opera_product_short_name": g.OutputType}
	})
	if err != nil {
		return err
	}
	p.table = &render.Table{
		Root:    "PRODUCTION_TIME_SUMMARY_REPORT",
		Header:  p.header("OPERA Production Time Summary"),
		Columns: p.summaryColumns(render.Column{Key: "opera_product_short_name", Title: "OPERA Product Short Name"}),
		Rows:    rows,
		Images:  images,
	}
	return nil
}
