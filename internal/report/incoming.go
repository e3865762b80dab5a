package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// IncomingFilesName is the catalog name of the incoming files report.
const IncomingFilesName = "IncomingFiles"

// IncomingFiles counts the science (sdp) or ancillary files received in the window.
type IncomingFiles struct {
	base
}

// NewIncomingFiles builds the report. Flavors: sdp (default) and ancillary.
func NewIncomingFiles(deps Deps, opts Options) (*IncomingFiles, error) {
	b, err := newBase(IncomingFilesName, []string{SDP, Ancillary}, deps, opts)
	if err != nil {
		return nil, err
	}
	r := &IncomingFiles{base: b}
	r.filename = func(ext string) string {
		return fmt.Sprintf("incoming_%s_files_%s_%s.%s", r.opts.Flavor,
			timefmt.Compact(r.opts.Start), timefmt.Compact(r.opts.End), ext)
	}
	return r, nil
}

func (r *IncomingFiles) collections() map[string]string {
	if r.opts.Flavor == Ancillary {
		return r.deps.Mappings.IncomingAncillary
	}
	return r.deps.Mappings.InputIndexes
}

// Populate fetches every incoming collection and records file counts and volume.
func (r *IncomingFiles) Populate(ctx context.Context) error {
	counts, err := incoming(ctx, &r.base, r.collections())
	if err != nil {
		return err
	}
	files, vol := totals(counts)

	rows := make([]render.Row, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, render.Row{"name": c.Name, "num_ingested": c.Files, "volume": c.Volume})
	}
	r.table = &render.Table{
		Root: fmt.Sprintf("INCOMING_%s_PRODUCTS_REPORT", strings.ToUpper(r.opts.Flavor)),
		Header: r.listHeader(
			render.HeaderLine{Key: "total_products_produced", Value: strconv.Itoa(files)},
			render.HeaderLine{Key: "total_data_volume", Value: number(vol)},
		),
		Columns: []render.Column{
			{Key: "name", Title: "name"},
			{Key: "num_ingested", Title: "num_ingested"},
			{Key: "volume", Title: "volume"},
		},
		Rows: rows,
	}
	return nil
}

// incoming tallies collections on their family's time key with the universal filters.
func incoming(ctx context.Context, b *base, named map[string]string) ([]tally, error) {
	m := b.deps.Mappings
	accountability := config.Collections(m.AccountabilityIndexes)
	stateConfig := config.Collections(m.StateConfigIndexes)
	return tallyCollections(ctx, b.deps.Gateway, named, func(collection string) store.Query {
		q := b.window(store.TimeKeyFor(collection, accountability, stateConfig))
		q.Source = []string{"metadata.FileSize", "metadata.ProcessingType"}
		return q
	})
}
