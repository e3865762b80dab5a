package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nasa/opera-sds-bach-api/internal/milestone"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// DaacOutgoingName is the catalog name of the outgoing products report.
const DaacOutgoingName = "DaacOutgoingProducts"

// DaacOutgoing counts products successfully delivered to the archive.
type DaacOutgoing struct {
	base
}

// NewDaacOutgoing builds the report. Flavors: brief (default, per collection totals) and
// detailed (one row per delivered product).
func NewDaacOutgoing(deps Deps, opts Options) (*DaacOutgoing, error) {
	b, err := newBase(DaacOutgoingName, []string{Brief, Detailed}, deps, opts)
	if err != nil {
		return nil, err
	}
	r := &DaacOutgoing{base: b}
	r.filename = func(ext string) string {
		return fmt.Sprintf("OFTD_%s_%s_%s.%s", r.opts.Flavor,
			timefmt.Compact(r.opts.Start), timefmt.Compact(r.opts.End), ext)
	}
	return r, nil
}

// delivered tallies the outgoing collections, keeping only documents the archive
// acknowledged.
func delivered(ctx context.Context, b *base) ([]tally, error) {
	return tallyCollections(ctx, b.deps.Gateway, b.deps.Mappings.OutgoingProducts, func(string) store.Query {
		q := b.window(store.TimeKeyDefault).WithMatch("daac_delivery_status", "SUCCESS")
		q.Source = []string{"metadata.FileSize", "metadata.FileName", "daac_delivery_status", "daac_CNM_S_status", "daac_CNM_S_timestamp"}
		return q
	})
}

// Populate fetches delivered products per outgoing collection.
func (r *DaacOutgoing) Populate(ctx context.Context) error {
	counts, err := delivered(ctx, &r.base)
	if err != nil {
		return err
	}
	files, vol := totals(counts)

	r.table = &render.Table{
		Root: "OUTGOING_PRODUCTS_TO_DAAC_" + strings.ToUpper(r.opts.Flavor),
		Header: r.listHeader(
			render.HeaderLine{Key: "total_products_produced", Value: strconv.Itoa(files)},
			render.HeaderLine{Key: "total_data_volume", Value: number(vol)},
		),
	}
	if r.opts.Flavor == Detailed {
		r.detailed(counts)
		return nil
	}

	r.table.Columns = []render.Column{
		{Key: "name", Title: "name"},
		{Key: "products_delivered", Title: "products_delivered"},
		{Key: "volume", Title: "volume"},
	}
	for _, c := range counts {
		r.table.Rows = append(r.table.Rows, render.Row{"name": c.Name, "products_delivered": c.Files, "volume": c.Volume})
	}
	return nil
}

func (r *DaacOutgoing) detailed(counts []tally) {
	r.table.Columns = []render.Column{
		{Key: "name", Title: "name"},
		{Key: "file_name", Title: "file_name"},
		{Key: "file_size", Title: "file_size"},
		{Key: "daac_alerted_datetime", Title: "daac_alerted_datetime"},
		{Key: "transfer_status", Title: "transfer_status"},
	}
	for _, c := range counts {
		for _, d := range c.Docs {
			size, _ := d.Float("metadata", "FileSize")
			r.table.Rows = append(r.table.Rows, render.Row{
				"name":                  c.Name,
				"file_name":             d.FileName(),
				"file_size":             size,
				"daac_alerted_datetime": d.String("daac_CNM_S_timestamp"),
				"transfer_status":       milestone.TransferStatus(d),
			})
		}
	}
}
