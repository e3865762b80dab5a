package report

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"golang.org/x/sync/errgroup"
)

// DataAccountabilityName is the catalog name of the combined accountability report.
const DataAccountabilityName = "DataAccountabilityReport"

// Sections of the data accountability report.
const (
	sectionIncomingSDP       = "incoming_sdp_products"
	sectionIncomingAncillary = "incoming_ancillary_products"
	sectionGenerated         = "generated_sds_products"
	sectionOutgoing          = "daac_outgoing_products"
)

// DataAccountability combines incoming, generated and delivered counts in one table.
type DataAccountability struct {
	base
}

// NewDataAccountability builds the report. It has a single brief flavor.
func NewDataAccountability(deps Deps, opts Options) (*DataAccountability, error) {
	b, err := newBase(DataAccountabilityName, []string{Brief}, deps, opts)
	if err != nil {
		return nil, err
	}
	r := &DataAccountability{base: b}
	r.filename = func(ext string) string {
		return fmt.Sprintf("dar_%s_%s_%s_%s.%s", r.opts.Flavor, timefmt.Compact(r.opts.Generated),
			timefmt.Compact(r.opts.Start), timefmt.Compact(r.opts.End), ext)
	}
	return r, nil
}

// Populate gathers the four sections concurrently. A section whose collections all fail
// fails the report.
func (r *DataAccountability) Populate(ctx context.Context) error {
	m := r.deps.Mappings
	var sdp, anc, gen, out []tally

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { sdp, err = incoming(gctx, &r.base, m.InputIndexes); return err })
	g.Go(func() (err error) { anc, err = incoming(gctx, &r.base, m.IncomingAncillary); return err })
	g.Go(func() (err error) {
		gen, err = tallyCollections(gctx, r.deps.Gateway, m.ProductIndexes, func(string) store.Query {
			return r.window(store.TimeKeyDefault)
		})
		return err
	})
	g.Go(func() (err error) { out, err = delivered(gctx, &r.base); return err })
	if err := g.Wait(); err != nil {
		return err
	}

	sdpFiles, sdpVol := totals(sdp)
	ancFiles, ancVol := totals(anc)
	genFiles, genVol := totals(gen)
	outFiles, outVol := totals(out)

	var rows []render.Row
	for _, s := range []struct {
		name string
		ts   []tally
	}{
		{sectionIncomingSDP, sdp},
		{sectionIncomingAncillary, anc},
		{sectionGenerated, gen},
		{sectionOutgoing, out},
	} {
		for _, t := range s.ts {
			rows = append(rows, render.Row{"section": s.name, "name": t.Name, "files": t.Files, "volume": t.Volume})
		}
	}

	r.table = &render.Table{
		Root: "DATA_ACCOUNTABILITY_REPORT",
		Header: r.listHeader(
			render.HeaderLine{Key: "total_incoming_data_files", Value: strconv.Itoa(sdpFiles + ancFiles)},
			render.HeaderLine{Key: "total_incoming_data_volume", Value: number(sdpVol + ancVol)},
			render.HeaderLine{Key: "total_products_produced_files", Value: strconv.Itoa(genFiles)},
			render.HeaderLine{Key: "total_products_produced_volume", Value: number(genVol)},
			render.HeaderLine{Key: "total_products_delivered_files", Value: strconv.Itoa(outFiles)},
			render.HeaderLine{Key: "total_products_delivered_volume", Value: number(outVol)},
		),
		Columns: []render.Column{
			{Key: "section", Title: "section"},
			{Key: "name", Title: "name"},
			{Key: "files", Title: "files"},
			{Key: "volume", Title: "volume"},
		},
		Rows: rows,
	}
	return nil
}
