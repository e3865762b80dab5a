package report

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// tally is the file count and volume of one named collection.
type tally struct {
	Name       string
	Collection string
	Files      int
	Volume     float64
	Docs       []store.Document
}

// tallyCollections fetches each named collection and sums metadata.FileSize. A missing
// collection reports zeros; a collection that fails to read is logged and, when every
// configured collection fails, the whole tally fails with ErrPrimaryUnavailable. Results are
// sorted by name.
func tallyCollections(ctx context.Context, gw store.Gateway, named map[string]string, query func(collection string) store.Query) ([]tally, error) {
	names := slices.Sorted(maps.Keys(named))
	out := make([]tally, len(names))
	failed := make([]bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	configured := 0
	for i, name := range names {
		collection := named[name]
		out[i] = tally{Name: name, Collection: collection}
		if collection == "" {
			continue
		}
		configured++
		g.Go(func() error {
			docs, err := gw.FetchAll(gctx, []string{collection}, query(collection))
			if err != nil {
				if errors.Is(err, store.ErrCollectionNotFound) {
					log.Warn().Str("name", name).Str("collection", collection).Msg("Collection not found, reporting zeros")
					return nil
				}
				log.Warn().Err(err).Str("name", name).Str("collection", collection).Msg("Collection unavailable, reporting zeros")
				failed[i] = true
				return nil
			}
			out[i].Files = len(docs)
			out[i].Volume = volume(docs)
			out[i].Docs = docs
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for i, f := range failed {
		if f {
			missing = append(missing, out[i].Collection)
		}
	}
	if configured > 0 && len(missing) == configured {
		return nil, fmt.Errorf("%w: %v", ErrPrimaryUnavailable, missing)
	}
	return out, nil
}

func volume(docs []store.Document) float64 {
	total := 0.0
	for _, d := range docs {
		if size, ok := d.Float("metadata", "FileSize"); ok {
			total += size
		}
	}
	return total
}

func totals(ts []tally) (int, float64) {
	files, vol := 0, 0.0
	for _, t := range ts {
		files += t.Files
		vol += t.Volume
	}
	return files, vol
}

// listHeader is the header shared by the count reports; extra lines follow the common ones.
func (b *base) listHeader(extra ...render.HeaderLine) []render.HeaderLine {
	h := []render.HeaderLine{
		{Key: "time_of_report", Value: b.opts.Generated.UTC().Format(timefmt.ISO)},
		{Key: "data_received_time_range", Value: timefmt.Compact(b.opts.Start) + "-" + timefmt.Compact(b.opts.End)},
		{Key: "crid", Value: b.opts.CRID},
		{Key: "venue", Value: b.opts.Venue},
		{Key: "processing_mode", Value: b.opts.ProcessingMode},
	}
	return append(h, extra...)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
