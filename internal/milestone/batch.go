package milestone

import (
	"errors"

	"github.com/nasa/opera-sds-bach-api/internal/linkage"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/rs/zerolog/log"
)

// Dropped summarizes records excluded from a batch.
type Dropped struct {
	Missing int
	Invalid int
}

// Total is the number of excluded records.
func (d Dropped) Total() int { return d.Missing + d.Invalid }

// RetrievalAll resolves every product. Records that fail are logged and skipped so one bad
// document never aborts the batch.
func RetrievalAll(products []*linkage.Product) ([]Record, Dropped) {
	var out []Record
	var dropped Dropped
	partial := 0
	for _, p := range products {
		if p.Discovery == nil || p.Spatial == nil {
			partial++
		}
		rec, err := Retrieval(p)
		if err != nil {
			dropped.count(err, p.Doc.ID)
			continue
		}
		out = append(out, rec)
	}
	if partial > 0 {
		log.Warn().Int("products", partial).Msg("Ancillary info unavailable for some products, using fallback milestones")
	}
	dropped.warn("retrieval")
	return out, dropped
}

// ProductionAll resolves every document of a production batch.
func ProductionAll(docs []store.Document) ([]Record, Dropped) {
	var out []Record
	var dropped Dropped
	for _, d := range docs {
		rec, err := Production(d)
		if err != nil {
			dropped.count(err, d.ID)
			continue
		}
		out = append(out, rec)
	}
	dropped.warn("production")
	return out, dropped
}

func (d *Dropped) count(err error, id string) {
	if errors.Is(err, ErrMissingMilestone) {
		d.Missing++
		log.Debug().Err(err).Str("id", id).Msg("Skipping record without milestone")
		return
	}
	d.Invalid++
	log.Warn().Err(err).Str("id", id).Msg("Skipping record with unparseable milestone")
}

func (d Dropped) warn(chain string) {
	if d.Total() == 0 {
		return
	}
	log.Warn().Str("chain", chain).Int("missing", d.Missing).Int("invalid", d.Invalid).
		Msg("Records excluded from report")
}
