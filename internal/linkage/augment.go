package linkage

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/rs/zerolog/log"
)

// KeyKind selects how an ancillary document's join key is derived from its id.
type KeyKind string

const (
	// KeyExact strips the file extension and matches a product id.
	KeyExact KeyKind = "exact"
	// KeyGranule uses the id as a granule id and matches every product of that granule.
	KeyGranule KeyKind = "granule"
	// KeyRevision drops extension and revision marker and matches every revision.
	KeyRevision KeyKind = "revision"
)

// Key derives the join key of an ancillary document id.
func (k KeyKind) Key(id string) string {
	switch k {
	case KeyExact:
		return StripExtension(id)
	case KeyRevision:
		return RevisionBaseID(id)
	default:
		return id
	}
}

func (ix *Index) targets(kind KeyKind, key string) []*Product {
	switch kind {
	case KeyExact:
		if p, ok := ix.ByID[key]; ok {
			return []*Product{p}
		}
		return nil
	case KeyGranule:
		return ix.ByBaseAll[key]
	case KeyRevision:
		return ix.ByRevision[key]
	}
	return nil
}

// Attach joins ancillary docs onto the indexed products on channel. Products without a match
// are left alone and a channel that is already set keeps its document. Among docs sharing a
// key the most recently created one wins, whatever order the store returned them in. It
// returns the number of attachments made.
func Attach(ix *Index, ch Channel, kind KeyKind, docs []store.Document) (int, error) {
	switch kind {
	case KeyExact, KeyGranule, KeyRevision:
	default:
		return 0, fmt.Errorf("unknown key kind %q", kind)
	}
	if ix == nil {
		return 0, nil
	}

	attached := 0
	for _, doc := range newestFirst(docs) {
		for _, p := range ix.targets(kind, kind.Key(doc.ID)) {
			if p.attach(ch, doc) {
				attached++
			}
		}
	}
	log.Debug().Str("channel", string(ch)).Str("key", string(kind)).
		Int("ancillary", len(docs)).Int("attached", attached).Msg("Attached ancillary documents")
	return attached, nil
}

// Unlinked counts products lacking the given channel.
func (ix *Index) Unlinked(ch Channel) int {
	n := 0
	for _, p := range ix.Products {
		if p.Side(ch) == nil {
			n++
		}
	}
	return n
}

// newestFirst orders docs by creation time, newest first, then by id. Docs without a
// readable timestamp sort last.
func newestFirst(docs []store.Document) []store.Document {
	type stamped struct {
		at  time.Time
		doc store.Document
	}
	sorted := make([]stamped, len(docs))
	for i, d := range docs {
		at, _, err := d.Time(store.TimeKeyDefault)
		if err != nil {
			at = time.Time{}
		}
		sorted[i] = stamped{at: at, doc: d}
	}
	slices.SortStableFunc(sorted, func(a, b stamped) int {
		if c := b.at.Compare(a.at); c != 0 {
			return c
		}
		return cmp.Compare(a.doc.ID, b.doc.ID)
	})
	out := make([]store.Document, len(sorted))
	for i, s := range sorted {
		out[i] = s.doc
	}
	return out
}
