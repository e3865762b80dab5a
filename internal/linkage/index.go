package linkage

import (
	"github.com/nasa/opera-sds-bach-api/internal/store"
)

// Channel names a side-channel an ancillary document can be attached on.
type Channel string

const (
	Discovery Channel = "discovery"
	Spatial   Channel = "spatial"
	Archival  Channel = "archival"
)

// Product is a transient, augmented copy of a primary document. The gateway's documents are
// never modified; side-channels are set at most once.
type Product struct {
	Doc       store.Document
	Discovery *store.Document
	Spatial   *store.Document
	Archival  *store.Document
}

// Side returns the document attached on channel, or nil.
func (p *Product) Side(ch Channel) *store.Document {
	switch ch {
	case Discovery:
		return p.Discovery
	case Spatial:
		return p.Spatial
	case Archival:
		return p.Archival
	}
	return nil
}

// attach sets the channel unless it is already populated.
func (p *Product) attach(ch Channel, doc store.Document) bool {
	slot := p.slot(ch)
	if slot == nil || *slot != nil {
		return false
	}
	d := doc
	*slot = &d
	return true
}

func (p *Product) slot(ch Channel) **store.Document {
	switch ch {
	case Discovery:
		return &p.Discovery
	case Spatial:
		return &p.Spatial
	case Archival:
		return &p.Archival
	}
	return nil
}

// Index holds the lookup maps built once per report invocation.
type Index struct {
	Products []*Product
	ByID     map[string]*Product
	// ByBase keeps the last product seen for a base id.
	ByBase     map[string]*Product
	ByBaseAll  map[string][]*Product
	ByRevision map[string][]*Product
}

// NewIndex wraps docs as products and builds the id, base-id and revision maps.
func NewIndex(docs []store.Document) *Index {
	ix := &Index{
		Products:   make([]*Product, 0, len(docs)),
		ByID:       make(map[string]*Product, len(docs)),
		ByBase:     make(map[string]*Product, len(docs)),
		ByBaseAll:  make(map[string][]*Product, len(docs)),
		ByRevision: make(map[string][]*Product),
	}
	for _, d := range docs {
		p := &Product{Doc: d}
		ix.Products = append(ix.Products, p)

		base := BaseID(d.ID)
		ix.ByID[d.ID] = p
		ix.ByBase[base] = p
		ix.ByBaseAll[base] = append(ix.ByBaseAll[base], p)
		rev := StripRevision(base)
		ix.ByRevision[rev] = append(ix.ByRevision[rev], p)
	}
	return ix
}
