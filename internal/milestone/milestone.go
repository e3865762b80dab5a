// Package milestone resolves named lifecycle timestamps for linked products and computes the
// elapsed time between them.
package milestone

import (
	"errors"
	"fmt"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/linkage"
	"github.com/nasa/opera-sds-bach-api/internal/store"
)

// ErrMissingMilestone is returned when a record lacks a timestamp no fallback can supply.
var ErrMissingMilestone = errors.New("missing milestone")

// Source names where a resolved milestone came from.
type Source string

const (
	FromDiscovery Source = "discovery"
	FromSpatial   Source = "spatial"
	FromArchival  Source = "archival"
	FromPrimary   Source = "primary"
	// FromFallback means the value was copied from the previous milestone in the chain.
	FromFallback Source = "fallback"
)

// Names of the milestones that appear on records.
const (
	PublicAvailable = "public_available"
	OperaDetect     = "opera_detect"
	ProductReceived = "product_received"
	InputReceived   = "input_received"
	DaacAlerted     = "daac_alerted"
)

// Record is the transient per-product result of milestone resolution.
type Record struct {
	ProductName string
	ProductType string
	// InputType and OutputType are the grouping keys for aggregation.
	InputType  string
	OutputType string
	Milestones map[string]time.Time
	Sources    map[string]Source
	// Duration is in seconds, signed.
	Duration float64
}

// Elapsed returns later - earlier in seconds. Negative results are kept: they point at clock
// or data quality problems upstream.
func Elapsed(earlier, later time.Time) float64 {
	return later.Sub(earlier).Seconds()
}

// lookup reads a timestamp field from an optional document.
func lookup(doc *store.Document, path ...string) (time.Time, bool, error) {
	if doc == nil {
		return time.Time{}, false, nil
	}
	ts, ok, err := doc.Time(path...)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s %v: %w", doc.ID, path, err)
	}
	return ts, ok, nil
}

// Retrieval resolves the retrieval chain of a product:
//
//	received  = discovery download_datetime, else metadata.ProductReceivedTime
//	detected  = discovery query_datetime, else received
//	available = spatial production_datetime, else archival production_datetime, else detected
//
// The record's duration is received - available.
func Retrieval(p *linkage.Product) (Record, error) {
	rec := newRecord(p.Doc)

	received, ok, err := lookup(p.Discovery, "download_datetime")
	if err != nil {
		return Record{}, err
	}
	src := FromDiscovery
	if !ok {
		received, ok, err = p.Doc.Time("metadata", "ProductReceivedTime")
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", p.Doc.ID, err)
		}
		if !ok {
			return Record{}, fmt.Errorf("%w: %s has no received time", ErrMissingMilestone, p.Doc.ID)
		}
		src = FromPrimary
	}
	rec.set(ProductReceived, received, src)

	detected, ok, err := lookup(p.Discovery, "query_datetime")
	if err != nil {
		return Record{}, err
	}
	src = FromDiscovery
	if !ok {
		detected, src = received, FromFallback
	}
	rec.set(OperaDetect, detected, src)

	available, ok, err := lookup(p.Spatial, "production_datetime")
	if err != nil {
		return Record{}, err
	}
	src = FromSpatial
	if !ok {
		available, ok, err = lookup(p.Archival, "production_datetime")
		if err != nil {
			return Record{}, err
		}
		src = FromArchival
		if !ok {
			available, src = detected, FromFallback
		}
	}
	rec.set(PublicAvailable, available, src)

	rec.Duration = Elapsed(available, received)
	return rec, nil
}

// Production resolves the production chain: the input received time on the product and the
// time the archive was alerted through CNM-S. Both are required.
func Production(doc store.Document) (Record, error) {
	rec := newRecord(doc)

	alerted, ok, err := doc.Time("daac_CNM_S_timestamp")
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", doc.ID, err)
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %s has no CNM-S timestamp", ErrMissingMilestone, doc.ID)
	}
	received, ok, err := doc.Time("metadata", "ProductReceivedTime")
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", doc.ID, err)
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %s has no received time", ErrMissingMilestone, doc.ID)
	}

	rec.set(InputReceived, received, FromPrimary)
	rec.set(DaacAlerted, alerted, FromPrimary)
	rec.Duration = Elapsed(received, alerted)
	return rec, nil
}

func newRecord(doc store.Document) Record {
	return Record{
		ProductName: doc.FileName(),
		ProductType: doc.ProductType(),
		Milestones:  make(map[string]time.Time, 3),
		Sources:     make(map[string]Source, 3),
	}
}

func (r *Record) set(name string, ts time.Time, src Source) {
	r.Milestones[name] = ts
	r.Sources[name] = src
}
