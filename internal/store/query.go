package store

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// Default time keys used for range filtering, by collection family.
const (
	TimeKeyDefault        = "creation_timestamp"
	TimeKeyAccountability = "created_at"
	TimeKeyStateConfig    = "creation_time"
)

// Query is a time-bounded filter over one or more collections. A nil bound is unbounded on
// that side; both bounds are inclusive.
type Query struct {
	TimeKey string
	Start   *time.Time
	End     *time.Time
	// Terms become exact term filters, Matches become full-text match clauses.
	Terms   map[string]string
	Matches map[string]string
	Source  []string
}

// Window builds a query over [start, end] on the given time key.
func Window(timeKey string, start, end time.Time) Query {
	q := Query{TimeKey: timeKey}
	if !start.IsZero() {
		s := start.UTC()
		q.Start = &s
	}
	if !end.IsZero() {
		e := end.UTC()
		q.End = &e
	}
	return q
}

// WithTerm returns a copy of q with an extra term filter. Empty values are ignored.
func (q Query) WithTerm(field, value string) Query {
	if value == "" {
		return q
	}
	out := q
	out.Terms = maps.Clone(q.Terms)
	if out.Terms == nil {
		out.Terms = make(map[string]string)
	}
	out.Terms[field] = value
	return out
}

// WithMatch returns a copy of q with an extra match clause.
func (q Query) WithMatch(field, value string) Query {
	out := q
	out.Matches = maps.Clone(q.Matches)
	if out.Matches == nil {
		out.Matches = make(map[string]string)
	}
	out.Matches[field] = value
	return out
}

// WithUniversal applies the composite release id and processing mode filters shared by all
// reports.
func (q Query) WithUniversal(crid, processingMode string) Query {
	return q.WithTerm("metadata.CompositeReleaseID", crid).
		WithTerm("metadata.ProcessingType", processingMode)
}

// Shifted returns a copy of q whose start bound is moved back by lookback.
func (q Query) Shifted(lookback time.Duration) Query {
	out := q
	if q.Start != nil && lookback > 0 {
		s := q.Start.Add(-lookback)
		out.Start = &s
	}
	return out
}

// Body renders the Elasticsearch request body.
func (q Query) Body() map[string]any {
	must := []any{}
	filter := []any{}

	if rng := q.rangeClause(); rng != nil {
		must = append(must, rng)
	}
	for _, k := range slices.Sorted(maps.Keys(q.Matches)) {
		must = append(must, map[string]any{"match": map[string]any{k: q.Matches[k]}})
	}
	for _, k := range slices.Sorted(maps.Keys(q.Terms)) {
		filter = append(filter, map[string]any{"term": map[string]any{k: q.Terms[k]}})
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   must,
				"filter": filter,
			},
		},
	}
	if len(q.Source) > 0 {
		body["_source"] = q.Source
	}
	return body
}

func (q Query) rangeClause() map[string]any {
	if q.TimeKey == "" || (q.Start == nil && q.End == nil) {
		return nil
	}
	bounds := map[string]any{}
	if q.Start != nil {
		bounds["gte"] = q.Start.Format(timefmt.ISOZ)
	}
	if q.End != nil {
		bounds["lte"] = q.End.Format(timefmt.ISOZ)
	}
	return map[string]any{"range": map[string]any{q.TimeKey: bounds}}
}

// Match reports whether a document satisfies q. It is the in-memory counterpart of Body used
// by the file store.
func (q Query) Match(doc Document) bool {
	if q.TimeKey != "" && (q.Start != nil || q.End != nil) {
		ts, ok, err := doc.Time(splitPath(q.TimeKey)...)
		if !ok || err != nil {
			return false
		}
		if q.Start != nil && ts.Before(*q.Start) {
			return false
		}
		if q.End != nil && ts.After(*q.End) {
			return false
		}
	}
	for k, v := range q.Terms {
		if doc.String(splitPath(k)...) != v {
			return false
		}
	}
	for k, v := range q.Matches {
		if k == "_index" {
			if doc.Index != v {
				return false
			}
			continue
		}
		if !strings.EqualFold(doc.String(splitPath(k)...), v) {
			return false
		}
	}
	return true
}

func splitPath(field string) []string {
	return strings.Split(field, ".")
}

// TimeKeyFor picks the range field for a collection.
func TimeKeyFor(collection string, accountability, stateConfig []string) string {
	switch {
	case slices.Contains(accountability, collection):
		return TimeKeyAccountability
	case slices.Contains(stateConfig, collection):
		return TimeKeyStateConfig
	default:
		return TimeKeyDefault
	}
}
