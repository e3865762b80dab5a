package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// Document is one hit returned by the store: the collection it came from, its id and the
// untyped source body.
type Document struct {
	ID     string         `json:"_id"`
	Index  string         `json:"_index"`
	Source map[string]any `json:"_source"`
}

// Lookup walks nested objects of the source body.
func (d Document) Lookup(path ...string) (any, bool) {
	var cur any = d.Source
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the value at path rendered as a string, or "" when absent.
func (d Document) String(path ...string) string {
	v, ok := d.Lookup(path...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Float returns a numeric value at path; numeric strings are accepted.
func (d Document) Float(path ...string) (float64, bool) {
	v, ok := d.Lookup(path...)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}

// Time parses the timestamp at path. The boolean is false when the field is missing or blank.
func (d Document) Time(path ...string) (time.Time, bool, error) {
	s := d.String(path...)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := timefmt.Parse(s)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}

// FileName is the product file name, falling back to the document id.
func (d Document) FileName() string {
	if name := d.String("metadata", "FileName"); name != "" {
		return name
	}
	return d.ID
}

// ProductType reads metadata.ProductType, falling back to dataset_type.
func (d Document) ProductType() string {
	if pt := d.String("metadata", "ProductType"); pt != "" {
		return pt
	}
	return d.String("dataset_type")
}
