// Package render encodes report tables as JSON, CSV, HTML, XML, ZIP bundles or PNG images.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// Output mime types.
const (
	MimeJSON = "application/json"
	MimeCSV  = "text/csv"
	MimeHTML = "text/html"
	MimeXML  = "text/xml"
	MimeZIP  = "application/zip"
	MimePNG  = "image/png"
)

// ErrUnsupportedFormat is returned for a mime type a report cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported output format")

var extensions = map[string]string{
	MimeJSON: "json",
	MimeCSV:  "csv",
	MimeHTML: "html",
	MimeXML:  "xml",
	MimeZIP:  "zip",
	MimePNG:  "png",
}

// Extension returns the file extension for a mime type.
func Extension(mime string) (string, error) {
	ext, ok := extensions[mime]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
	return ext, nil
}

// HeaderLine is one descriptive line printed above a table as "Key: Value".
type HeaderLine struct {
	Key   string
	Value string
}

func (h HeaderLine) String() string {
	return strings.TrimRight(h.Key+": "+h.Value, " ")
}

// Column maps an internal key to its display title. Binary columns hold image bytes and are
// left out of CSV output.
type Column struct {
	Key    string
	Title  string
	Binary bool
}

// Row holds cell values by column key.
type Row map[string]any

// Image is a chart shipped next to the table in archive bundles.
type Image struct {
	Name string
	PNG  []byte
}

// Table is the rendered form of a report.
type Table struct {
	// Root names the document element of XML output.
	Root    string
	Header  []HeaderLine
	Columns []Column
	Rows    []Row
	Images  []Image
}

// HeaderLines returns the header in text form.
func (t *Table) HeaderLines() []string {
	out := make([]string, 0, len(t.Header))
	for _, h := range t.Header {
		out = append(out, h.String())
	}
	return out
}

func (t *Table) textColumns() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Binary {
			out = append(out, c)
		}
	}
	return out
}

// cell formats a value for text encodings.
func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.UTC().Format(timefmt.ISO)
	case []byte:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// Filename builds the deterministic artifact name of a report. Colons are removed so the
// name is safe on every filesystem.
func Filename(kind, flavor string, start, end time.Time, ext string) string {
	name := kind
	if flavor != "" {
		name += "-" + flavor
	}
	return fmt.Sprintf("%s - %s to %s.%s", name, stamp(start), stamp(end), ext)
}

// ImageName names a chart inside an archive from the report kind, its group labels and the
// time window.
func ImageName(kind string, labels []string, start, end time.Time) string {
	parts := []string{kind}
	for _, l := range labels {
		if l != "" {
			parts = append(parts, l)
		}
	}
	return fmt.Sprintf("%s - %s to %s.png", strings.Join(parts, " - "), stamp(start), stamp(end))
}

func stamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(timefmt.ISOZ), ":", "")
}
