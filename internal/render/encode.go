package render

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// Write encodes t in the given mime type. ZIP bundles stage their entries in tmpDir.
func Write(w io.Writer, t *Table, mime, csvName, tmpDir string) error {
	switch mime {
	case MimeJSON:
		return JSON(w, t)
	case MimeCSV:
		return CSV(w, t)
	case MimeHTML:
		return HTML(w, t)
	case MimeXML:
		return XML(w, t)
	case MimeZIP:
		return ZIP(w, t, csvName, tmpDir)
	case MimePNG:
		return PNG(w, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

// orderedRow keeps column order in JSON objects.
type orderedRow struct {
	cols []Column
	row  Row
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Title)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.row[c.Key])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type jsonDocument struct {
	Header  []string     `json:"header"`
	Payload []orderedRow `json:"payload"`
}

// JSON writes {"header": [...], "payload": [...]} with one object per row keyed by column
// title. Binary cells are base64 encoded.
func JSON(w io.Writer, t *Table) error {
	doc := jsonDocument{Header: t.HeaderLines(), Payload: make([]orderedRow, 0, len(t.Rows))}
	for _, r := range t.Rows {
		doc.Payload = append(doc.Payload, orderedRow{cols: t.Columns, row: r})
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// CSV writes the header lines, a blank line and then the table. An empty table writes the
// header only.
func CSV(w io.Writer, t *Table) error {
	for _, line := range t.HeaderLines() {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}

	cols := t.textColumns()
	cw := csv.NewWriter(w)
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	if err := cw.Write(titles); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, r := range t.Rows {
		for i, c := range cols {
			record[i] = cell(r[c.Key])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlTemplate = template.Must(template.New("table").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{range .Header}}<p>{{.}}</p>
{{end}}<table border="1">
<thead><tr>{{range .Titles}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}{{if .Image}}<td><img src="data:image/png;base64,{{.Image}}"></td>{{else}}<td>{{.Text}}</td>{{end}}{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type htmlCell struct {
	Text  string
	Image template.URL
}

// HTML writes a standalone page with the header lines and the table. Binary cells are
// inlined as images.
func HTML(w io.Writer, t *Table) error {
	data := struct {
		Title  string
		Header []string
		Titles []string
		Rows   [][]htmlCell
	}{Header: t.HeaderLines()}
	if len(t.Header) > 0 {
		data.Title = t.Header[0].Value
	}
	for _, c := range t.Columns {
		data.Titles = append(data.Titles, c.Title)
	}
	for _, r := range t.Rows {
		cells := make([]htmlCell, 0, len(t.Columns))
		for _, c := range t.Columns {
			if c.Binary {
				b, _ := r[c.Key].([]byte)
				cells = append(cells, htmlCell{Image: template.URL(encodeBase64(b))})
				continue
			}
			cells = append(cells, htmlCell{Text: cell(r[c.Key])})
		}
		data.Rows = append(data.Rows, cells)
	}
	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

// XML writes the header as <header><line> elements and each row as a <row> whose children are
// named by column key.
func XML(w io.Writer, t *Table) error {
	root := t.Root
	if root == "" {
		root = "report"
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	start := xml.StartElement{Name: xml.Name{Local: root}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	header := xml.StartElement{Name: xml.Name{Local: "header"}}
	if err := enc.EncodeToken(header); err != nil {
		return err
	}
	for _, line := range t.HeaderLines() {
		if err := enc.EncodeElement(line, xml.StartElement{Name: xml.Name{Local: "line"}}); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(header.End()); err != nil {
		return err
	}

	for _, r := range t.Rows {
		row := xml.StartElement{Name: xml.Name{Local: "row"}}
		if err := enc.EncodeToken(row); err != nil {
			return err
		}
		for _, c := range t.Columns {
			value := cell(r[c.Key])
			if c.Binary {
				b, _ := r[c.Key].([]byte)
				value = encodeBase64(b)
			}
			if err := enc.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: xmlName(c.Key)}}); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(row.End()); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// xmlName makes a column key usable as an element name.
func xmlName(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9', r == '-', r == '.':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// PNG passes the table's single image through.
func PNG(w io.Writer, t *Table) error {
	if len(t.Images) != 1 {
		return fmt.Errorf("%w: image/png needs exactly one chart, report has %d", ErrUnsupportedFormat, len(t.Images))
	}
	_, err := w.Write(t.Images[0].PNG)
	return err
}
