package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/goccy/go-json"
)

var (
	epoch    = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	winStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	winEnd   = time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
)

// failingGateway wraps a gateway and fails the listed collections with err, or a
// connection error when err is nil.
type failingGateway struct {
	store.Gateway
	fail map[string]bool
	err  error
}

func (f *failingGateway) FetchAll(ctx context.Context, collections []string, q store.Query) ([]store.Document, error) {
	for _, c := range collections {
		if f.fail[c] {
			if f.err != nil {
				return nil, f.err
			}
			return nil, errors.New("connection reset")
		}
	}
	return f.Gateway.FetchAll(ctx, collections, q)
}

func newStore(t *testing.T, collections map[string][]store.Document) *store.File {
	t.Helper()
	fs := store.NewFile(t.TempDir())
	for name, docs := range collections {
		if err := fs.Save(name, docs); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func deps(gw store.Gateway) Deps {
	return Deps{Gateway: gw, Mappings: config.DefaultMappings(), Lookback: 24 * time.Hour}
}

func opts(flavor string) Options {
	return Options{Start: winStart, End: winEnd, Generated: epoch, Flavor: flavor, Venue: "test"}
}

func hlsInput(id, productType, received, created string) store.Document {
	return store.Document{ID: id, Source: map[string]any{
		"creation_timestamp": created,
		"metadata": map[string]any{
			"FileName":            id + ".tif",
			"ProductType":         productType,
			"ProductReceivedTime": received,
			"FileSize":            100.0,
		},
	}}
}

func dswx(id, received, alerted string) store.Document {
	src := map[string]any{
		"creation_timestamp": "2022-01-01T06:00:00Z",
		"metadata": map[string]any{
			"FileName":            id,
			"ProductType":         "L3_DSWX_HLS",
			"ProductReceivedTime": received,
			"FileSize":            50.0,
		},
	}
	if alerted != "" {
		src["daac_CNM_S_timestamp"] = alerted
		src["daac_CNM_S_status"] = "SUCCESS"
	}
	return store.Document{ID: id, Source: src}
}

func renderString(t *testing.T, r Report, mime string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(context.Background(), mime, &buf); err != nil {
		t.Fatalf("Render(%s) failed: %v", mime, err)
	}
	return buf.String()
}

func TestRetrievalTime_DetailedSingleProduct(t *testing.T) {
	granule := "HLS.L30.T22VEQ.2021248T143156.v2.0"
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_l30": {hlsInput(granule+".B01", "L2_HLS_L30", "2022-01-01T09:00:00Z", "2022-01-01T09:00:00Z")},
		"hls_catalog": {{ID: granule + ".B01.tif", Source: map[string]any{
			"creation_timestamp": "2022-01-01T08:00:00Z",
			"query_datetime":     "2022-01-01T07:00:00Z",
			"download_datetime":  "2022-01-01T08:00:00Z",
		}}},
		// created before the window, reachable through the lookback
		"hls_spatial_catalog": {{ID: granule, Source: map[string]any{
			"creation_timestamp":  "2021-12-31T20:00:00Z",
			"production_datetime": "2021-12-31T20:00:00Z",
		}}},
	})

	r, err := NewRetrievalTime(deps(fs), opts(Detailed))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(r.table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(r.table.Rows))
	}
	row := r.table.Rows[0]
	if row["retrieval_time"] != "000T12:00:00" {
		t.Errorf("retrieval_time = %v, want 000T12:00:00", row["retrieval_time"])
	}
	if row["public_available_datetime"] != "2021-12-31T20:00:00" {
		t.Errorf("public_available_datetime = %v", row["public_available_datetime"])
	}
	if row["opera_detect_datetime"] != "2022-01-01T07:00:00" {
		t.Errorf("opera_detect_datetime = %v", row["opera_detect_datetime"])
	}

	csv := renderString(t, r, render.MimeCSV)
	if !strings.Contains(csv, "ProductReceivedDateTime: datetime when the product arrived in our system\n\n") {
		t.Errorf("CSV header missing field descriptions:\n%s", csv)
	}
}

func TestRetrievalTime_Empty(t *testing.T) {
	fs := newStore(t, nil)
	for _, flavor := range []string{Detailed, Summary} {
		t.Run(flavor, func(t *testing.T) {
			o := opts(flavor)
			o.Start, o.End = epoch, epoch
			r, err := NewRetrievalTime(deps(fs), o)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Populate(context.Background()); err != nil {
				t.Fatal(err)
			}

			var doc struct {
				Payload []any `json:"payload"`
			}
			if err := json.Unmarshal([]byte(renderString(t, r, render.MimeJSON)), &doc); err != nil {
				t.Fatal(err)
			}
			if doc.Payload == nil || len(doc.Payload) != 0 {
				t.Errorf("payload = %v, want []", doc.Payload)
			}
		})
	}

	r, _ := NewRetrievalTime(deps(fs), Options{Start: epoch, End: epoch, Generated: epoch, Flavor: Detailed})
	_ = r.Populate(context.Background())
	want := "Title: OPERA Retrieval Time Log\n" +
		"Date of Report: 1970-01-01T00:00:00Z\n" +
		"Period of Coverage (AcquisitionTime): 1970-01-01T00:00:00Z - 1970-01-01T00:00:00Z\n" +
		"PublicAvailableDateTime: datetime when the product was first made available to the public by the DAAC.\n" +
		"OperaDetectDateTime: datetime when the OPERA system first became aware of the product.\n" +
		"ProductReceivedDateTime: datetime when the product arrived in our system\n" +
		"\n"
	if got := renderString(t, r, render.MimeCSV); got != want {
		t.Errorf("empty CSV mismatch:\n%q", got)
	}
}

func TestRetrievalTime_SummaryWithAllRow(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_l30": {
			hlsInput("HLS.L30.T01AAA.2022001T000000.v2.0.B01", "L2_HLS_L30", "2022-01-01T02:00:00Z", "2022-01-01T02:00:00Z"),
		},
		"grq_1_l2_hls_s30": {
			hlsInput("HLS.S30.T01AAA.2022001T000000.v2.0.B02", "L2_HLS_S30", "2022-01-01T03:00:00Z", "2022-01-01T03:00:00Z"),
		},
	})
	o := opts(Summary)
	o.Histograms = true
	r, err := NewRetrievalTime(deps(fs), o)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}

	var inputs []string
	for _, row := range r.table.Rows {
		inputs = append(inputs, row["input_product_short_name"].(string))
		if row["opera_product_short_name"] != "L3_DSWX_HLS" {
			t.Errorf("output = %v", row["opera_product_short_name"])
		}
	}
	if strings.Join(inputs, ",") != "L2_HLS_L30,L2_HLS_S30,ALL" {
		t.Errorf("inputs = %v", inputs)
	}
	if len(r.table.Images) != 3 {
		t.Errorf("expected 3 charts, got %d", len(r.table.Images))
	}

	png := renderString(t, r, render.MimePNG)
	if !strings.HasPrefix(png, "\x89PNG") {
		t.Error("PNG output is not an image")
	}
	if err := r.Render(context.Background(), render.MimeZIP, &bytes.Buffer{}); err != nil {
		t.Errorf("ZIP failed: %v", err)
	}
}

func TestRetrievalTime_PrimaryFailures(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_s30": {hlsInput("HLS.S30.T01AAA.2022001T000000.v2.0.B02", "L2_HLS_S30", "2022-01-01T03:00:00Z", "2022-01-01T03:00:00Z")},
	})

	partial := &failingGateway{Gateway: fs, fail: map[string]bool{"grq_1_l2_hls_l30": true}}
	r, _ := NewRetrievalTime(deps(partial), opts(Detailed))
	if err := r.Populate(context.Background()); err != nil {
		t.Fatalf("one failed primary collection should be tolerated: %v", err)
	}
	if len(r.table.Rows) != 1 {
		t.Errorf("expected the surviving collection's row, got %d", len(r.table.Rows))
	}

	total := &failingGateway{Gateway: fs, fail: map[string]bool{"grq_1_l2_hls_l30": true, "grq_1_l2_hls_s30": true}}
	r, _ = NewRetrievalTime(deps(total), opts(Detailed))
	if err := r.Populate(context.Background()); !errors.Is(err, ErrPrimaryUnavailable) {
		t.Errorf("expected ErrPrimaryUnavailable, got %v", err)
	}
}

func TestProductionTime_SummaryScenario(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l3_dswx_hls": {
			dswx("a", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z"),
			dswx("b", "2022-01-01T00:00:00Z", "2022-01-01T02:00:00Z"),
			dswx("c", "2022-01-01T00:00:00Z", "2022-01-01T03:00:00Z"),
			dswx("no-cnm", "2022-01-01T00:00:00Z", ""),
		},
	})
	r, err := NewProductionTime(deps(fs), opts(Summary))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(r.table.Rows))
	}

	row := r.table.Rows[0]
	want := map[string]any{
		"opera_product_short_name": "L3_DSWX_HLS",
		"production_time_count":    3,
		"production_time_min":      "01:00:00",
		"production_time_max":      "03:00:00",
		"production_time_mean":     "02:00:00",
		"production_time_median":   "02:00:00",
	}
	for k, v := range want {
		if row[k] != v {
			t.Errorf("%s = %v, want %v", k, row[k], v)
		}
	}
}

func TestProductionTime_DetailedAndFilename(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l3_dswx_hls": {dswx("a", "2022-01-01T00:00:00Z", "2022-01-01T00:30:00Z")},
	})
	r, _ := NewProductionTime(deps(fs), opts(Detailed))
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}
	row := r.table.Rows[0]
	if row["production_time"] != "00:30:00" || row["transfer_status"] != "cnm_s_success" {
		t.Errorf("row = %v", row)
	}

	name, err := r.Filename(render.MimeCSV)
	if err != nil {
		t.Fatal(err)
	}
	if name != "production-time-detailed - 2022-01-01T000000Z to 2022-01-02T000000Z.csv" {
		t.Errorf("Filename() = %q", name)
	}
	if err := r.Render(context.Background(), render.MimePNG, &bytes.Buffer{}); !errors.Is(err, render.ErrUnsupportedFormat) {
		t.Errorf("detailed PNG: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestProductionTime_DurationFormatOverride(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l3_dswx_hls": {dswx("a", "2022-01-01T00:00:00Z", "2022-01-01T00:30:00Z")},
	})
	o := opts(Detailed)
	o.DurationFormat = DurationSeconds
	r, _ := NewProductionTime(deps(fs), o)
	_ = r.Populate(context.Background())
	if r.table.Rows[0]["production_time"] != 1800.0 {
		t.Errorf("production_time = %v, want 1800", r.table.Rows[0]["production_time"])
	}
}

func TestNewReport_Validation(t *testing.T) {
	fs := newStore(t, nil)
	if _, err := NewProductionTime(deps(fs), opts("brief")); !errors.Is(err, ErrUnsupportedFlavor) {
		t.Errorf("expected ErrUnsupportedFlavor, got %v", err)
	}
	if _, err := NewIncomingFiles(Deps{}, opts(SDP)); err == nil {
		t.Error("expected error without gateway")
	}
	r, _ := NewDaacOutgoing(deps(fs), opts(""))
	if err := r.Render(context.Background(), render.MimeJSON, &bytes.Buffer{}); !errors.Is(err, ErrNotPopulated) {
		t.Errorf("expected ErrNotPopulated, got %v", err)
	}
}

func TestIncomingFiles(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_l30": {
			hlsInput("l30-a", "L2_HLS_L30", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z"),
			hlsInput("l30-b", "L2_HLS_L30", "2022-01-01T00:00:00Z", "2022-01-01T02:00:00Z"),
			hlsInput("l30-old", "L2_HLS_L30", "2021-01-01T00:00:00Z", "2021-01-01T00:00:00Z"),
		},
	})
	r, err := NewIncomingFiles(deps(fs), opts(SDP))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := map[string]render.Row{}
	for _, row := range r.table.Rows {
		got[row["name"].(string)] = row
	}
	if got["HLS_L30"]["num_ingested"] != 2 || got["HLS_L30"]["volume"] != 200.0 {
		t.Errorf("HLS_L30 = %v", got["HLS_L30"])
	}
	if got["HLS_S30"]["num_ingested"] != 0 {
		t.Errorf("missing collection should count zero: %v", got["HLS_S30"])
	}
	if r.table.Root != "INCOMING_SDP_PRODUCTS_REPORT" {
		t.Errorf("Root = %s", r.table.Root)
	}

	xml := renderString(t, r, render.MimeXML)
	if !strings.Contains(xml, "<line>total_products_produced: 2</line>") {
		t.Errorf("XML header missing totals:\n%s", xml)
	}
	name, _ := r.Filename(render.MimeJSON)
	if name != "incoming_sdp_files_2022-01-01T000000_2022-01-02T000000.json" {
		t.Errorf("Filename() = %q", name)
	}
}

func TestDaacOutgoing(t *testing.T) {
	delivered := dswx("ok", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z")
	delivered.Source["daac_delivery_status"] = "SUCCESS"
	pending := dswx("pending", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z")

	fs := newStore(t, map[string][]store.Document{"grq_1_l3_dswx_hls": {delivered, pending}})

	brief, _ := NewDaacOutgoing(deps(fs), opts(Brief))
	if err := brief.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if row := brief.table.Rows[0]; row["products_delivered"] != 1 || row["volume"] != 50.0 {
		t.Errorf("brief row = %v", row)
	}
	name, _ := brief.Filename(render.MimeCSV)
	if name != "OFTD_brief_2022-01-01T000000_2022-01-02T000000.csv" {
		t.Errorf("Filename() = %q", name)
	}

	detailed, _ := NewDaacOutgoing(deps(fs), opts(Detailed))
	_ = detailed.Populate(context.Background())
	if len(detailed.table.Rows) != 1 || detailed.table.Rows[0]["transfer_status"] != "cnm_r_success" {
		t.Errorf("detailed rows = %v", detailed.table.Rows)
	}
}

func TestDataAccountability(t *testing.T) {
	delivered := dswx("ok", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z")
	delivered.Source["daac_delivery_status"] = "SUCCESS"
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_l30":  {hlsInput("l30-a", "L2_HLS_L30", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z")},
		"grq_1_l3_dswx_hls": {delivered, dswx("b", "2022-01-01T00:00:00Z", "")},
	})

	r, _ := NewDataAccountability(deps(fs), opts(""))
	if err := r.Populate(context.Background()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Join(r.table.HeaderLines(), "\n")
	for _, want := range []string{
		"total_incoming_data_files: 1",
		"total_products_produced_files: 2",
		"total_products_delivered_files: 1",
		"venue: test",
		"crid:",
	} {
		if !strings.Contains(lines, want) {
			t.Errorf("header missing %q:\n%s", want, lines)
		}
	}
}

func TestCountReports_PrimaryFailures(t *testing.T) {
	fs := newStore(t, map[string][]store.Document{
		"grq_1_l2_hls_l30": {hlsInput("l30-a", "L2_HLS_L30", "2022-01-01T00:00:00Z", "2022-01-01T01:00:00Z")},
	})
	inputs := map[string]bool{"grq_1_l2_hls_l30": true, "grq_1_l2_hls_s30": true}
	products := map[string]bool{"grq_1_l3_dswx_hls": true}

	tests := []struct {
		name    string
		fail    map[string]bool
		err     error
		build   func(Deps) (Report, error)
		wantErr bool
	}{
		{
			name:    "IncomingAllFailed",
			fail:    inputs,
			build:   func(d Deps) (Report, error) { return NewIncomingFiles(d, opts(SDP)) },
			wantErr: true,
		},
		{
			name:  "IncomingOneFailed",
			fail:  map[string]bool{"grq_1_l2_hls_s30": true},
			build: func(d Deps) (Report, error) { return NewIncomingFiles(d, opts(SDP)) },
		},
		{
			name:  "IncomingAllNotFound",
			fail:  inputs,
			err:   store.ErrCollectionNotFound,
			build: func(d Deps) (Report, error) { return NewIncomingFiles(d, opts(SDP)) },
		},
		{
			name:    "OutgoingAllFailed",
			fail:    products,
			build:   func(d Deps) (Report, error) { return NewDaacOutgoing(d, opts(Brief)) },
			wantErr: true,
		},
		{
			name:    "AccountabilityProductsFailed",
			fail:    products,
			build:   func(d Deps) (Report, error) { return NewDataAccountability(d, opts("")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &failingGateway{Gateway: fs, fail: tt.fail, err: tt.err}
			r, err := tt.build(deps(gw))
			if err != nil {
				t.Fatal(err)
			}
			err = r.Populate(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrPrimaryUnavailable) {
					t.Errorf("expected ErrPrimaryUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Populate() = %v, want nil", err)
			}
		})
	}
}
