package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/linkage"
	"github.com/nasa/opera-sds-bach-api/internal/milestone"
	"github.com/nasa/opera-sds-bach-api/internal/store"
)

func TestGenerate_LinksEndToEnd(t *testing.T) {
	now := time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC)
	cols := Generate(GeneratorConfig{Scenario: "mild", Count: 20, Now: now, Seed: 7})

	if len(cols[CollectionL30])+len(cols[CollectionS30]) != 20 {
		t.Fatalf("expected 20 inputs, got %d + %d", len(cols[CollectionL30]), len(cols[CollectionS30]))
	}

	inputs := append(append([]store.Document{}, cols[CollectionL30]...), cols[CollectionS30]...)
	ix := linkage.NewIndex(inputs)
	if n, _ := linkage.Attach(ix, linkage.Discovery, linkage.KeyExact, cols[CollectionDiscovery]); n != 20 {
		t.Errorf("discovery linked %d of 20", n)
	}
	if n, _ := linkage.Attach(ix, linkage.Spatial, linkage.KeyGranule, cols[CollectionSpatial]); n != 20 {
		t.Errorf("spatial linked %d of 20", n)
	}

	records, dropped := milestone.RetrievalAll(ix.Products)
	if dropped.Total() != 0 || len(records) != 20 {
		t.Errorf("records = %d, dropped = %+v", len(records), dropped)
	}
	for _, r := range records {
		if r.Duration <= 0 {
			t.Errorf("%s has non-positive retrieval time %v", r.ProductName, r.Duration)
		}
	}

	for _, d := range cols[CollectionDSWx] {
		if !strings.HasPrefix(d.FileName(), "OPERA_L3_DSWx_HLS_") {
			t.Errorf("unexpected output name %s", d.FileName())
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "chaos", Distribution: "weibull", Count: 10, Now: time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC), Seed: 42}
	a, b := Generate(cfg), Generate(cfg)
	if len(a[CollectionDSWx]) != len(b[CollectionDSWx]) || len(a[CollectionDiscovery]) != len(b[CollectionDiscovery]) {
		t.Error("same seed should produce the same documents")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	cols := Generate(GeneratorConfig{Count: 4, Now: time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC), Seed: 1})
	if err := Save(dir, cols); err != nil {
		t.Fatal(err)
	}
	n, err := store.NewFile(dir).Count(context.Background(), CollectionSpatial, store.Query{})
	if err != nil || n != 4 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}
