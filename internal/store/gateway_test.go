package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeGateway serves canned documents and counts per collection.
type fakeGateway struct {
	docs   map[string][]Document
	counts map[string]int
	fail   map[string]error
	// delay lets later collections finish first to prove ordering is by collection.
	delay map[string]time.Duration
}

func (f *fakeGateway) FetchAll(ctx context.Context, collections []string, q Query) ([]Document, error) {
	var out []Document
	for _, c := range collections {
		if d := f.delay[c]; d > 0 {
			time.Sleep(d)
		}
		if err := f.fail[c]; err != nil {
			return nil, err
		}
		out = append(out, f.docs[c]...)
	}
	return out, nil
}

func (f *fakeGateway) Count(ctx context.Context, collection string, q Query) (int, error) {
	if err := f.fail[collection]; err != nil {
		return 0, err
	}
	return f.counts[collection], nil
}

func TestFetchCollections_OrderAndFailures(t *testing.T) {
	gw := &fakeGateway{
		docs: map[string][]Document{
			"first":  {{ID: "1a"}, {ID: "1b"}},
			"second": {{ID: "2a"}},
		},
		fail: map[string]error{
			"broken": errors.New("connection refused"),
		},
		delay: map[string]time.Duration{"first": 20 * time.Millisecond},
	}

	docs, missing := FetchCollections(context.Background(), gw, []string{"first", "broken", "second"}, Query{})

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	want := []string{"1a", "1b", "2a"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if len(missing) != 1 || missing[0] != "broken" {
		t.Errorf("missing = %v, want [broken]", missing)
	}
}

func TestCountCollections_OneMissing(t *testing.T) {
	gw := &fakeGateway{
		counts: map[string]int{
			"grq_1_l2_hls_l30": 7,
			"grq_1_l2_hls_s30": 3,
		},
		fail: map[string]error{
			"grq_1_l3_dswx_hls": ErrCollectionNotFound,
		},
	}

	groups := map[string][]string{
		"HLS":      {"grq_1_l2_hls_l30", "grq_1_l2_hls_s30"},
		"DSWX_HLS": {"grq_1_l3_dswx_hls"},
		"EMPTY":    {""},
	}
	got := CountCollections(context.Background(), gw, groups, func(string) Query { return Query{} })

	if got["HLS"] != 10 {
		t.Errorf("HLS = %d, want 10", got["HLS"])
	}
	if v, ok := got["DSWX_HLS"]; !ok || v != 0 {
		t.Errorf("DSWX_HLS = %d (present=%v), want 0", v, ok)
	}
	if v, ok := got["EMPTY"]; !ok || v != 0 {
		t.Errorf("EMPTY = %d (present=%v), want 0", v, ok)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(Config{Backend: "file"}); err == nil {
		t.Error("expected error for file backend without directory")
	}
	gw, err := Open(Config{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := gw.(*File); !ok {
		t.Errorf("expected *File, got %T", gw)
	}
	if _, err := Open(Config{Backend: "mongo"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
