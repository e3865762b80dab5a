package stats

import (
	"math/rand/v2"
	"testing"

	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

func TestSummarize_ProductionScenario(t *testing.T) {
	s, ok := Summarize([]float64{3600, 7200, 10800})
	if !ok {
		t.Fatal("expected a summary")
	}

	got := map[string]string{
		"min":    timefmt.FormatHours(s.Min),
		"max":    timefmt.FormatHours(s.Max),
		"mean":   timefmt.FormatHours(s.Mean),
		"median": timefmt.FormatHours(s.Median),
	}
	want := map[string]string{
		"min":    "01:00:00",
		"max":    "03:00:00",
		"mean":   "02:00:00",
		"median": "02:00:00",
	}
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %s, want %s", k, got[k], v)
		}
	}
}

func TestSummarize_Singleton(t *testing.T) {
	s, ok := Summarize([]float64{-42})
	if !ok {
		t.Fatal("expected a summary")
	}
	for name, v := range map[string]float64{"min": s.Min, "max": s.Max, "mean": s.Mean, "median": s.Median, "p90": s.P90} {
		if v != -42 {
			t.Errorf("%s = %v, want -42", name, v)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s, ok := Summarize(nil)
	if ok || s.Count != 0 {
		t.Errorf("Summarize(nil) = %+v, %v", s, ok)
	}
}

func TestSummarize_OrderInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		n := 1 + r.IntN(50)
		values := make([]float64, n)
		for j := range values {
			values[j] = r.NormFloat64()*86400 + 3600
		}
		s, _ := Summarize(values)
		if s.Min > s.Median || s.Median > s.Max {
			t.Fatalf("case %d: median %v outside [%v, %v]", i, s.Median, s.Min, s.Max)
		}
		if s.Min > s.Mean || s.Mean > s.Max {
			t.Fatalf("case %d: mean %v outside [%v, %v]", i, s.Mean, s.Min, s.Max)
		}
		if s.Min > s.P90 || s.P90 > s.Max {
			t.Fatalf("case %d: p90 %v outside [%v, %v]", i, s.P90, s.Min, s.Max)
		}
	}
}
