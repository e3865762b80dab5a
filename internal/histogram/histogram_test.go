package histogram

import (
	"bytes"
	"encoding/base64"
	"testing"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestBins(t *testing.T) {
	many := make([]float64, 5000)
	for i := range many {
		many[i] = float64(i % 97)
	}

	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"Empty", nil, 0},
		{"Singleton", []float64{3}, 1},
		{"Constant", []float64{2, 2, 2}, 1},
		// Sturges: ceil(log2(8))+1 = 4; FD: iqr 3.5, width 3.5, span 7 -> 2
		{"SmallSturgesWins", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 4},
		// Sturges only: ceil(log2(5000))+1 = 14
		{"LargeSampleCoarse", many, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bins(tt.values); got != tt.want {
				t.Errorf("Bins() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBinValues_CountsEveryValue(t *testing.T) {
	values := []float64{0, 0.5, 1, 1.5, 2, 10}
	bins := binValues(values, 4)
	total := 0.0
	for _, b := range bins {
		total += b.Weight
	}
	if total != float64(len(values)) {
		t.Errorf("binned %v values, want %d", total, len(values))
	}
	if bins[len(bins)-1].Weight != 1 {
		t.Errorf("maximum should land in the last bin: %+v", bins)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"Empty", nil},
		{"Singleton", []float64{1.5}},
		{"Spread", []float64{1, 2, 2, 3, 5, 8, 13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := Render(tt.values, Options{Title: "L2_HLS_L30", Metric: "Retrieval Time", Unit: "hours"})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !bytes.HasPrefix(png, pngSignature) {
				t.Errorf("output is not a PNG")
			}
		})
	}
}

func TestEncode(t *testing.T) {
	got := Encode(pngSignature)
	decoded, err := base64.StdEncoding.DecodeString(got)
	if err != nil || !bytes.Equal(decoded, pngSignature) {
		t.Errorf("Encode() = %q", got)
	}
}

func TestHours(t *testing.T) {
	got := Hours([]float64{3600, 5400})
	if got[0] != 1 || got[1] != 1.5 {
		t.Errorf("Hours() = %v", got)
	}
}
