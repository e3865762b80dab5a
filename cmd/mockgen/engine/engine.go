// Package engine generates synthetic product documents for offline report runs.
package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

// Collections written by Generate.
const (
	CollectionL30       = "grq_1_l2_hls_l30"
	CollectionS30       = "grq_1_l2_hls_s30"
	CollectionDiscovery = "hls_catalog"
	CollectionSpatial   = "hls_spatial_catalog"
	CollectionDSWx      = "grq_1_l3_dswx_hls"
)

type GeneratorConfig struct {
	Scenario     string // mild, chaos or drift
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
	Seed         uint64
}

// Generate builds Count input granules spread over the day before Now, together with their
// discovery and spatial catalog entries and the generated DSWx products.
func Generate(cfg GeneratorConfig) map[string][]store.Document {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	out := make(map[string][]store.Document)
	start := cfg.Now.Add(-24 * time.Hour)
	step := 24 * time.Hour / time.Duration(max(cfg.Count, 1))

	for i := 0; i < cfg.Count; i++ {
		landsat := i%2 == 0
		acquired := start.Add(time.Duration(i) * step).Add(-48 * time.Hour).Truncate(time.Second)
		tile := fmt.Sprintf("T%02d%s", 10+i%50, []string{"VEQ", "NVH", "LLD", "WFS"}[i%4])
		sensor, collection, productType, opera := "S30", CollectionS30, "L2_HLS_S30", "S2A"
		if landsat {
			sensor, collection, productType, opera = "L30", CollectionL30, "L2_HLS_L30", "L8"
		}
		granule := fmt.Sprintf("HLS.%s.%s.%sT%s.v2.0", sensor, tile, acquired.Format("2006002"), acquired.Format("150405"))
		productID := granule + ".B01"

		// Public availability -> detection -> download -> product received.
		retrieval := sampleHours(rng, cfg, i)
		available := start.Add(time.Duration(i) * step)
		detected := available.Add(time.Duration(retrieval*0.25*float64(time.Hour)))
		received := available.Add(time.Duration(retrieval * float64(time.Hour)))

		out[collection] = append(out[collection], store.Document{
			ID: productID,
			Source: map[string]any{
				"creation_timestamp": iso(received),
				"metadata": map[string]any{
					"FileName":            productID + ".tif",
					"ProductType":         productType,
					"ProductReceivedTime": iso(received),
					"FileSize":            float64(1_000_000 + rng.IntN(9_000_000)),
					"ProcessingType":      "forward",
				},
			},
		})

		// Chaos drops a share of the side-channel entries so fallbacks get exercised.
		if cfg.Scenario != "chaos" || rng.Float64() > 0.2 {
			out[CollectionDiscovery] = append(out[CollectionDiscovery], store.Document{
				ID: productID + ".tif",
				Source: map[string]any{
					"creation_timestamp": iso(detected),
					"query_datetime":     iso(detected),
					"download_datetime":  iso(received),
				},
			})
		}
		if cfg.Scenario != "chaos" || rng.Float64() > 0.2 {
			out[CollectionSpatial] = append(out[CollectionSpatial], store.Document{
				ID: granule,
				Source: map[string]any{
					"creation_timestamp":  iso(available),
					"production_datetime": iso(available),
				},
			})
		}

		produced := received.Add(time.Duration(sampleHours(rng, cfg, i) * float64(time.Hour) / 2))
		if produced.After(cfg.Now) {
			continue
		}
		name := fmt.Sprintf("OPERA_L3_DSWx_HLS_%s_%sZ_%sZ_%s_30_v0.0", tile,
			acquired.Format("20060102T150405"), produced.Format("20060102T150405"), opera)
		src := map[string]any{
			"creation_timestamp": iso(produced),
			"metadata": map[string]any{
				"FileName":            name,
				"ProductType":         "L3_DSWX_HLS",
				"ProductReceivedTime": iso(received),
				"FileSize":            float64(200_000 + rng.IntN(800_000)),
				"ProcessingType":      "forward",
			},
			"daac_CNM_S_timestamp": iso(produced),
			"daac_CNM_S_status":    "SUCCESS",
		}
		if rng.Float64() < 0.9 {
			src["daac_delivery_status"] = "SUCCESS"
		}
		out[CollectionDSWx] = append(out[CollectionDSWx], store.Document{ID: name, Source: src})
	}
	return out
}

// sampleHours draws one pipeline delay in hours for item i.
func sampleHours(rng *rand.Rand, cfg GeneratorConfig, i int) float64 {
	k, lambda := 2.5, 6.0
	switch cfg.Scenario {
	case "chaos":
		k = 0.8
	case "drift":
		ratio := float64(i) / float64(max(cfg.Count, 1))
		k = 2.5 - (1.7 * ratio)
		lambda = 6.0 + (6.0 * ratio)
	}

	if cfg.Distribution == "weibull" {
		return weibullSample(rng, k, lambda)
	}
	hours := 1.0 + rng.Float64()*5.0
	if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
		hours += 10 + rng.Float64()*15
	}
	if cfg.Scenario == "drift" && i > cfg.Count/2 {
		hours *= 2.0
	}
	return hours
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

func iso(t time.Time) string {
	return t.UTC().Format(timefmt.ISOZ)
}

// Save writes every generated collection into a JSONL store directory.
func Save(outDir string, collections map[string][]store.Document) error {
	fs := store.NewFile(outDir)
	for name, docs := range collections {
		if err := fs.Save(name, docs); err != nil {
			return err
		}
	}
	return nil
}
