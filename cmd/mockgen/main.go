package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nasa/opera-sds-bach-api/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./cache/docstore", "Output directory for the JSONL document store")
	count := flag.Int("count", 200, "Number of input granules to generate")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Now:          time.Now().UTC(),
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *outDir)

	collections := engine.Generate(cfg)
	if err := engine.Save(*outDir, collections); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	for name, docs := range collections {
		fmt.Printf("  %-24s %d\n", name, len(docs))
	}
	fmt.Println("Done.")
}
