package stats

import (
	"slices"

	"github.com/nasa/opera-sds-bach-api/internal/milestone"

	"github.com/rs/zerolog/log"
)

// AllInputs labels the roll-up row of an output type fed by several input types.
const AllInputs = "ALL"

// Family is an output product type and the input types it is produced from.
type Family struct {
	Output string
	Inputs []string
}

// Row is one summary line: the statistics of a group plus its raw durations so callers can
// render a histogram.
type Row struct {
	OutputType string
	InputType  string
	Summary
	Values []float64
	// Histogram is an encoded PNG, filled in by the caller when histograms are enabled.
	Histogram []byte
}

// Group builds summary rows per input type, in family order. An output type gets an ALL row
// over the union of its inputs only when more than one input type contributed records.
// Records whose input type belongs to no family get their own rows afterwards, sorted by type.
func Group(records []milestone.Record, families []Family) []Row {
	byInput := make(map[string][]float64)
	for _, r := range records {
		byInput[r.InputType] = append(byInput[r.InputType], r.Duration)
	}

	var rows []Row
	mapped := make(map[string]bool)
	for _, fam := range families {
		var union []float64
		contributed := 0
		for _, in := range fam.Inputs {
			mapped[in] = true
			values := byInput[in]
			if len(values) == 0 {
				log.Debug().Str("output", fam.Output).Str("input", in).Msg("No records for input type")
				continue
			}
			contributed++
			union = append(union, values...)
			rows = append(rows, newRow(fam.Output, in, values))
		}
		if contributed > 1 {
			rows = append(rows, newRow(fam.Output, AllInputs, union))
		}
	}

	var unmapped []string
	for in := range byInput {
		if !mapped[in] {
			unmapped = append(unmapped, in)
		}
	}
	slices.Sort(unmapped)
	for _, in := range unmapped {
		log.Warn().Str("input", in).Int("records", len(byInput[in])).Msg("Input type has no output mapping")
		rows = append(rows, newRow("", in, byInput[in]))
	}
	return rows
}

// GroupByOutput builds one row per output type, sorted by type.
func GroupByOutput(records []milestone.Record) []Row {
	byOutput := make(map[string][]float64)
	for _, r := range records {
		byOutput[r.OutputType] = append(byOutput[r.OutputType], r.Duration)
	}
	keys := make([]string, 0, len(byOutput))
	for k := range byOutput {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, newRow(k, "", byOutput[k]))
	}
	return rows
}

func newRow(output, input string, values []float64) Row {
	s, _ := Summarize(values)
	return Row{OutputType: output, InputType: input, Summary: s, Values: values}
}
