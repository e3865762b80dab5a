package stats

import (
	"testing"

	"github.com/nasa/opera-sds-bach-api/internal/milestone"
)

var hlsFamily = []Family{{Output: "L3_DSWX_HLS", Inputs: []string{"L2_HLS_L30", "L2_HLS_S30"}}}

func rec(input string, seconds float64) milestone.Record {
	return milestone.Record{InputType: input, OutputType: "L3_DSWX_HLS", Duration: seconds}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		name      string
		records   []milestone.Record
		wantKeys  []string
		wantCount []int
	}{
		{
			name:    "Empty",
			records: nil,
		},
		{
			name:      "SingleInputNoAllRow",
			records:   []milestone.Record{rec("L2_HLS_S30", 10), rec("L2_HLS_S30", 20)},
			wantKeys:  []string{"L2_HLS_S30"},
			wantCount: []int{2},
		},
		{
			name:      "TwoInputsAddAllRow",
			records:   []milestone.Record{rec("L2_HLS_S30", 10), rec("L2_HLS_L30", 20), rec("L2_HLS_L30", 30)},
			wantKeys:  []string{"L2_HLS_L30", "L2_HLS_S30", AllInputs},
			wantCount: []int{2, 1, 3},
		},
		{
			name:      "UnmappedAfterMapped",
			records:   []milestone.Record{rec("L1_S1_SLC", 5), rec("L2_HLS_L30", 20), rec("A_FIRST", 1)},
			wantKeys:  []string{"L2_HLS_L30", "A_FIRST", "L1_S1_SLC"},
			wantCount: []int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Group(tt.records, hlsFamily)
			if len(rows) != len(tt.wantKeys) {
				t.Fatalf("got %d rows, want %d: %+v", len(rows), len(tt.wantKeys), rows)
			}
			for i, row := range rows {
				if row.InputType != tt.wantKeys[i] {
					t.Errorf("row %d input = %s, want %s", i, row.InputType, tt.wantKeys[i])
				}
				if row.Count != tt.wantCount[i] || len(row.Values) != row.Count {
					t.Errorf("row %d count = %d (values %d), want %d", i, row.Count, len(row.Values), tt.wantCount[i])
				}
			}
		})
	}
}

func TestGroup_AllRowStatistics(t *testing.T) {
	rows := Group([]milestone.Record{rec("L2_HLS_L30", 3600), rec("L2_HLS_S30", 10800)}, hlsFamily)
	all := rows[len(rows)-1]
	if all.InputType != AllInputs || all.OutputType != "L3_DSWX_HLS" {
		t.Fatalf("last row = %+v", all)
	}
	if all.Min != 3600 || all.Max != 10800 || all.Mean != 7200 {
		t.Errorf("ALL summary = %+v", all.Summary)
	}
}

func TestGroupByOutput(t *testing.T) {
	records := []milestone.Record{
		{OutputType: "L3_DSWX_HLS", Duration: 3600},
		{OutputType: "L3_DSWX_HLS", Duration: 7200},
		{OutputType: "L2_CSLC_S1", Duration: 60},
	}
	rows := GroupByOutput(records)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].OutputType != "L2_CSLC_S1" || rows[1].Count != 2 {
		t.Errorf("rows = %+v", rows)
	}
}
