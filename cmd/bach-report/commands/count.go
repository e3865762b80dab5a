package commands

import (
	"github.com/nasa/opera-sds-bach-api/internal/catalog"

	"github.com/spf13/cobra"
)

var countOpts struct {
	category string
	start    string
	end      string
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count documents per named collection in a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseWindow(countOpts.start, countOpts.end)
		if err != nil {
			return err
		}
		counts, err := catalog.CountDocuments(cmd.Context(), dispatcher.Deps(), countOpts.category, start, end)
		if err != nil {
			return err
		}
		return printJSON(counts)
	},
}

func init() {
	countCmd.Flags().StringVar(&countOpts.category, "category", catalog.CountAll, "incoming, outgoing or all")
	countCmd.Flags().StringVar(&countOpts.start, "start", "", "window start (ISO-8601)")
	countCmd.Flags().StringVar(&countOpts.end, "end", "", "window end (ISO-8601)")
	_ = countCmd.MarkFlagRequired("start")
	_ = countCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(countCmd)
}
