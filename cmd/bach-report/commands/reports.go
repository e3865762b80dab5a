package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"

	"github.com/spf13/cobra"
)

var reportsJSON bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the available reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := catalog.List()
		if reportsJSON {
			return printJSON(entries)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFLAVORS\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, strings.Join(e.Flavors, ","), e.Description)
		}
		return w.Flush()
	},
}

func init() {
	reportsCmd.Flags().BoolVar(&reportsJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(reportsCmd)
}
