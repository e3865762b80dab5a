package commands

import (
	"fmt"
	"slices"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/spf13/cobra"
)

var snapshotOpts struct {
	start string
	end   string
	dir   string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Mirror the configured collections into a JSONL directory for offline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := gateway.(*store.File); ok {
			return fmt.Errorf("snapshot needs the elasticsearch backend as its source")
		}
		start, end, err := parseWindow(snapshotOpts.start, snapshotOpts.end)
		if err != nil {
			return err
		}
		dir := snapshotOpts.dir
		if dir == "" {
			dir = cfg.Store.Dir
		}

		accountability := config.Collections(mappings.AccountabilityIndexes)
		stateConfig := config.Collections(mappings.StateConfigIndexes)
		ancillary := make([]string, 0, len(mappings.Ancillary))
		for _, a := range mappings.Ancillary {
			ancillary = append(ancillary, a.Index)
		}

		var collections []string
		for _, m := range []map[string]string{
			mappings.InputIndexes, mappings.IncomingAncillary, mappings.ProductIndexes,
			mappings.OutgoingProducts, mappings.StateConfigIndexes, mappings.AccountabilityIndexes,
		} {
			collections = append(collections, config.Collections(m)...)
		}
		collections = append(collections, ancillary...)
		slices.Sort(collections)
		collections = slices.Compact(collections)

		written, err := store.Snapshot(cmd.Context(), gateway, store.NewFile(dir), collections, func(c string) store.Query {
			q := store.Window(store.TimeKeyFor(c, accountability, stateConfig), start, end)
			if slices.Contains(ancillary, c) {
				q = q.Shifted(cfg.AncillaryLookback)
			}
			return q
		})
		if err != nil {
			return err
		}
		return printJSON(written)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOpts.start, "start", "", "window start (ISO-8601)")
	snapshotCmd.Flags().StringVar(&snapshotOpts.end, "end", "", "window end (ISO-8601)")
	snapshotCmd.Flags().StringVar(&snapshotOpts.dir, "dir", "", "target directory (default: DOCSTORE_DIR)")
	_ = snapshotCmd.MarkFlagRequired("start")
	_ = snapshotCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(snapshotCmd)
}
