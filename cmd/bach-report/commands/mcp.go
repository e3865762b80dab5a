package commands

import (
	"path/filepath"

	"github.com/nasa/opera-sds-bach-api/internal/mcp"
	"github.com/nasa/opera-sds-bach-api/internal/publish"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the reports as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		var pub publish.Publisher
		if cfg.PublishURI != "" {
			var err error
			pub, err = publish.Open(cmd.Context(), cfg.PublishURI)
			if err != nil {
				return err
			}
			log.Info().Str("uri", cfg.PublishURI).Msg("Publishing generated reports")
		}

		server := mcp.NewServer(dispatcher, filepath.Join(cfg.CacheDir, "reports"), pub)
		return server.Start(cmd.Context(), Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
