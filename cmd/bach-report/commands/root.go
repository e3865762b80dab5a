package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"
	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/logging"
	"github.com/nasa/opera-sds-bach-api/internal/report"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	mappings   *config.Mappings
	gateway    store.Gateway
	dispatcher *catalog.Dispatcher
)

var rootCmd = &cobra.Command{
	Use:   "bach-report",
	Short: "bach-report generates product accountability reports",
	Long: `Reports over the product document store: how long input products took to arrive, how long
products took to produce and deliver, and how many files came in and went out in a window.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		mappings, err = config.LoadMappings(cfg.MappingsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load product mappings")
		}

		gateway, err = store.Open(cfg.Store)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open document store")
		}

		dispatcher = catalog.NewDispatcher(report.Deps{
			Gateway:  gateway,
			Mappings: mappings,
			Lookback: cfg.AncillaryLookback,
		})
		dispatcher.Venue = cfg.Venue
		dispatcher.Histograms = cfg.EnableHistograms
		dispatcher.TmpDir = os.TempDir()

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("backend", cfg.Store.Backend).
			Msg("bach-report starting")
	},
}

// Execute runs the root command. An interrupt cancels the running command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Version = Version
}
