package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"
	"github.com/nasa/opera-sds-bach-api/internal/publish"
	"github.com/nasa/opera-sds-bach-api/internal/render"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reportOpts struct {
	start          string
	end            string
	mime           string
	flavor         string
	histograms     bool
	durationFormat string
	crid           string
	processingMode string
	out            string
	publish        string
	open           bool
}

var reportCmd = &cobra.Command{
	Use:   "report <name>",
	Short: "Generate one report and write it to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := catalog.Request{
			Report:         args[0],
			Start:          reportOpts.start,
			End:            reportOpts.end,
			Mime:           reportOpts.mime,
			Flavor:         reportOpts.flavor,
			DurationFormat: reportOpts.durationFormat,
			CRID:           reportOpts.crid,
			ProcessingMode: reportOpts.processingMode,
		}
		if cmd.Flags().Changed("histograms") {
			req.Histograms = &reportOpts.histograms
		}

		dir, name := ".", ""
		if reportOpts.out != "" {
			dir, name = filepath.Dir(reportOpts.out), filepath.Base(reportOpts.out)
		}

		res, path, err := dispatcher.GenerateFile(cmd.Context(), req, dir, name)
		if err != nil {
			var p *catalog.Problem
			if errors.As(err, &p) {
				fmt.Fprintln(os.Stderr, p.JSON())
			}
			return err
		}
		fmt.Fprintln(os.Stdout, path)

		uri := reportOpts.publish
		if uri == "" {
			uri = cfg.PublishURI
		}
		if uri != "" {
			if err := publishFile(cmd, uri, path, res); err != nil {
				return err
			}
		}

		if reportOpts.open {
			if err := browser.OpenFile(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to open report")
			}
		}
		return nil
	},
}

func publishFile(cmd *cobra.Command, uri, path string, res catalog.Result) error {
	pub, err := publish.Open(cmd.Context(), uri)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dest, err := pub.Publish(cmd.Context(), res.Filename, f, res.Mime)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, dest)
	return nil
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOpts.start, "start", "", "window start (ISO-8601)")
	f.StringVar(&reportOpts.end, "end", "", "window end (ISO-8601)")
	f.StringVar(&reportOpts.mime, "mime", render.MimeJSON, "output mime type")
	f.StringVar(&reportOpts.flavor, "flavor", "", "report flavor (default: the report's first flavor)")
	f.BoolVar(&reportOpts.histograms, "histograms", true, "render histograms in summary reports")
	f.StringVar(&reportOpts.durationFormat, "duration-format", "", "days, hours or seconds")
	f.StringVar(&reportOpts.crid, "crid", "", "composite release id filter")
	f.StringVar(&reportOpts.processingMode, "processing-mode", "", "processing mode filter")
	f.StringVarP(&reportOpts.out, "out", "o", "", "output file (default: computed name in the working directory)")
	f.StringVar(&reportOpts.publish, "publish", "", "s3:// or gs:// prefix to copy the report to (default: REPORT_PUBLISH_URI)")
	f.BoolVar(&reportOpts.open, "open", false, "open the report with the default application")
	_ = reportCmd.MarkFlagRequired("start")
	_ = reportCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(reportCmd)
}
