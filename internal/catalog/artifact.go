package catalog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nasa/opera-sds-bach-api/internal/report"

	"github.com/rs/zerolog/log"
)

// GenerateFile renders a report into dir. An empty name uses the report's computed filename.
// The artifact is written to a temp file first and renamed into place, so a failed report
// never leaves a partial file behind.
func (d *Dispatcher) GenerateFile(ctx context.Context, req Request, dir, name string) (Result, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, "", fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return Result{}, "", fmt.Errorf("failed to create temp report file: %w", err)
	}
	tmpPath := file.Name()

	writer := bufio.NewWriter(file)
	res, err := d.Generate(ctx, req, writer)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return Result{}, "", err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return Result{}, "", fmt.Errorf("failed to flush report: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return Result{}, "", fmt.Errorf("failed to close report: %w", err)
	}

	if name == "" {
		name = res.Filename
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Result{}, "", fmt.Errorf("failed to move report into place: %w", err)
	}
	log.Info().Str("path", path).Msg("Report written")
	return res, path, nil
}

// Deps returns the dependencies reports are built with.
func (d *Dispatcher) Deps() report.Deps { return d.deps }
