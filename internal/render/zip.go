package render

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

type zipEntry struct {
	path string
	name string
}

// ZIP bundles the table as CSV plus one PNG per chart. Entries are staged as files in a
// temporary directory under tmpDir (the system default when empty) that is removed afterwards.
func ZIP(w io.Writer, t *Table, csvName, tmpDir string) error {
	dir, err := os.MkdirTemp(tmpDir, "bach-report-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to remove staging directory")
		}
	}()

	entries := make([]zipEntry, 0, len(t.Images)+1)

	csvPath := filepath.Join(dir, "table.csv")
	if err := writeFile(csvPath, func(f io.Writer) error { return CSV(f, t) }); err != nil {
		return err
	}
	entries = append(entries, zipEntry{path: csvPath, name: csvName})

	for i, img := range t.Images {
		p := filepath.Join(dir, fmt.Sprintf("chart-%03d.png", i))
		if err := os.WriteFile(p, img.PNG, 0600); err != nil {
			return fmt.Errorf("failed to stage %s: %w", img.Name, err)
		}
		entries = append(entries, zipEntry{path: p, name: img.Name})
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, e); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	log.Debug().Int("entries", len(entries)).Msg("Wrote report archive")
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addFile(zw *zip.Writer, e zipEntry) error {
	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.Create(e.name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", e.name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("failed to add %s: %w", e.name, err)
	}
	return nil
}
