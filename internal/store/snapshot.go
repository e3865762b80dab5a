package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Snapshot copies each collection from src into dst, one JSONL file per collection. Fetches run
// concurrently; the first fetch or write failure aborts the snapshot. It returns the number of
// documents written per collection.
func Snapshot(ctx context.Context, src Gateway, dst *File, collections []string, q func(collection string) Query) (map[string]int, error) {
	written := make(map[string]int, len(collections))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, name := range collections {
		if name == "" {
			continue
		}
		g.Go(func() error {
			docs, err := src.FetchAll(gctx, []string{name}, q(name))
			if err != nil {
				return fmt.Errorf("snapshot of %s failed: %w", name, err)
			}
			if err := dst.Save(name, docs); err != nil {
				return err
			}
			mu.Lock()
			written[name] = len(docs)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info().Int("collections", len(written)).Str("dir", dst.Dir()).Msg("Snapshot complete")
	return written, nil
}
