package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrCollectionNotFound is returned when a collection (index or pattern) does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

func isNotFound(err error) bool {
	return errors.Is(err, ErrCollectionNotFound)
}

// maxParallelFetches bounds concurrent collection requests against the store.
const maxParallelFetches = 4

// Gateway is the narrow contract the reports use against the document store.
type Gateway interface {
	// FetchAll returns every document matching q across the named collections, paging through
	// the whole result set.
	FetchAll(ctx context.Context, collections []string, q Query) ([]Document, error)
	// Count returns the number of documents in collection matching q.
	Count(ctx context.Context, collection string, q Query) (int, error)
}

// Config holds the connection settings for the document store.
type Config struct {
	// Backend is "elasticsearch" or "file".
	Backend  string
	URL      string
	Username string
	Password string
	// Dir is the JSONL directory used by the file backend.
	Dir           string
	ScrollTimeout string
	PageSize      int
}

// FetchCollections fetches each collection concurrently and merges the results in collection
// order. A failing collection is logged and contributes nothing; the returned slice reports which
// collections failed so callers can decide whether the loss is fatal.
func FetchCollections(ctx context.Context, gw Gateway, collections []string, q Query) ([]Document, []string) {
	results := make([][]Document, len(collections))
	failed := make([]bool, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, name := range collections {
		g.Go(func() error {
			docs, err := gw.FetchAll(gctx, []string{name}, q)
			if err != nil {
				evt := log.Warn()
				if !isNotFound(err) {
					evt = log.Error()
				}
				evt.Err(err).Str("collection", name).Msg("Collection fetch failed, continuing without it")
				failed[i] = true
				return nil
			}
			results[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	var merged []Document
	var missing []string
	for i, docs := range results {
		if failed[i] {
			missing = append(missing, collections[i])
			continue
		}
		merged = append(merged, docs...)
	}
	log.Debug().Int("collections", len(collections)).Int("documents", len(merged)).Msg("Fetched collections")
	return merged, missing
}

// CountCollections counts documents for each named group of collections. A collection that
// cannot be counted contributes zero to its group; other groups are unaffected.
func CountCollections(ctx context.Context, gw Gateway, groups map[string][]string, q func(collection string) Query) map[string]int {
	counts := make(map[string]int, len(groups))
	for name := range groups {
		counts[name] = 0
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		for _, collection := range groups[name] {
			if collection == "" {
				continue
			}
			g.Go(func() error {
				n, err := gw.Count(gctx, collection, q(collection))
				if err != nil {
					log.Warn().Err(err).Str("name", name).Str("collection", collection).Msg("Count failed, reporting zero")
					return nil
				}
				mu.Lock()
				counts[name] += n
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return counts
}

// Open builds the Gateway selected by cfg.Backend.
func Open(cfg Config) (Gateway, error) {
	switch cfg.Backend {
	case "", "elasticsearch":
		return NewElastic(cfg)
	case "file":
		if cfg.Dir == "" {
			return nil, errors.New("file store directory is not configured")
		}
		return NewFile(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown document store backend %q", cfg.Backend)
	}
}
