package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const fileExt = ".jsonl"

// File is a Gateway over a directory of JSONL files, one file per collection. It serves offline
// runs from snapshots of the store or from generated fixtures.
type File struct {
	dir string
	mu  sync.RWMutex
	// cache holds parsed collections keyed by collection name.
	cache map[string][]Document
}

// NewFile opens a file-backed gateway rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: dir, cache: make(map[string][]Document)}
}

// Dir is the directory holding the collection files.
func (f *File) Dir() string { return f.dir }

// FetchAll returns documents from every collection whose name matches one of the requested
// names or glob patterns.
func (f *File) FetchAll(ctx context.Context, collections []string, q Query) ([]Document, error) {
	names, err := f.resolve(collections)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		log.Warn().Strs("collections", collections).Msg("Collection not found, treating as empty")
		return nil, nil
	}

	var out []Document
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs, err := f.load(name)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if q.Match(d) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// Count returns the number of documents in collection matching q.
func (f *File) Count(ctx context.Context, collection string, q Query) (int, error) {
	docs, err := f.FetchAll(ctx, []string{collection}, q)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (f *File) resolve(collections []string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var available []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileExt) {
			available = append(available, strings.TrimSuffix(e.Name(), fileExt))
		}
	}

	var names []string
	for _, pattern := range collections {
		for _, name := range available {
			ok, err := filepath.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("invalid collection pattern %q: %w", pattern, err)
			}
			if ok && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (f *File) load(name string) ([]Document, error) {
	f.mu.RLock()
	docs, ok := f.cache[name]
	f.mu.RUnlock()
	if ok {
		return docs, nil
	}

	file, err := os.Open(filepath.Join(f.dir, name+fileExt))
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var d Document
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("Skipping invalid JSON line")
			continue
		}
		if d.Index == "" {
			d.Index = name
		}
		docs = append(docs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading collection %s: %w", name, err)
	}

	log.Debug().Str("collection", name).Int("count", len(docs)).Msg("Loaded collection from disk")
	f.mu.Lock()
	f.cache[name] = docs
	f.mu.Unlock()
	return docs, nil
}

// Save writes docs as the named collection, replacing any previous content atomically.
func (f *File) Save(name string, docs []Document) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	path := filepath.Join(f.dir, name+fileExt)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp collection file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, d := range docs {
		if d.Index == "" {
			d.Index = name
		}
		if err := encoder.Encode(d); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode document %s: %w", d.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename collection file: %w", err)
	}

	f.mu.Lock()
	delete(f.cache, name)
	f.mu.Unlock()

	log.Info().Str("collection", name).Int("count", len(docs)).Str("path", path).Msg("Saved collection")
	return nil
}

// Compile-time interface checks.
var (
	_ Gateway = (*File)(nil)
	_ Gateway = (*Elastic)(nil)
)
