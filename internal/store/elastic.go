package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	defaultScrollTimeout = 30 * time.Second
	defaultPageSize      = 10000
	// stalledPageLimit stops a scroll that keeps returning pages with no new documents.
	stalledPageLimit = 3
)

// Elastic is the Gateway backed by an Elasticsearch cluster.
type Elastic struct {
	es            *elasticsearch.Client
	scrollTimeout time.Duration
	pageSize      int
}

// NewElastic connects a Gateway to the cluster described by cfg.
func NewElastic(cfg Config) (*Elastic, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elasticsearch URL is not configured")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(cfg.URL, ","),
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{ResponseHeaderTimeout: 90 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	timeout := defaultScrollTimeout
	if cfg.ScrollTimeout != "" {
		d, err := time.ParseDuration(cfg.ScrollTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid scroll timeout %q: %w", cfg.ScrollTimeout, err)
		}
		timeout = d
	}
	size := cfg.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	return &Elastic{es: es, scrollTimeout: timeout, pageSize: size}, nil
}

// hitsTotal accepts both the object form and the legacy integer form of hits.total.
type hitsTotal int

func (t *hitsTotal) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = hitsTotal(n)
		return nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = hitsTotal(obj.Value)
	return nil
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total hitsTotal  `json:"total"`
		Hits  []Document `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

// FetchAll runs a scrolled search and accumulates every page. hits.total is only logged: the
// cluster caps it at track_total_hits, so the scroll runs until a page comes back empty.
func (e *Elastic) FetchAll(ctx context.Context, collections []string, q Query) ([]Document, error) {
	body, err := json.Marshal(q.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	target := strings.Join(collections, ",")
	log.Debug().Str("collections", target).RawJSON("query", body).Msg("Searching store")

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(collections...),
		e.es.Search.WithBody(bytes.NewReader(body)),
		e.es.Search.WithScroll(e.scrollTimeout),
		e.es.Search.WithSize(e.pageSize),
		e.es.Search.WithIgnoreUnavailable(true),
		e.es.Search.WithAllowNoIndices(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", target, err)
	}
	page, err := decodeSearch(res, target)
	if err != nil {
		if isNotFound(err) {
			log.Warn().Str("collections", target).Msg("Collection not found, treating as empty")
			return nil, nil
		}
		return nil, err
	}

	acc := newAccumulator()
	acc.add(page.Hits.Hits)
	total := int(page.Hits.Total)
	scrollID := page.ScrollID
	defer func() { e.clearScroll(scrollID) }()

	stalled := 0
	for len(page.Hits.Hits) > 0 && scrollID != "" {
		res, err := e.es.Scroll(
			e.es.Scroll.WithContext(ctx),
			e.es.Scroll.WithScrollID(scrollID),
			e.es.Scroll.WithScroll(e.scrollTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", target, err)
		}
		next, err := decodeSearch(res, target)
		if err != nil {
			return nil, err
		}
		if next.ScrollID != "" {
			scrollID = next.ScrollID
		}
		if len(next.Hits.Hits) == 0 {
			break
		}
		if acc.add(next.Hits.Hits) == 0 {
			stalled++
			if stalled >= stalledPageLimit {
				log.Warn().Str("collections", target).Int("stalled_pages", stalled).Msg("Scroll returned only duplicates, stopping")
				break
			}
			continue
		}
		stalled = 0
	}

	log.Debug().Str("collections", target).Int("total", total).Int("fetched", acc.len()).Msg("Scroll complete")
	return acc.docs, nil
}

// Count returns the number of matching documents; a missing collection counts zero.
func (e *Elastic) Count(ctx context.Context, collection string, q Query) (int, error) {
	body, err := json.Marshal(map[string]any{"query": q.Body()["query"]})
	if err != nil {
		return 0, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := e.es.Count(
		e.es.Count.WithContext(ctx),
		e.es.Count.WithIndex(collection),
		e.es.Count.WithBody(bytes.NewReader(body)),
		e.es.Count.WithIgnoreUnavailable(true),
		e.es.Count.WithAllowNoIndices(true),
	)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	defer res.Body.Close()

	if err := statusError(res, collection); err != nil {
		if isNotFound(err) {
			log.Warn().Str("collection", collection).Msg("Collection not found, counting zero")
			return 0, nil
		}
		return 0, err
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode count response for %s: %w", collection, err)
	}
	return out.Count, nil
}

func (e *Elastic) clearScroll(id string) {
	if id == "" {
		return
	}
	res, err := e.es.ClearScroll(e.es.ClearScroll.WithScrollID(id))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to clear scroll")
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

func decodeSearch(res *esapi.Response, target string) (*searchResponse, error) {
	defer res.Body.Close()
	if err := statusError(res, target); err != nil {
		return nil, err
	}
	var page searchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response for %s: %w", target, err)
	}
	return &page, nil
}

func statusError(res *esapi.Response, target string) error {
	if !res.IsError() {
		return nil
	}
	switch res.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", target, ErrCollectionNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("elasticsearch authentication failed (%d) for %s", res.StatusCode, target)
	case http.StatusTooManyRequests:
		if retryAfter := res.Header.Get("Retry-After"); retryAfter != "" {
			return fmt.Errorf("elasticsearch rate limit exceeded (429) for %s, retry after %s seconds", target, retryAfter)
		}
		return fmt.Errorf("elasticsearch rate limit exceeded (429) for %s", target)
	default:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elasticsearch returned status %d for %s: %s", res.StatusCode, target, strings.TrimSpace(string(msg)))
	}
}

// accumulator keeps documents in arrival order, dropping repeated (index, id) pairs.
type accumulator struct {
	seen map[string]struct{}
	docs []Document
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]struct{})}
}

func (a *accumulator) add(docs []Document) int {
	added := 0
	for _, d := range docs {
		key := d.Index + "/" + d.ID
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.docs = append(a.docs, d)
		added++
	}
	return added
}

func (a *accumulator) len() int { return len(a.docs) }
