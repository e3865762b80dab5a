package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/report"
	"github.com/nasa/opera-sds-bach-api/internal/store"
)

// ErrUnknownCategory is returned for a count category other than the ones below.
var ErrUnknownCategory = errors.New("unknown count category")

// Count categories.
const (
	CountIncoming = "incoming"
	CountOutgoing = "outgoing"
	CountAll      = "all"
)

// CountDocuments returns the number of documents per named collection received in
// [start, end]. Outgoing collections only count acknowledged deliveries. A collection that
// cannot be counted reports zero.
func CountDocuments(ctx context.Context, deps report.Deps, category string, start, end time.Time) (map[string]int, error) {
	m := deps.Mappings
	accountability := config.Collections(m.AccountabilityIndexes)
	stateConfig := config.Collections(m.StateConfigIndexes)
	window := func(collection string) store.Query {
		return store.Window(store.TimeKeyFor(collection, accountability, stateConfig), start, end)
	}
	delivered := func(collection string) store.Query {
		return window(collection).WithMatch("daac_delivery_status", "SUCCESS")
	}

	incoming := config.Groups(m.InputIndexes, m.IncomingAncillary, m.AccountabilityIndexes, m.StateConfigIndexes)
	outgoing := config.Groups(m.OutgoingProducts)

	switch category {
	case CountIncoming:
		return store.CountCollections(ctx, deps.Gateway, incoming, window), nil
	case CountOutgoing:
		return store.CountCollections(ctx, deps.Gateway, outgoing, delivered), nil
	case CountAll, "":
		out := store.CountCollections(ctx, deps.Gateway, incoming, window)
		maps.Copy(out, store.CountCollections(ctx, deps.Gateway, config.Groups(m.ProductIndexes), window))
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}
