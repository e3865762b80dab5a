// Package report builds the accountability reports: retrieval and production timing, incoming
// and outgoing file counts and the combined data accountability view.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/stats"
	"github.com/nasa/opera-sds-bach-api/internal/store"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"
)

var (
	// ErrUnsupportedFlavor is returned for a flavor the report does not offer.
	ErrUnsupportedFlavor = errors.New("unsupported report flavor")
	// ErrPrimaryUnavailable is returned when none of a report's primary collections could be read.
	ErrPrimaryUnavailable = errors.New("primary collections unavailable")
	// ErrNotPopulated is returned when a report is rendered before Populate succeeded.
	ErrNotPopulated = errors.New("report has not been populated")
)

// Flavors.
const (
	Detailed  = "detailed"
	Summary   = "summary"
	Brief     = "brief"
	SDP       = "sdp"
	Ancillary = "ancillary"
)

// Duration formats for time reports.
const (
	DurationDays    = "days"
	DurationHours   = "hours"
	DurationSeconds = "seconds"
)

// Report is one generated accountability report.
type Report interface {
	Name() string
	// Flavor is the resolved flavor, after defaulting.
	Flavor() string
	// Populate pulls documents and computes the report rows.
	Populate(ctx context.Context) error
	// Render encodes the populated report in mime.
	Render(ctx context.Context, mime string, w io.Writer) error
	// Filename is the deterministic artifact name for mime.
	Filename(mime string) (string, error)
	// Supports reports whether the report can be rendered in mime.
	Supports(mime string) bool
}

// Options are the per-request report parameters.
type Options struct {
	Start     time.Time
	End       time.Time
	Generated time.Time
	Flavor    string

	Histograms bool
	// DurationFormat overrides the report's default duration rendering.
	DurationFormat string

	CRID           string
	Venue          string
	ProcessingMode string
	// TmpDir is where archive bundles are staged; empty means the system default.
	TmpDir string
}

// Deps are the collaborators injected into every report.
type Deps struct {
	Gateway  store.Gateway
	Mappings *config.Mappings
	// Lookback widens ancillary fetches backwards from the report start.
	Lookback time.Duration
}

func (d Deps) validate() error {
	if d.Gateway == nil {
		return errors.New("report needs a document gateway")
	}
	if d.Mappings == nil {
		return errors.New("report needs product mappings")
	}
	return nil
}

// base carries what every report shares: options, dependencies and the populated table.
type base struct {
	name    string
	flavors []string
	deps    Deps
	opts    Options
	table   *render.Table
	// filename builds the artifact name for an extension.
	filename func(ext string) string
}

func newBase(name string, flavors []string, deps Deps, opts Options) (base, error) {
	if err := deps.validate(); err != nil {
		return base{}, err
	}
	if opts.Flavor == "" {
		opts.Flavor = flavors[0]
	}
	if !slices.Contains(flavors, opts.Flavor) {
		return base{}, fmt.Errorf("%w: %s offers %v, got %q", ErrUnsupportedFlavor, name, flavors, opts.Flavor)
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now().UTC()
	}
	switch opts.DurationFormat {
	case "", DurationDays, DurationHours, DurationSeconds:
	default:
		return base{}, fmt.Errorf("unknown duration format %q", opts.DurationFormat)
	}
	return base{name: name, flavors: flavors, deps: deps, opts: opts}, nil
}

func (b *base) Name() string { return b.name }

func (b *base) Flavor() string { return b.opts.Flavor }

// Supports accepts every tabular format; only the timing reports draw charts.
func (b *base) Supports(mime string) bool {
	if mime == render.MimePNG {
		return false
	}
	_, err := render.Extension(mime)
	return err == nil
}

func (b *base) Filename(mime string) (string, error) {
	ext, err := render.Extension(mime)
	if err != nil {
		return "", err
	}
	return b.filename(ext), nil
}

func (b *base) Render(ctx context.Context, mime string, w io.Writer) error {
	if b.table == nil {
		return ErrNotPopulated
	}
	csvName := b.filename("csv")
	return render.Write(w, b.table, mime, csvName, b.opts.TmpDir)
}

// window is the primary time filter with the universal filters applied.
func (b *base) window(timeKey string) store.Query {
	return store.Window(timeKey, b.opts.Start, b.opts.End).
		WithUniversal(b.opts.CRID, b.opts.ProcessingMode)
}

// fetchPrimary reads the primary collections. Losing some of them is tolerated; losing all
// is fatal.
func (b *base) fetchPrimary(ctx context.Context, collections []string, q store.Query) ([]store.Document, error) {
	docs, missing := store.FetchCollections(ctx, b.deps.Gateway, collections, q)
	if len(collections) > 0 && len(missing) == len(collections) {
		return nil, fmt.Errorf("%w: %v", ErrPrimaryUnavailable, missing)
	}
	return docs, nil
}

func (b *base) reportDate() string {
	return b.opts.Generated.UTC().Format(timefmt.ISOZ)
}

func (b *base) coverage(sep string) string {
	return b.opts.Start.UTC().Format(timefmt.ISOZ) + sep + b.opts.End.UTC().Format(timefmt.ISOZ)
}

// duration renders seconds in the requested format, falling back to def.
func (b *base) duration(seconds float64, def string) any {
	format := b.opts.DurationFormat
	if format == "" {
		format = def
	}
	switch format {
	case DurationSeconds:
		return seconds
	case DurationHours:
		return timefmt.FormatHours(seconds)
	default:
		return timefmt.FormatDays(seconds)
	}
}

// families turns the output -> inputs mapping into aggregation families.
func families(m *config.Mappings) []stats.Family {
	out := make([]stats.Family, 0, len(m.SDSProducts))
	for _, p := range m.SDSProducts {
		out = append(out, stats.Family{Output: p.Type, Inputs: p.Inputs})
	}
	return out
}

// outputFor finds the output type an input type feeds, or "".
func outputFor(fams []stats.Family, input string) string {
	for _, f := range fams {
		if slices.Contains(f.Inputs, input) {
			return f.Output
		}
	}
	return ""
}
