package catalog

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/report"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"github.com/rs/zerolog/log"
)

// Request is one report generation request as received from a caller.
type Request struct {
	Report     string `json:"report"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Mime       string `json:"mime"`
	Flavor     string `json:"flavor,omitempty"`
	Histograms *bool  `json:"histograms,omitempty"`
	// DurationFormat is days, hours or seconds; empty keeps the report default.
	DurationFormat string `json:"duration_format,omitempty"`
	CRID           string `json:"crid,omitempty"`
	ProcessingMode string `json:"processing_mode,omitempty"`
}

// Result describes a rendered report.
type Result struct {
	Report   string `json:"report"`
	Flavor   string `json:"flavor"`
	Mime     string `json:"mime"`
	Filename string `json:"filename"`
}

// Dispatcher builds and renders reports against one set of dependencies.
type Dispatcher struct {
	deps report.Deps
	// Venue and TmpDir are copied into every report's options.
	Venue  string
	TmpDir string
	// Histograms is used when a request does not say.
	Histograms bool
	// Now stamps the generation time.
	Now func() time.Time

	lookup func(name string) (Entry, error)
}

// NewDispatcher creates a dispatcher over deps.
func NewDispatcher(deps report.Deps) *Dispatcher {
	return &Dispatcher{
		deps:   deps,
		Now:    func() time.Time { return time.Now().UTC() },
		lookup: Lookup,
	}
}

// Generate resolves, populates and renders the requested report into w. Every failure,
// including a panic inside a report, comes back as a *Problem.
func (d *Dispatcher) Generate(ctx context.Context, req Request, w io.Writer) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("report", req.Report).Msg("Report generation panicked")
			p := NewProblem(fmt.Errorf("report generation panicked: %v", r), &req)
			p.Traceback = string(debug.Stack())
			err = p
		}
	}()

	res, err = d.generate(ctx, req, w)
	if err != nil {
		log.Error().Err(err).Str("report", req.Report).Str("mime", req.Mime).Msg("Error while generating report")
		return Result{}, NewProblem(err, &req)
	}
	return res, nil
}

// Prepare resolves and validates a request without touching the store. It is exposed so
// callers can compute the artifact name before generating.
func (d *Dispatcher) Prepare(req Request) (report.Report, string, error) {
	entry, err := d.lookup(req.Report)
	if err != nil {
		return nil, "", err
	}
	if req.Mime == "" {
		req.Mime = render.MimeJSON
	}
	if _, err := render.Extension(req.Mime); err != nil {
		return nil, "", err
	}

	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return nil, "", err
	}

	histograms := d.Histograms
	if req.Histograms != nil {
		histograms = *req.Histograms
	}
	rep, err := entry.New(d.deps, report.Options{
		Start:          start,
		End:            end,
		Generated:      d.Now(),
		Flavor:         req.Flavor,
		Histograms:     histograms,
		DurationFormat: req.DurationFormat,
		CRID:           req.CRID,
		Venue:          d.Venue,
		ProcessingMode: req.ProcessingMode,
		TmpDir:         d.TmpDir,
	})
	if err != nil {
		return nil, "", err
	}
	if !rep.Supports(req.Mime) {
		return nil, "", fmt.Errorf("%w: %s cannot be rendered as %s", render.ErrUnsupportedFormat, rep.Name(), req.Mime)
	}
	return rep, req.Mime, nil
}

func (d *Dispatcher) generate(ctx context.Context, req Request, w io.Writer) (Result, error) {
	rep, mime, err := d.Prepare(req)
	if err != nil {
		return Result{}, err
	}
	name, err := rep.Filename(mime)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	if err := rep.Populate(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to populate %s: %w", rep.Name(), err)
	}
	if err := rep.Render(ctx, mime, w); err != nil {
		return Result{}, fmt.Errorf("failed to render %s as %s: %w", rep.Name(), mime, err)
	}

	log.Info().
		Str("report", rep.Name()).
		Str("mime", mime).
		Str("filename", name).
		Dur("elapsed", time.Since(started)).
		Msg("Report generated")
	return Result{Report: rep.Name(), Flavor: rep.Flavor(), Mime: mime, Filename: name}, nil
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := timefmt.Parse(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
	}
	end, err := timefmt.Parse(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidWindow,
			end.Format(timefmt.ISOZ), start.Format(timefmt.ISOZ))
	}
	return start, end, nil
}
