// Package catalog resolves report names to report constructors and runs them on behalf of the
// CLI and tool server.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nasa/opera-sds-bach-api/internal/report"
)

// ErrReportNotFound is returned when a name does not resolve to a registered report.
var ErrReportNotFound = errors.New("report not found")

// Factory constructs a report ready to populate.
type Factory func(deps report.Deps, opts report.Options) (report.Report, error)

// Entry is one registered report.
type Entry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Flavors     []string `json:"flavors"`
	New         Factory  `json:"-"`
}

var registry = []Entry{
	{
		Name:        report.RetrievalTimeName,
		Description: "Time from public availability of input products to their receipt by the system.",
		Flavors:     []string{report.Summary, report.Detailed},
		New: func(d report.Deps, o report.Options) (report.Report, error) {
			return report.NewRetrievalTime(d, o)
		},
	},
	{
		Name:        report.ProductionTimeName,
		Description: "Time from input receipt to the archive being alerted of the generated product.",
		Flavors:     []string{report.Summary, report.Detailed},
		New: func(d report.Deps, o report.Options) (report.Report, error) {
			return report.NewProductionTime(d, o)
		},
	},
	{
		Name:        report.IncomingFilesName,
		Description: "Count and volume of incoming science or ancillary files per collection.",
		Flavors:     []string{report.SDP, report.Ancillary},
		New: func(d report.Deps, o report.Options) (report.Report, error) {
			return report.NewIncomingFiles(d, o)
		},
	},
	{
		Name:        report.DaacOutgoingName,
		Description: "Products successfully delivered to the archive.",
		Flavors:     []string{report.Brief, report.Detailed},
		New: func(d report.Deps, o report.Options) (report.Report, error) {
			return report.NewDaacOutgoing(d, o)
		},
	},
	{
		Name:        report.DataAccountabilityName,
		Description: "Incoming, generated and delivered totals in one table.",
		Flavors:     []string{report.Brief},
		New: func(d report.Deps, o report.Options) (report.Report, error) {
			return report.NewDataAccountability(d, o)
		},
	},
}

// List returns the registered reports sorted by name.
func List() []Entry {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Lookup resolves a report name. Matching ignores case.
func Lookup(name string) (Entry, error) {
	for _, e := range registry {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrReportNotFound, name)
}
