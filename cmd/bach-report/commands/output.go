package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"github.com/goccy/go-json"
)

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	s, err := timefmt.Parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	e, err := timefmt.Parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
	}
	return s, e, nil
}
