package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/report"

	"github.com/goccy/go-json"
)

// ErrInvalidWindow is returned for a time window that cannot be parsed or is inverted.
var ErrInvalidWindow = errors.New("invalid time window")

// Problem is the structured failure returned to callers instead of a raw error.
type Problem struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Status    int      `json:"status"`
	Detail    string   `json:"detail"`
	Traceback string   `json:"traceback,omitempty"`
	Request   *Request `json:"request,omitempty"`

	err error
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

func (p *Problem) Unwrap() error { return p.err }

// JSON renders the problem object. It never fails.
func (p *Problem) JSON() string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf(`{"type":"about:blank","title":%q,"status":%d}`, p.Title, p.Status)
	}
	return string(b)
}

// NewProblem classifies err. Client mistakes map to 404 and 400; anything else is a 500
// carrying the current stack.
func NewProblem(err error, req *Request) *Problem {
	var p *Problem
	if errors.As(err, &p) {
		return p
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, render.ErrUnsupportedFormat),
		errors.Is(err, report.ErrUnsupportedFlavor),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrUnknownCategory):
		status = http.StatusBadRequest
	}

	p = &Problem{
		Type:    "about:blank",
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  err.Error(),
		Request: req,
		err:     err,
	}
	if status == http.StatusInternalServerError {
		p.Traceback = string(debug.Stack())
	}
	return p
}
