package health

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jonathan/module-builder/internal/types"
)

// Finding is the probe result for one page route.
type Finding struct {
	Route   string `json:"route"`
	URL     string `json:"url"`
	Status  int    `json:"status,omitempty"`
	Title   string `json:"title,omitempty"`
	OK      bool   `json:"ok"`
	Problem string `json:"problem,omitempty"`
}

// Report collects the findings of one probe.
type Report struct {
	BaseURL  string    `json:"base_url"`
	Findings []Finding `json:"findings"`
}

// Healthy reports whether every probed page passed.
func (r *Report) Healthy() bool {
	for _, f := range r.Findings {
		if !f.OK {
			return false
		}
	}
	return true
}

// Problems returns the failed findings as readable lines.
func (r *Report) Problems() []string {
	var out []string
	for _, f := range r.Findings {
		if !f.OK {
			out = append(out, fmt.Sprintf("%s: %s", f.Route, f.Problem))
		}
	}
	return out
}

// rootSelectors are the elements that show an application page rendered.
var rootSelectors = []string{"#__next", "#root", "main", "[data-module]"}

var paramSegment = regexp.MustCompile(`\[\.{0,3}[^\]]*\]`)

// SampleID fills dynamic route segments when probing.
const SampleID = "00000000-0000-0000-0000-000000000000"

// Prober fetches pages over HTTP.
type Prober struct {
	baseURL string
	client  *http.Client
}

// NewProber creates a Prober against the running application at baseURL.
func NewProber(baseURL string, client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Prober{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Probe fetches every declared page route of the Blueprint. It returns an
// error only when ctx ends; page failures are findings.
func (p *Prober) Probe(ctx context.Context, routes []types.RouteSpec) (*Report, error) {
	report := &Report{BaseURL: p.baseURL}
	for _, r := range routes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Findings = append(report.Findings, p.check(ctx, r))
	}
	return report, nil
}

func (p *Prober) check(ctx context.Context, r types.RouteSpec) Finding {
	path := paramSegment.ReplaceAllString(r.Path, SampleID)
	f := Finding{Route: r.Path, URL: p.baseURL + path}

	pg, err := loadPage(ctx, p.client, f.URL)
	if err != nil {
		f.Problem = err.Error()
		return f
	}
	f.Status = pg.status

	if r.Protected && pg.redirectedToLogin(f.URL) {
		f.OK = true
		f.Title = "(login required)"
		return f
	}
	if pg.doc == nil {
		f.Problem = fmt.Sprintf("HTTP status %d", pg.status)
		return f
	}

	f.Title = strings.TrimSpace(pg.doc.Find("title").First().Text())
	if f.Title == "" {
		f.Problem = "page has no <title>"
		return f
	}
	for _, sel := range rootSelectors {
		if pg.doc.Find(sel).Length() > 0 {
			f.OK = true
			return f
		}
	}
	f.Problem = "page has no application root element"
	return f
}
