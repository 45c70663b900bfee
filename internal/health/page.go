// Package health probes the pages a run added to the target application. It
// never gates a run: problems are reported as findings.
package health

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds one page request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// UserAgent identifies probe requests in the application's logs.
const UserAgent = "module-builder-health/1.0"

// maxBody caps how much of a page is parsed.
const maxBody = 2 << 20

// PageError is a page that could not be fetched or parsed.
type PageError struct {
	URL     string
	Message string
	Cause   error
}

func (e *PageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.URL, e.Message)
}

func (e *PageError) Unwrap() error {
	return e.Cause
}

// page is a fetched response. doc is nil unless the status is 2xx.
type page struct {
	status   int
	finalURL *url.URL
	doc      *goquery.Document
}

// loadPage requests target and parses a successful HTML answer.
func loadPage(ctx context.Context, client *http.Client, target string) (*page, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &PageError{URL: target, Message: "invalid URL", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &PageError{URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &PageError{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	pg := &page{status: resp.StatusCode, finalURL: resp.Request.URL}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pg, nil
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if media, _, _ := mime.ParseMediaType(ct); media != "text/html" {
			return nil, &PageError{URL: target, Message: fmt.Sprintf("content type %s is not HTML", media)}
		}
	}
	pg.doc, err = goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &PageError{URL: target, Message: "unparseable HTML", Cause: err}
	}
	return pg, nil
}

// loginPaths are where auth middleware sends anonymous visitors.
var loginPaths = []string{"/login", "/sign-in", "/signin", "/auth"}

// redirectedToLogin reports whether the request for a protected page ended
// on a login screen.
func (p *page) redirectedToLogin(requested string) bool {
	if p.finalURL == nil || p.finalURL.String() == requested {
		return false
	}
	for _, prefix := range loginPaths {
		if strings.HasPrefix(p.finalURL.Path, prefix) {
			return true
		}
	}
	return false
}
