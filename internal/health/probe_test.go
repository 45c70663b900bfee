package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/types"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/loyalty", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Loyalty</title></head><body><div id="__next"><h1>Tiers</h1></div></body></html>`))
	})
	mux.HandleFunc("/loyalty/"+SampleID, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Tier</title></head><body><main>Tier</main></body></html>`))
	})
	mux.HandleFunc("/untitled", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><main>x</main></body></html>`))
	})
	mux.HandleFunc("/bare", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Bare</title></head><body><p>x</p></body></html>`))
	})
	mux.HandleFunc("/rewards", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login?next=/rewards", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Sign in</title></head><body><main>form</main></body></html>`))
	})
	mux.HandleFunc("/feed.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestProbe(t *testing.T) {
	server := testServer(t)
	p := NewProber(server.URL+"/", nil)

	report, err := p.Probe(context.Background(), []types.RouteSpec{
		{Path: "/loyalty"},
		{Path: "/loyalty/[id]"},
		{Path: "/untitled"},
		{Path: "/bare"},
		{Path: "/missing"},
	})
	require.NoError(t, err)
	require.Len(t, report.Findings, 5)

	assert.True(t, report.Findings[0].OK)
	assert.Equal(t, "Loyalty", report.Findings[0].Title)
	assert.True(t, report.Findings[1].OK)
	assert.Equal(t, server.URL+"/loyalty/"+SampleID, report.Findings[1].URL)
	assert.Equal(t, "page has no <title>", report.Findings[2].Problem)
	assert.Equal(t, "page has no application root element", report.Findings[3].Problem)
	assert.Equal(t, http.StatusNotFound, report.Findings[4].Status)
	assert.Equal(t, "HTTP status 404", report.Findings[4].Problem)

	assert.False(t, report.Healthy())
	assert.Len(t, report.Problems(), 3)
}

func TestProbe_ProtectedRedirect(t *testing.T) {
	server := testServer(t)

	report, err := NewProber(server.URL, nil).Probe(context.Background(), []types.RouteSpec{
		{Path: "/rewards", Protected: true},
		{Path: "/rewards"},
		{Path: "/feed.json"},
	})
	require.NoError(t, err)

	protected := report.Findings[0]
	assert.True(t, protected.OK)
	assert.Equal(t, "(login required)", protected.Title)

	// An unprotected route landing on the login page is judged as that page.
	assert.True(t, report.Findings[1].OK)
	assert.Equal(t, "Sign in", report.Findings[1].Title)

	assert.False(t, report.Findings[2].OK)
	assert.Contains(t, report.Findings[2].Problem, "content type application/json is not HTML")
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	report, err := NewProber(url, nil).Probe(context.Background(), []types.RouteSpec{{Path: "/loyalty"}})
	require.NoError(t, err)
	assert.False(t, report.Findings[0].OK)
	assert.Contains(t, report.Findings[0].Problem, "HTTP request failed")
}

func TestProbe_InvalidBaseURL(t *testing.T) {
	report, err := NewProber("not a url", nil).Probe(context.Background(), []types.RouteSpec{{Path: "/x"}})
	require.NoError(t, err)
	assert.Contains(t, report.Findings[0].Problem, "invalid URL")
}

func TestProbe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProber("http://localhost", nil).Probe(ctx, []types.RouteSpec{{Path: "/x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
