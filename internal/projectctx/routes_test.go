package projectctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]string{
		"":                      "/",
		"/":                     "/",
		"/rewards":              "/rewards",
		"/rewards/":             "/rewards",
		"rewards":               "/rewards",
		"/rewards/[id]":         "/rewards/[*]",
		"/rewards/[tierId]/":    "/rewards/[*]",
		"/rewards/:id":          "/rewards/[*]",
		"/docs/[...slug]":       "/docs/[*]",
		"/docs/[[...slug]]":     "/docs/[*]",
		"/orgs/{org}/members":   "/orgs/[*]/members",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRoute(in), in)
	}
}

func TestNormalizeAPIRoute(t *testing.T) {
	assert.Equal(t, "/loyalty", NormalizeAPIRoute("/api/loyalty/route"))
	assert.Equal(t, "/loyalty", NormalizeAPIRoute("/api/loyalty/route.ts"))
	assert.Equal(t, "/loyalty", NormalizeAPIRoute("/api/loyalty"))
	assert.Equal(t, "/loyalty/[*]", NormalizeAPIRoute("/api/loyalty/[id]/route"))
	assert.Equal(t, "/apiary", NormalizeAPIRoute("/apiary"))
}
