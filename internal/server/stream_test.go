package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/types"
)

// brokenWriter fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (b *brokenWriter) Write([]byte) (int, error) {
	b.writes++
	return 0, errors.New("client went away")
}

func TestProgressStream_Events(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := newProgressStream(w)
	require.NoError(t, err)

	require.NoError(t, stream.Layer(pipeline.ProgressEvent{Layer: 1, Name: "Blueprint Validation"}))
	require.NoError(t, stream.Fail(db.ErrNotFound))
	require.NoError(t, stream.Complete(&types.RunReport{RunID: "run-1"}))

	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.Contains(t, body, "id: 1\nevent: layer\ndata: {")
	assert.Contains(t, body, `"name":"Blueprint Validation"`)
	assert.Contains(t, body, "id: 2\nevent: error\n")
	assert.Contains(t, body, `"status":404`)
	assert.Contains(t, body, "id: 3\nevent: complete\n")
}

func TestProgressStream_StaysBroken(t *testing.T) {
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder()}
	stream, err := newProgressStream(w)
	require.NoError(t, err)

	assert.Error(t, stream.Layer(pipeline.ProgressEvent{Layer: 1}))
	assert.Error(t, stream.Layer(pipeline.ProgressEvent{Layer: 2}))
	assert.Equal(t, 1, w.writes)
	assert.Equal(t, http.StatusOK, w.Code)
}
