package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/types"
)

// Event names on the preparation stream.
const (
	eventLayer    = "layer"
	eventComplete = "complete"
	eventError    = "error"
)

// progressStream writes a preparation run as Server-Sent Events. Event ids
// increase by one so a client can spot a gap.
type progressStream struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	seq     int
	broken  error
}

func newProgressStream(w http.ResponseWriter) (*progressStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response does not support streaming")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &progressStream{w: w, flusher: flusher}, nil
}

// send writes one event. After the first write error the stream stays
// broken and later events are dropped.
func (p *progressStream) send(event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken != nil {
		return p.broken
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	p.seq++
	if _, err := fmt.Fprintf(p.w, "id: %d\nevent: %s\ndata: %s\n\n", p.seq, event, payload); err != nil {
		p.broken = err
		return err
	}
	p.flusher.Flush()
	return nil
}

// Layer reports one finished phase.
func (p *progressStream) Layer(ev pipeline.ProgressEvent) error {
	return p.send(eventLayer, ev)
}

// Complete sends the final run report.
func (p *progressStream) Complete(rep *types.RunReport) error {
	return p.send(eventComplete, rep)
}

// Fail sends the error with the status the JSON endpoints would answer.
func (p *progressStream) Fail(err error) error {
	return p.send(eventError, map[string]any{
		"error":  err.Error(),
		"status": HTTPStatus(err),
	})
}
