package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"simfinder/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write operation exceeded the
	// configured timeout, or that the stream went idle. This typically
	// means the client is draining data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the
	// stream completed. This is detected via the request context being
	// canceled.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the stream was canceled
	// programmatically by calling Close on the EventWriter.
	ErrStreamCanceled = errors.New("stream canceled")
)

// EventWriterConfig configures the timeout behavior of an event stream.
type EventWriterConfig struct {
	// WriteTimeout is the maximum time to wait for a single write.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between events (0 = unlimited).
	// Progress streams emit regularly while work proceeds, so a long
	// silence usually means the producer or the connection died.
	IdleTimeout time.Duration
}

// DefaultEventWriterConfig returns sensible defaults for progress streams.
func DefaultEventWriterConfig() EventWriterConfig {
	return EventWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// EventWriter writes newline-delimited JSON events to an HTTP response,
// flushing after every event so the client sees progress as it happens.
// Writes are bounded by WriteTimeout and the stream as a whole by
// IdleTimeout, so a stalled client cannot hold the connection forever.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
	cancel  context.CancelFunc
	config  EventWriterConfig

	mu        sync.Mutex
	startTime time.Time
	lastWrite time.Time
	events    int64
	closed    bool
	timedOut  bool
}

// NewEventWriter creates a timeout-protected event writer on top of w.
// The caller owns the response headers; the writer only emits bodies.
func NewEventWriter(ctx context.Context, w http.ResponseWriter, config EventWriterConfig) *EventWriter {
	streamCtx, cancel := context.WithCancel(ctx)

	ew := &EventWriter{
		w:         w,
		ctx:       streamCtx,
		cancel:    cancel,
		config:    config,
		startTime: time.Now(),
		lastWrite: time.Now(),
	}

	if flusher, ok := w.(http.Flusher); ok {
		ew.flusher = flusher
	}

	go ew.idleChecker()

	return ew
}

// WriteEvent marshals v as a single NDJSON line and flushes it.
func (ew *EventWriter) WriteEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode stream event: %w", err)
	}
	_, err = ew.Write(append(data, '\n'))
	return err
}

// Write implements io.Writer with timeout protection. Successful writes
// are flushed immediately.
func (ew *EventWriter) Write(p []byte) (n int, err error) {
	ew.mu.Lock()
	if ew.closed {
		ew.mu.Unlock()
		return 0, ErrStreamCanceled
	}
	ew.mu.Unlock()

	// Check context before writing
	select {
	case <-ew.ctx.Done():
		return 0, ew.contextError()
	default:
	}

	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	// Perform the write in a goroutine so a wedged connection cannot
	// block the caller past WriteTimeout.
	go func() {
		n, err := ew.w.Write(p)
		if err == nil && ew.flusher != nil {
			ew.flusher.Flush()
		}
		resultCh <- writeResult{n, err}
	}()

	select {
	case result := <-resultCh:
		if result.err == nil {
			ew.mu.Lock()
			ew.lastWrite = time.Now()
			ew.events++
			ew.mu.Unlock()
		}
		return result.n, result.err

	case <-time.After(ew.config.WriteTimeout):
		ew.mu.Lock()
		ew.timedOut = true
		ew.mu.Unlock()
		ew.cancel()
		return 0, ErrWriteTimeout

	case <-ew.ctx.Done():
		return 0, ew.contextError()
	}
}

// idleChecker terminates streams that go silent for longer than
// IdleTimeout.
func (ew *EventWriter) idleChecker() {
	if ew.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(ew.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ew.mu.Lock()
			idle := time.Since(ew.lastWrite)
			closed := ew.closed
			if idle > ew.config.IdleTimeout {
				ew.timedOut = true
			}
			ew.mu.Unlock()

			if closed {
				return
			}

			if idle > ew.config.IdleTimeout {
				logging.Warn("Event stream idle for %v, terminating", idle)
				ew.cancel()
				return
			}

		case <-ew.ctx.Done():
			return
		}
	}
}

// contextError maps the context state to the right sentinel.
func (ew *EventWriter) contextError() error {
	ew.mu.Lock()
	timedOut := ew.timedOut
	ew.mu.Unlock()

	if timedOut {
		return ErrWriteTimeout
	}
	if errors.Is(ew.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close marks the writer as closed and stops the idle checker.
func (ew *EventWriter) Close() error {
	ew.mu.Lock()
	defer ew.mu.Unlock()

	if ew.closed {
		return nil
	}

	ew.closed = true
	ew.cancel()

	return nil
}

// Stats returns the number of events written and the elapsed duration.
func (ew *EventWriter) Stats() (events int64, duration time.Duration) {
	ew.mu.Lock()
	defer ew.mu.Unlock()
	return ew.events, time.Since(ew.startTime)
}
