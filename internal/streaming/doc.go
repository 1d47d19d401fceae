/*
Package streaming provides a timeout-protected writer for long-lived
NDJSON event streams over HTTP.

# Overview

Progress streams (one JSON object per line, flushed as produced) keep a
connection open for the lifetime of a background job. A slow or
disconnected client would otherwise hold server resources for as long as
the job runs. EventWriter wraps http.ResponseWriter so that every event
is flushed immediately and stalled connections are detected and
terminated.

# Usage

	func (h *Handlers) streamProgress(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")

		ew := streaming.NewEventWriter(r.Context(), w, streaming.DefaultEventWriterConfig())
		defer ew.Close()

		for ev := range events {
			if err := ew.WriteEvent(ev); err != nil {
				return
			}
		}
	}

# Error Handling

The package defines sentinel errors checked with errors.Is:

  - ErrWriteTimeout: a single write exceeded WriteTimeout, or the stream
    went idle past IdleTimeout. The client is too slow.
  - ErrClientGone: the request context was canceled; the client
    disconnected. Not a server error.
  - ErrStreamCanceled: the stream was closed programmatically.

# Thread Safety

EventWriter is safe for concurrent use, though typical usage is a single
goroutine draining an event channel. The idle checker runs in its own
goroutine and adds one goroutine per stream.
*/
package streaming
