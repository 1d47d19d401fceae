package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls the gzip middleware.
type CompressionConfig struct {
	// MinSize is the smallest body worth compressing, in bytes.
	MinSize int
	// Level is the gzip level handed to writers from the pool.
	Level int
	// CompressibleTypes lists media types eligible for compression.
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses only plain API payloads.
// Thumbnails are already JPEG, and NDJSON progress streams must never
// sit in a buffer, so neither appears here.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// Writers are pooled; a fresh gzip.Writer allocates a 256 KiB window.
var gzipPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter holds the body back until it can decide whether
// compression pays off. The decision is made once, the first time the
// buffer exceeds MinSize, the response ends, or the handler flushes.
type gzipResponseWriter struct {
	http.ResponseWriter
	config CompressionConfig

	gz        *gzip.Writer
	buffer    []byte
	status    int
	decided   bool
	compress  bool
	streaming bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		status:         http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

// WriteHeader records the status; it is sent downstream at decision
// time, after the Content-Encoding header is settled.
func (g *gzipResponseWriter) WriteHeader(status int) {
	if !g.decided {
		g.status = status
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided && g.streaming {
		if g.compress {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > g.config.MinSize {
		g.decide()
	}
	return len(data), nil
}

// eligibleType reports whether the response's media type is on the
// compressible list, ignoring charset parameters.
func (g *gzipResponseWriter) eligibleType() bool {
	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range g.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// decide commits the compression choice, sends headers, and drains the
// buffer. After this point writes pass straight through.
func (g *gzipResponseWriter) decide() {
	if g.decided {
		return
	}
	g.decided = true
	g.streaming = true
	g.compress = len(g.buffer) >= g.config.MinSize && g.eligibleType()

	if g.compress {
		// Content-Length no longer matches the compressed body.
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")

		g.gz = gzipPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.status)
		g.gz.Write(g.buffer)
	} else {
		g.ResponseWriter.WriteHeader(g.status)
		g.ResponseWriter.Write(g.buffer)
	}
	g.buffer = nil
}

// Close settles an undecided response and returns the gzip writer to
// the pool.
func (g *gzipResponseWriter) Close() error {
	if !g.decided {
		g.decide()
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipPool.Put(g.gz)
	g.gz = nil
	return err
}

// Flush implements http.Flusher. The first flush forces the decision
// with whatever is buffered, which is how NDJSON streams escape the
// buffering path no matter how small their first line is.
func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		g.decide()
	}
	if g.gz != nil {
		g.gz.Flush()
	}
	if flusher, ok := g.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Compression returns gzip middleware. Requests that do not accept
// gzip, and connection upgrades, pass through untouched.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer gzw.Close()
			next.ServeHTTP(gzw, r)
		})
	}
}
