// Package middleware provides HTTP middleware for the similarity
// search service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded path cardinality
//   - Response compression (gzip) for API payloads
//
// All wrappers forward http.Flusher so progress streams keep flushing
// through the full chain.
package middleware
