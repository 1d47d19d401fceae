// Package errs defines the error taxonomy shared across the similarity
// finder: decode failures, store failures, and missing-index lookups.
//
// The types wrap underlying causes and are matched with errors.As via the
// IsDecode, IsStore, and IsNotFound helpers. The split drives both
// propagation policy (skip-and-continue vs. abort) and HTTP status mapping.
package errs
