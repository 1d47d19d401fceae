// Package logging is a thin leveled wrapper over the standard log
// package, shared by the service and the CLI.
//
// Levels are DEBUG, INFO, WARN, ERROR, and FATAL (which exits). The
// level comes from LOG_LEVEL, resolved once on first use; setting
// DEBUG=true forces debug output regardless of LOG_LEVEL.
package logging
