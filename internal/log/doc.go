// Package log configures the process-wide structured logger.
//
// Diagnostics go to stderr so report output on stdout stays clean and
// pipeable. The default level is warn; verbose mode lowers it to debug.
package log
