// Package ui provides the serialized console surface for command execution
// feedback. Worker goroutines share one printer, so per-command progress
// lines and multi-line failure reports never interleave on the terminal.
package ui
