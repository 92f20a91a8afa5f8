// Package execshell provides structured helpers for invoking shell commands.
//
// It wraps the system shell with logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the abstractions
// grit uses to run generated git command lines in a testable manner.
package execshell
