// Package gitcmd builds the shell command lines that operate on managed
// repositories. Builders read resolved settings from the active manifest and
// never execute anything themselves.
package gitcmd
