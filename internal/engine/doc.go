// Package engine executes jobs of shell commands across a bounded worker pool.
//
// A Job is an ordered command sequence that aborts on its first failure; jobs
// run concurrently on a fixed set of workers draining a bounded request
// queue, and a result collector logs completions and enforces the fail-fast
// or force-mode error policy. With a single worker the engine degenerates to
// synchronous execution on the submitting goroutine.
package engine
