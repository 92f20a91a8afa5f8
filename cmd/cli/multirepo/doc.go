// Package multirepo assembles the Cobra commands that operate across every
// repository of the active manifest: workspace initialization, parallel
// cloning, and passthrough git commands.
package multirepo
