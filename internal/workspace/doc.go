// Package workspace manages the on-disk control directory of a managed
// checkout tree: configuration documents, the generated active manifest, and
// the command log. The control directory anchors the workspace root and is
// discovered by walking up from the current directory.
package workspace
