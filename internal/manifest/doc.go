// Package manifest models layered grit manifests.
//
// A manifest declares profiles (named, inheritable bundles of settings) and
// repositories (clone targets that reference profiles). Several manifest
// layers fold into one active manifest through Overlay, and per-repository
// settings resolve through the repository, its profile, and the profile's
// inheritance chain.
package manifest
