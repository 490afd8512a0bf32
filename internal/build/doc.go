// Package build runs the site build pipeline.
//
// A build discovers content, fingerprints its inputs into a manifest,
// compares that manifest with the one saved by the previous build and turns
// the difference into a Plan. The Builder then renders the planned pages in
// a bounded worker pool, removes orphaned outputs, copies assets and, only
// when every write and delete succeeded, saves the new manifest.
package build
