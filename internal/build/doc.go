// Package build runs one dispatch over a registry: it selects the resources
// that need work, converts them on a bounded pool of workers and then writes
// the aggregate pages (index, gallery, about, 404) from the full registry.
//
// Units never cancel their siblings. A failed unit is recorded and the rest of
// the build continues; the caller receives every failure at once.
package build
