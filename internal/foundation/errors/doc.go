// Package errors provides the classified error primitives used across sitebuilder.
//
// Every failure the build pipeline can surface falls into one of a handful of
// categories:
//   - scan: the source tree could not be read or is malformed; aborts the cycle
//   - conversion: one resource failed to convert; siblings keep going
//   - persistence: the timing manifest could not be written
//   - watcher: the filesystem notification subsystem failed; terminates the watch loop
//
// plus the usual config, validation, filesystem, runtime and internal buckets.
//
// Example usage:
//
//	err := errors.ScanError("read source directory").
//		WithContext("dir", sourceDir).
//		WithCause(ioErr).
//		Build()
package errors
