// Package convert holds the per-kind converters the build dispatcher calls:
// one converter per resource kind, each reading a single source file and
// writing that resource's outputs. Converters keep no state between calls.
package convert
