// Package metrics provides build-cycle observability for sitebuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	d := build.NewDispatcher(converters, pages, minifier,
//	    build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The serve command exposes a PrometheusRecorder's registry via HTTPHandler.
package metrics
