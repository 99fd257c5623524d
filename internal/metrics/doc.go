// Package metrics records pipeline metrics.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// a nil check. When a metrics textfile is configured the CLI swaps in a
// PrometheusRecorder on a private registry and calls WriteTextfile after the
// run, which suits a short-lived process that is never scraped directly.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the pipeline with rec ...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
