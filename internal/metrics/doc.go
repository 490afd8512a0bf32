// Package metrics records build metrics.
//
// Builders hold a Recorder and default to NoopRecorder, so code that emits
// metrics never checks for nil. PrometheusRecorder registers counters and
// histograms under the "glaze" namespace:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	b := build.NewBuilder(cfg).WithRecorder(rec)
//
// glaze does not serve HTTP. When metrics.textfile is configured the CLI
// writes the registry after each build with PrometheusRecorder.WriteTextfile
// for collection by node_exporter's textfile collector.
package metrics
