// Package prometheus renders engine metrics in the Prometheus text exposition
// format. Mount [Exporter.Handler] on the metrics route; nothing is
// registered globally.
package prometheus
