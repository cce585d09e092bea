// Package otel publishes engine counters and latency buckets as OpenTelemetry
// observable instruments. The caller owns the MeterProvider; the exporter only
// registers one callback that reads a metrics snapshot per collection.
package otel
