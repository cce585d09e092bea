package wellness

import (
	"testing"
	"time"
)

// requestMix approximates the counters touched by a read-heavy session API.
var requestMix = [...]MetricID{
	MetricSessionCreated,
	MetricSessionUpdated,
	MetricSessionUpdated,
	MetricSessionPublished,
	MetricSessionAccessDenied,
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricAuthenticateFailure,
}

func BenchmarkMetrics(b *testing.B) {
	for _, enabled := range []bool{true, false} {
		name := "enabled"
		if !enabled {
			name = "disabled"
		}
		m := NewMetrics(MetricsConfig{Enabled: enabled, EnableLatencyHistograms: enabled})

		b.Run(name+"/inc", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				m.Inc(MetricSessionCreated)
			}
		})
		b.Run(name+"/inc-parallel-mix", func(b *testing.B) {
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					m.Inc(requestMix[i%len(requestMix)])
					i++
				}
			})
		})
		b.Run(name+"/observe-parallel", func(b *testing.B) {
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				d := 12 * time.Millisecond
				for pb.Next() {
					m.Observe(MetricLoginLatency, d)
				}
			})
		})
	}
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for _, id := range requestMix {
		m.Inc(id)
	}
	m.Observe(MetricValidateLatency, time.Millisecond)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}
