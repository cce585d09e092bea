package internaldefs

import (
	wellness "github.com/Dinesh17-Dev/wellness-session-app"
)

type CounterDef struct {
	ID   wellness.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   wellness.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events the audit dispatcher discarded.
const (
	AuditDroppedName = "wellness_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: wellness.MetricRegisterSuccess, Name: "wellness_register_success_total", Help: "Accounts created."},
	{ID: wellness.MetricRegisterDuplicate, Name: "wellness_register_duplicate_total", Help: "Registrations rejected because the email exists."},
	{ID: wellness.MetricRegisterFailure, Name: "wellness_register_failure_total", Help: "Registrations rejected for invalid input or backend errors."},
	{ID: wellness.MetricLoginSuccess, Name: "wellness_login_success_total", Help: "Successful logins."},
	{ID: wellness.MetricLoginFailure, Name: "wellness_login_failure_total", Help: "Failed logins."},
	{ID: wellness.MetricAuthenticateFailure, Name: "wellness_authenticate_failure_total", Help: "Bearer tokens that failed verification."},
	{ID: wellness.MetricSessionCreated, Name: "wellness_session_created_total", Help: "Session documents created."},
	{ID: wellness.MetricSessionUpdated, Name: "wellness_session_updated_total", Help: "Session drafts overwritten."},
	{ID: wellness.MetricSessionPublished, Name: "wellness_session_published_total", Help: "Sessions published."},
	{ID: wellness.MetricSessionAccessDenied, Name: "wellness_session_access_denied_total", Help: "Lookups of missing or foreign sessions."},
	{ID: wellness.MetricInternalError, Name: "wellness_internal_error_total", Help: "Operations that failed with an internal error."},
}

var HistogramDefs = []HistogramDef{
	{ID: wellness.MetricValidateLatency, Name: "wellness_validate_latency_seconds", Help: "Bearer token verification latency."},
	{ID: wellness.MetricLoginLatency, Name: "wellness_login_latency_seconds", Help: "Login latency including password verification."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bound in instrument names that cannot carry labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
