package wellness

import (
	"io"

	"github.com/Dinesh17-Dev/wellness-session-app/internal/audit"
)

// AuditEvent is one record of an account or session operation.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's background dispatcher.
type AuditSink = audit.Sink

type (
	NoOpSink      = audit.NoOpSink
	ChannelSink   = audit.ChannelSink
	JSONLinesSink = audit.JSONLinesSink
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONLinesSink writes one JSON object per event to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return audit.NewJSONLinesSink(w)
}
