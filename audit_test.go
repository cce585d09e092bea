package wellness

import (
	"context"
	"testing"
	"time"
)

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestAuditEventsForAccountAndSessionFlow(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	sink := NewChannelSink(32)
	engine := newTestEngine(t, cfg, sink)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.Login(ctx, LoginRequest{Email: "a@x.com", Password: "bad"}); err == nil {
		t.Fatal("expected login failure")
	}
	draft, err := engine.SaveDraft(ctx, Identity{Email: "a@x.com"}, SaveDraftRequest{Title: "T1"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if _, err := engine.Publish(ctx, Identity{Email: "a@x.com"}, PublishRequest{ID: draft.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	events := collectEvents(t, sink, 4)
	wantTypes := []string{
		auditEventRegisterSuccess,
		auditEventLoginFailure,
		auditEventSessionCreated,
		auditEventSessionPublished,
	}
	for i, want := range wantTypes {
		if events[i].EventType != want {
			t.Fatalf("event %d: got %q want %q", i, events[i].EventType, want)
		}
		if events[i].IP != "203.0.113.7" {
			t.Fatalf("event %d: expected client ip, got %q", i, events[i].IP)
		}
	}
	if events[1].Success || events[1].Error != string(auditErrUnauthorized) {
		t.Fatalf("unexpected login failure event: %+v", events[1])
	}
	if events[2].SessionID != draft.ID || events[2].Metadata["status"] != "draft" {
		t.Fatalf("unexpected session event: %+v", events[2])
	}
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(16)
	engine := newTestEngine(t, cfg, sink)

	const secret = "super-secret-pw"
	if err := engine.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: secret}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := mustLogin(t, engine, "a@x.com", secret)

	for _, ev := range collectEvents(t, sink, 2) {
		for _, v := range ev.Metadata {
			if v == secret || v == token {
				t.Fatalf("secret leaked into audit metadata: %+v", ev)
			}
		}
		if ev.Error == secret || ev.UserID == secret {
			t.Fatalf("secret leaked into audit event: %+v", ev)
		}
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(4)
	engine := newTestEngine(t, testConfig(), sink)
	mustRegister(t, engine, "a@x.com", "pw1")
	engine.Close()

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	default:
	}
	if engine.AuditDropped() != 0 {
		t.Fatal("expected no drops")
	}
}
