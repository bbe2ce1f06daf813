package goIdentity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func collectEvents(sink *ChannelSink) []AuditEvent {
	var events []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestAuditMirrorsEngineActivity(t *testing.T) {
	sink := NewChannelSink(64)

	engine, err := New().
		WithConfig(fastTestConfig()).
		WithClock(newFakeClock()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	user := registerUser(t, engine, "a@b.com", "secret123")

	if _, err := engine.Login(ctx, "a@b.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Close drains the dispatcher queue, so every emitted event has reached
	// the sink by the time it returns.
	engine.Close()

	events := collectEvents(sink)
	if len(events) == 0 {
		t.Fatal("expected audit events")
	}

	var sawRegistration, sawFailure bool
	for _, event := range events {
		switch event.EventType {
		case string(ActivityLoginSuccess):
			if event.UserID == user.ID && event.Success {
				sawRegistration = true
			}
		case string(ActivityLoginFailed):
			if event.UserID == user.ID && !event.Success && event.IP == "203.0.113.9" {
				sawFailure = true
			}
		}
	}
	if !sawRegistration {
		t.Fatal("expected a mirrored login_success event")
	}
	if !sawFailure {
		t.Fatal("expected a mirrored login_failed event with the request IP")
	}
}

func TestAuditReportsCorruptPasswordHash(t *testing.T) {
	sink := NewChannelSink(16)

	engine, err := New().
		WithConfig(fastTestConfig()).
		WithClock(newFakeClock()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	user := registerUser(t, engine, "a@b.com", "secret123")

	corrupt := user.Clone()
	corrupt.PasswordHash = "not-a-phc-hash"
	if _, err := engine.Store().UpdateUser(ctx, corrupt); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	if _, err := engine.Login(ctx, "a@b.com", "secret123"); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("expected ErrCryptoFailure, got %v", err)
	}
	engine.Close()

	var saw bool
	for _, event := range collectEvents(sink) {
		if event.EventType != auditEventCryptoFailure {
			continue
		}
		saw = true
		if event.UserID != user.ID || event.Success {
			t.Fatalf("unexpected crypto failure event: %+v", event)
		}
		if event.Error != string(auditErrCrypto) {
			t.Fatalf("expected error code %q, got %q", auditErrCrypto, event.Error)
		}
	}
	if !saw {
		t.Fatal("expected a crypto failure audit event")
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	registerUser(t, engine, "a@b.com", "secret123")

	if engine.AuditDropped() != 0 {
		t.Fatal("a disabled dispatcher must report zero drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the rest
	// must be dropped.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "e"})
	}

	deadline := time.After(time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected dropped events")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: fmt.Sprintf("e%d", i)})
	}
	d.Close()

	if got := len(collectEvents(sink)); got != 5 {
		t.Fatalf("expected 5 drained events, got %d", got)
	}

	// Emit after Close is a no-op, not a panic.
	d.Emit(context.Background(), AuditEvent{EventType: "late"})
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, NoOpSink{})
	d.Close()
	d.Close()
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventType: "login_failed",
		UserID:    "u1",
		Error:     "invalid_credentials",
		Metadata:  map[string]string{"reason": "Invalid password"},
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected one JSON object per line, got %q: %v", line, err)
	}
	if decoded.EventType != "login_failed" || decoded.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", decoded)
	}
	if decoded.Metadata["reason"] != "Invalid password" {
		t.Fatalf("unexpected metadata: %+v", decoded.Metadata)
	}
}

func TestAuditErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrUserNotFound, auditErrInvalidCredentials},
		{ErrDuplicateEmail, auditErrDuplicateEmail},
		{ErrNoPendingAuth, auditErrNoPendingAuth},
		{ErrOTPInvalid, auditErrOTPInvalid},
		{ErrNotifierFailure, auditErrNotifier},
		{fmt.Errorf("%w: wrapped", ErrCryptoFailure), auditErrCrypto},
		{ErrStoreUnavailable, auditErrStore},
		{ErrPasswordPolicy, auditErrPasswordPolicy},
		{errors.New("anything else"), auditErrInternal},
	}

	for _, tt := range tests {
		if got := auditErrorCode(tt.err); got != tt.want {
			t.Errorf("auditErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
