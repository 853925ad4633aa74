package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/switch-sensor/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Type:      logic.EventSwitchOn,
		State:     logic.StateOn,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var decoded Payload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Switch.Timestamp != "2026-03-15T09:30:00Z" {
		t.Errorf("timestamp: got %q", decoded.Switch.Timestamp)
	}
	if decoded.Switch.Event != "SWITCH_ON" {
		t.Errorf("event: got %q", decoded.Switch.Event)
	}
	if decoded.Switch.State != "ON" {
		t.Errorf("state: got %q", decoded.Switch.State)
	}
}

func TestFormatPayloadConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	event := logic.Event{
		Timestamp: time.Date(2026, 3, 15, 10, 30, 0, 0, loc),
		Type:      logic.EventSwitchOff,
		State:     logic.StateOff,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var decoded Payload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Switch.Timestamp != "2026-03-15T09:30:00Z" {
		t.Errorf("timestamp should be UTC: got %q", decoded.Switch.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var decoded SystemPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %q", decoded.System.Event)
	}
	if decoded.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %q", decoded.System.Reason)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "HEARTBEAT",
	})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if _, ok := raw["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"custom":true}}`)
	payload, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: got %s", payload)
	}
}

func TestFakePublisherRecordsEvents(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{
		Timestamp: time.Now(),
		Type:      logic.EventSwitchOn,
		State:     logic.StateOn,
	}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].Type != logic.EventSwitchOn {
		t.Errorf("events not recorded: %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("payloads not recorded: %d", len(f.Payloads))
	}

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events not recorded: %+v", f.SystemEvents)
	}

	f.Close()
	if !f.Closed {
		t.Error("Closed should be set")
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || f.Closed {
		t.Error("Reset should clear all recorded state")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("down")
	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected configured publish error")
	}
	if len(f.Events) != 0 {
		t.Error("failed publish should not record the event")
	}

	f.PublishSystemError = errors.New("down")
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected configured system publish error")
	}
}
