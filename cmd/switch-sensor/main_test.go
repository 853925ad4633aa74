package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/switch-sensor/internal/debounce"
	"github.com/sweeney/switch-sensor/internal/gpio"
	"github.com/sweeney/switch-sensor/internal/logic"
	"github.com/sweeney/switch-sensor/internal/mqtt"
	"github.com/sweeney/switch-sensor/internal/status"
)

// startLoop runs runLoop in a goroutine with unbuffered tick and signal
// channels, so every send is processed before the next one.
func startLoop(t *testing.T, reader gpio.Reader, pub *mqtt.FakePublisher, tracker *status.Tracker, monitor *logic.Monitor, heartbeat time.Duration, now func() time.Time) (tick chan time.Time, sig chan os.Signal, done chan error) {
	t.Helper()
	tick = make(chan time.Time)
	sig = make(chan os.Signal)
	done = make(chan error, 1)
	go func() {
		done <- runLoop(reader, pub, pub, tracker, monitor, heartbeat, now, tick, sig)
	}()
	return tick, sig, done
}

func testMonitor(t *testing.T, start time.Time) *logic.Monitor {
	t.Helper()
	f, err := debounce.NewConsecutive(2, debounce.PullDown)
	if err != nil {
		t.Fatalf("NewConsecutive: %v", err)
	}
	return logic.NewMonitor(f, nil, debounce.PullDown, 4, start)
}

func TestRunLoopPublishesTransitions(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reader := gpio.NewFakeReader([]bool{false, false, false, false, true})
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(start, status.Config{Broker: "tcp://test:1883"})
	monitor := testMonitor(t, start)

	step := 0
	now := func() time.Time {
		step++
		return start.Add(time.Duration(step) * 5 * time.Millisecond)
	}

	tick, sig, done := startLoop(t, reader, pub, tracker, monitor, 0, now)

	// Four low ticks to warm up, then the line goes high and stays: the
	// press commits four ticks later.
	for i := 0; i < 12; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	if len(pub.Events) != 1 {
		t.Fatalf("expected one switch event, got %d: %+v", len(pub.Events), pub.Events)
	}
	if pub.Events[0].Type != logic.EventSwitchOn {
		t.Errorf("expected SWITCH_ON, got %s", pub.Events[0].Type)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected one system event, got %d", len(pub.SystemEvents))
	}
	shutdown := pub.SystemEvents[0]
	if shutdown.Event != "SHUTDOWN" || shutdown.Reason != "SIGTERM" {
		t.Errorf("unexpected shutdown event: %+v", shutdown)
	}
	if !shutdown.Retained {
		t.Error("shutdown event should be retained")
	}
	if shutdown.RawPayload == nil {
		t.Error("shutdown event should carry a status snapshot")
	}

	snap := tracker.Snapshot()
	if snap.Switch != logic.StateOn || !snap.Baselined {
		t.Errorf("tracker not updated: %+v", snap)
	}
	if snap.Counts.On != 1 {
		t.Errorf("tracker counts: %+v", snap.Counts)
	}
}

func TestRunLoopGpioErrorContinues(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reader := gpio.NewFakeReader(nil) // Read returns an error
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(start, status.Config{})
	monitor := testMonitor(t, start)

	tick, sig, done := startLoop(t, reader, pub, tracker, monitor, 0, time.Now)

	for i := 0; i < 5; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGINT
	if err := <-done; err != nil {
		t.Fatalf("runLoop should survive read errors: %v", err)
	}

	if len(pub.Events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.Events))
	}
	if pub.SystemEvents[len(pub.SystemEvents)-1].Reason != "SIGINT" {
		t.Errorf("expected SIGINT shutdown, got %+v", pub.SystemEvents)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reader := gpio.NewFakeReader([]bool{false})
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(start, status.Config{})
	monitor := testMonitor(t, start)

	step := 0
	now := func() time.Time {
		step++
		return start.Add(time.Duration(step) * 500 * time.Millisecond)
	}

	tick, sig, done := startLoop(t, reader, pub, tracker, monitor, time.Second, now)

	for i := 0; i < 6; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	heartbeats := 0
	for _, ev := range pub.SystemEvents {
		if ev.Event == "HEARTBEAT" {
			heartbeats++
			if ev.RawPayload == nil {
				t.Error("heartbeat should carry a status snapshot")
			}
		}
	}
	if heartbeats == 0 {
		t.Error("expected at least one heartbeat event")
	}
}

func TestResolveWSBroker(t *testing.T) {
	if got := resolveWSBroker("=broker", "tcp://192.168.1.200:1883"); got != "ws://192.168.1.200:9001" {
		t.Errorf("derived broker: got %q", got)
	}
	if got := resolveWSBroker("off", "tcp://x:1883"); got != "" {
		t.Errorf("off should disable, got %q", got)
	}
	if got := resolveWSBroker("ws://other:9001", "tcp://x:1883"); got != "ws://other:9001" {
		t.Errorf("explicit URL should pass through, got %q", got)
	}
}

func TestReadNetworkInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pi-helper.env")
	content := "NETWORK_STATUS=up\nNETWORK_TYPE=wifi\nNETWORK_IP=192.168.1.50\nNETWORK_WIFI_SSID=home\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	info := readNetworkInfo(path)
	if info == nil {
		t.Fatal("expected network info")
	}
	if info.Status != "up" || info.Type != "wifi" || info.IP != "192.168.1.50" || info.SSID != "home" {
		t.Errorf("unexpected info: %+v", info)
	}

	if readNetworkInfo(filepath.Join(dir, "missing.env")) != nil {
		t.Error("missing file should yield nil")
	}

	empty := filepath.Join(dir, "empty.env")
	os.WriteFile(empty, []byte("NETWORK_TYPE=eth\n"), 0o644)
	if readNetworkInfo(empty) != nil {
		t.Error("file without NETWORK_STATUS should yield nil")
	}
}

func TestStateStrings(t *testing.T) {
	if levelString(true) != "HIGH" || levelString(false) != "LOW" {
		t.Error("levelString mapping wrong")
	}
	if stateString(true, debounce.PullDown) != "ON" {
		t.Error("high on pull-down should read ON")
	}
	if stateString(true, debounce.PullUp) != "OFF" {
		t.Error("high on pull-up should read OFF (idle)")
	}
	if stateString(false, debounce.PullUp) != "ON" {
		t.Error("low on pull-up should read ON")
	}
}
