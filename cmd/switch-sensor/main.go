// Command switch-sensor polls a GPIO switch line, debounces it, and
// publishes state changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/switch-sensor/internal/debounce"
	"github.com/sweeney/switch-sensor/internal/gpio"
	"github.com/sweeney/switch-sensor/internal/logic"
	"github.com/sweeney/switch-sensor/internal/mqtt"
	"github.com/sweeney/switch-sensor/internal/status"
	"github.com/sweeney/switch-sensor/internal/web"
)

// piHelperEnvFile is written by pi-helper with current network state.
const piHelperEnvFile = "/run/pi-helper.env"

func main() {
	poll := flag.Duration("poll", 5*time.Millisecond, "GPIO polling interval (one filter tick)")
	filterKind := flag.String("filter", debounce.KindConsecutive, "Debounce filter: consecutive or integrator")
	windowExp := flag.Int("window-exp", debounce.DefaultExponent, "Window exponent N (filter window = 2^N ticks)")
	polarityName := flag.String("polarity", "pull-down", "Line polarity: pull-down or pull-up")
	synced := flag.Bool("sync", false, "Interpose the two-stage input sampler (for async raw sources)")
	pin := flag.Int("pin", gpio.DefaultPin, "BCM pin number for the switch line")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current state and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	ws := resolveWSBroker(*wsBroker, *broker)
	if err := run(*poll, *filterKind, *windowExp, *polarityName, *synced, *pin, *broker, *heartbeat, *printState, *httpAddr, ws); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, filterKind string, windowExp int, polarityName string, synced bool, pin int, broker string, heartbeat time.Duration, printState bool, httpAddr, wsBroker string) error {
	polarity, err := debounce.ParsePolarity(polarityName)
	if err != nil {
		return err
	}

	filter, err := debounce.New(filterKind, windowExp, polarity)
	if err != nil {
		return fmt.Errorf("init filter: %w", err)
	}

	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(pin, polarity)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print state mode
	if printState {
		raw, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("raw: %s, switch: %s\n", levelString(raw), stateString(raw, polarity))
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		FilterKind:  filterKind,
		WindowExp:   windowExp,
		Polarity:    polarity.String(),
		Synced:      synced,
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		WSBroker:    wsBroker,
	})
	if net := readNetworkInfo(piHelperEnvFile); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v filter=%s window=2^%d polarity=%s broker=%s heartbeat=%v",
		poll, filterKind, windowExp, polarity, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var sampler *debounce.Synchronizer
	warmup := 1 << windowExp
	if synced {
		sampler = debounce.NewSynchronizer(polarity)
		warmup += 2
	}
	monitor := logic.NewMonitor(filter, sampler, polarity, warmup, time.Now())

	return runLoop(gpioReader, publisher, publisher, tracker, monitor, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(gpioReader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, monitor *logic.Monitor, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			raw, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			event := monitor.Process(logic.Input{Raw: raw, Time: t})
			if event != nil {
				log.Printf("event: %s", event.Type)
				if err := publisher.Publish(*event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if !monitor.IsBaselined() {
				// Still waiting for the filter window to fill
				continue
			}

			// Check for heartbeat
			if hbData := monitor.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v on=%d off=%d",
					hbData.Uptime, hbData.Counts.On, hbData.Counts.Off)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(piHelperEnvFile); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(monitor.CurrentState(), monitor.IsBaselined(), monitor.EventCountsSnapshot())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP/LED consumers
			if tracker != nil {
				tracker.Update(monitor.CurrentState(), monitor.IsBaselined(), monitor.EventCountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// readNetworkInfo loads the pi-helper env file. Returns nil if the file is
// missing or carries no network status.
func readNetworkInfo(path string) *status.NetworkInfo {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	s := env[envNetworkStatus]
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       env[envNetworkType],
		IP:         env[envNetworkIP],
		Status:     s,
		Gateway:    env[envNetworkGateway],
		WifiStatus: env[envNetworkWifiStatus],
		SSID:       env[envNetworkWifiSSID],
	}
}

func levelString(raw bool) string {
	if raw {
		return "HIGH"
	}
	return "LOW"
}

func stateString(raw bool, polarity debounce.Polarity) string {
	if raw != polarity.OffLevel() {
		return "ON"
	}
	return "OFF"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
