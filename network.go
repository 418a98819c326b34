package main

import (
	"time"

	"github.com/go-ping/ping"
)

// pingHost is what the wifi indicator checks against.
const pingHost = "8.8.8.8"

// pingICMP sends one ICMP echo and returns the round trip. Raw ICMP
// needs root; the device service runs privileged anyway.
func pingICMP(host string) (time.Duration, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	return pinger.Statistics().AvgRtt, nil
}

// signalStrength maps a round trip to the 0..1 fraction the header bars
// show. Anything under 20 ms lights all four.
func signalStrength(rtt time.Duration) float64 {
	switch {
	case rtt < 20*time.Millisecond:
		return 1.0
	case rtt < 60*time.Millisecond:
		return 0.75
	case rtt < 150*time.Millisecond:
		return 0.5
	default:
		return 0.25
	}
}

// collectConnectivity refreshes the wifi indicator; scheduled on the
// cron alongside weather.
func collectConnectivity() {
	rtt, err := pingICMP(pingHost)
	up := err == nil
	strength := 0.0
	if up {
		strength = signalStrength(rtt)
	}
	updateData(func(d *DisplayData) {
		d.WifiUp = up
		d.WifiStrength = strength
	})
}
