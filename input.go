package main

import (
	"log"
	"strings"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
)

// tapWindow is how long after a touch we wait for the next one before
// deciding whether it was a single, double, or triple tap.
const tapWindow = 400 * time.Millisecond

var (
	lastActivityMu sync.Mutex
	lastActivity   = time.Now()
)

func noteActivity(t time.Time) {
	lastActivityMu.Lock()
	lastActivity = t
	lastActivityMu.Unlock()
}

func sinceActivity() time.Duration {
	lastActivityMu.Lock()
	defer lastActivityMu.Unlock()
	return time.Since(lastActivity)
}

// monitorTouch watches the touch panel and turns raw BTN_TOUCH presses
// into taps: one collapses or acknowledges, two sends love, three or
// more sends fire.
func monitorTouch(m *uiManager, client *relayClient) {
	// 1) find the touch controller by name
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Printf("ListDevicePaths error: %v", err)
		return
	}

	var devPath string
	for _, ip := range paths {
		if strings.Contains(ip.Name, cfg.InputDevice) {
			devPath = ip.Path
			break
		}
	}
	if devPath == "" {
		log.Printf("no input device matching %q found", cfg.InputDevice)
		return
	}

	// 2) open it
	touch, err := evdev.Open(devPath)
	if err != nil {
		log.Printf("Open(%s) error: %v", devPath, err)
		return
	}
	defer touch.Ungrab()

	// 3) grab for exclusive access
	if err := touch.Grab(); err != nil {
		log.Printf("warning: failed to grab device: %v", err)
	}

	// 4) log what we opened
	name, _ := touch.Name()
	log.Printf("using input device: %s (%s)", devPath, name)

	presses := make(chan time.Time, 8)
	go func() {
		for {
			ev, err := touch.ReadOne()
			if err != nil {
				log.Printf("read error: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if ev.Type == evdev.EV_KEY && ev.Code == evdev.BTN_TOUCH && ev.Value == 1 {
				presses <- time.Now()
			}
		}
	}()

	var taps int
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	for {
		select {
		case t := <-presses:
			taps++
			noteActivity(t)
			m.touch()
			resetTimer(timer, tapWindow)
		case <-timer.C:
			n := taps
			taps = 0
			handleTaps(m, client, n)
		}
	}
}

func handleTaps(m *uiManager, client *relayClient, n int) {
	switch {
	case n <= 0:
		return
	case n == 1:
		// collapse whatever is expanded; a no-op on the normal screen
		if err := m.RequestCollapse(); err != nil {
			log.Printf("tap collapse: %v", err)
		}
	case n == 2:
		sendReaction(m, client, "love")
	default:
		sendReaction(m, client, "fire")
	}
}

// sendReaction shows the reaction locally and relays it to the crew.
func sendReaction(m *uiManager, client *relayClient, kind string) {
	if err := m.ShowReaction(kind, "you"); err != nil {
		log.Printf("show %s reaction: %v", kind, err)
		return
	}
	if client != nil {
		if err := client.SendReaction(kind); err != nil {
			log.Printf("send %s reaction: %v", kind, err)
		}
	}
}

// idleDimmer drops the backlight after IdleSeconds without a touch and
// brings it back on the next one.
func idleDimmer(bl *backlight) {
	idle := time.Duration(cfg.IdleSeconds) * time.Second
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		bl.set(sinceActivity() < idle)
	}
}
