package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/host/v3"

	"github.com/squid-baby/gadget/display"
)

var (
	cfg   Config
	ui    *uiManager
	relay *relayClient

	pushedMu sync.Mutex
	pushedAt time.Time
)

func main() {
	var err error
	cfg, err = loadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize board. Not fatal off-device: the backlight falls back
	// to sysfs and the touch monitor simply finds no device.
	if _, err := host.Init(); err != nil {
		log.Printf("host init: %v", err)
	}

	fb, err := display.Open(cfg.Framebuffer, cfg.Width, cfg.Height)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", cfg.Framebuffer, err)
	}
	defer fb.Close()

	splash := func(pct int, msg string) {
		if err := fb.WriteFull(renderSplash(pct, msg)); err != nil {
			log.Printf("splash: %v", err)
		}
	}
	splash(5, "waking up")

	ui = newUIManager(fb)

	splash(25, "calling the crew")
	relay = newRelayClient(cfg.RelayURL, cfg.CrewConfig, relayCallbacks{
		onMessage: func(from, text string) {
			appendConversation(from, text, true)
			if err := ui.ShowMessage(from, text); err != nil {
				log.Printf("message from %s: %v", from, err)
			}
		},
		onReaction: func(from, kind string) {
			if err := ui.ShowReaction(kind, from); err != nil {
				log.Printf("reaction %q from %s: %v", kind, from, err)
			}
		},
		onSongPush: applySongPush,
		onMemberJoined: func(name string) {
			log.Printf("crew: %s joined", name)
			updateData(func(d *DisplayData) {
				for _, ct := range d.Contacts {
					if ct.Name == name {
						return
					}
				}
				d.Contacts = append(d.Contacts, Contact{Name: name})
			})
		},
		onMemberOffline: func(name string) {
			log.Printf("crew: %s offline", name)
		},
	})
	relay.Start()

	splash(45, "checking the sky")
	collectWeather()

	splash(60, "counting the days")
	calendar := newCalendarFetcher(cfg.CalendarURL)
	calendar.collect()

	splash(75, "finding the wifi")
	collectConnectivity()

	sched := cron.New()
	sched.AddFunc("@every 10m", collectWeather)
	sched.AddFunc("@every 1m", collectConnectivity)
	sched.AddFunc("@every 1m", refreshPushedAgo)
	sched.AddFunc("@every 15m", calendar.collect)
	sched.Start()

	bl := newBacklight(cfg.BacklightPin)
	go monitorTouch(ui, relay)
	go idleDimmer(bl)
	go httpServer()

	splash(95, "here we go")
	go ui.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("signal %s received, shutting down", sig)

	sched.Stop()
	relay.Stop()
	ui.Stop()
	bl.set(true)
	time.Sleep(100 * time.Millisecond)
}

// applySongPush lands a pushed track on the album panel and pulls its
// artwork and scancode in the background.
func applySongPush(from string, song SongPush) {
	pushedMu.Lock()
	pushedAt = time.Now()
	pushedMu.Unlock()

	updateData(func(d *DisplayData) {
		d.Album = AlbumData{
			Artist:     song.Artist,
			Track:      song.Track,
			Album:      song.Album,
			PushedBy:   from,
			PushedAgo:  "just now",
			SpotifyURI: song.SpotifyURI,
		}
	})

	go func() {
		if song.AlbumArtURL != "" {
			path, err := fetchAlbumArt(song.AlbumArtURL)
			if err != nil {
				log.Printf("album art: %v", err)
			} else {
				img, _, _, err := loadImage(path)
				if err != nil {
					log.Printf("album art decode: %v", err)
				} else {
					ui.SetAlbumArt(img)
					updateData(func(d *DisplayData) { d.Album.ArtPath = path })
				}
			}
		}
		if song.SpotifyURI != "" {
			if _, err := cachedScancode(song.SpotifyURI); err != nil {
				log.Printf("scancode: %v", err)
			}
		}
	}()
}

// refreshPushedAgo keeps the "pushed by" line honest as the track ages.
func refreshPushedAgo() {
	pushedMu.Lock()
	at := pushedAt
	pushedMu.Unlock()
	if at.IsZero() {
		return
	}
	updateData(func(d *DisplayData) {
		d.Album.PushedAgo = agoString(time.Since(at))
	})
}

func agoString(d time.Duration) string {
	switch {
	case d < 2*time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + " minutes ago"
	case d < 2*time.Hour:
		return "an hour ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + " hours ago"
	case d < 48*time.Hour:
		return "a day ago"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + " days ago"
	}
}
