package main

import (
	"bytes"
	"errors"
	"image/png"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/squid-baby/gadget/display"
)

// indexPage is a bare preview that mirrors the panel at 2x.
const indexPage = `<!DOCTYPE html>
<html><head><title>LEELOO</title></head>
<body style="background:#1a1d2e;margin:0;text-align:center">
<img src="/frame" width="960" height="640" style="image-rendering:pixelated;margin-top:40px"
     onload="setTimeout(()=>{this.src='/frame?t='+Date.now()},250)">
</body></html>`

func serveIndex(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/html")
	return c.SendString(indexPage)
}

func serveFrame(c *fiber.Ctx) error {
	frame := ui.CurrentFrame()
	if frame == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}

func serveStatus(c *fiber.Ctx) error {
	state, panel, progress := ui.Status()
	resp := fiber.Map{
		"state":    state,
		"progress": progress,
	}
	if panel != "" {
		resp["panel"] = string(panel)
	}
	if relay != nil {
		resp["relay_connected"] = relay.Connected()
		if code := relay.CrewCode(); code != "" {
			resp["crew_code"] = code
		}
	}
	return c.JSON(resp)
}

// patchData overwrites whichever display fields the body names and
// leaves the rest alone.
func patchData(c *fiber.Ctx) error {
	var patch struct {
		Weather  *WeatherData `json:"weather"`
		Album    *AlbumData   `json:"album"`
		Contacts []Contact    `json:"contacts"`
		Agenda   []AgendaItem `json:"agenda"`
		CrewName *string      `json:"crew_name"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}

	updateData(func(d *DisplayData) {
		if patch.Weather != nil {
			d.Weather = *patch.Weather
		}
		if patch.Album != nil {
			d.Album = *patch.Album
		}
		if patch.Contacts != nil {
			d.Contacts = patch.Contacts
		}
		if patch.Agenda != nil {
			d.Agenda = patch.Agenda
		}
		if patch.CrewName != nil {
			d.CrewName = *patch.CrewName
		}
	})

	return c.SendString("Data updated")
}

func expandPanel(c *fiber.Ctx) error {
	panel, ok := display.ParsePanel(c.Params("panel"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("Unknown panel")
	}
	if err := ui.RequestExpand(panel); err != nil {
		if errors.Is(err, errInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return c.Status(fiber.StatusConflict).SendString(err.Error())
	}
	return c.SendString("Expanding " + string(panel))
}

func collapsePanel(c *fiber.Ctx) error {
	if err := ui.RequestCollapse(); err != nil {
		return c.Status(fiber.StatusConflict).SendString(err.Error())
	}
	return c.SendString("Collapsing")
}

func postReaction(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if err := ui.ShowReaction(kind, "you"); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Unknown reaction")
	}
	if relay != nil {
		if err := relay.SendReaction(kind); err != nil {
			log.Printf("relay reaction: %v", err)
		}
	}
	return c.SendString("Reacted " + kind)
}

func postMessage(c *fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}

	appendConversation("you", body.Text, false)
	if relay != nil {
		if err := relay.SendMessage(body.Text); err != nil {
			log.Printf("relay message: %v", err)
		}
	}
	return c.SendString("Sent")
}

func postSong(c *fiber.Ctx) error {
	var song SongPush
	if err := c.BodyParser(&song); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}
	if song.Track == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing track")
	}

	applySongPush("you", song)
	if relay != nil {
		if err := relay.SendSong(song); err != nil {
			log.Printf("relay song: %v", err)
		}
	}
	return c.SendString("Pushed " + song.Track)
}

func newServerApp() *fiber.App {
	app := fiber.New()

	// Routes
	app.Get("/", serveIndex)
	app.Get("/frame", serveFrame)
	app.Get("/status", serveStatus)
	app.Post("/data", patchData)
	app.Post("/expand/:panel", expandPanel)
	app.Post("/collapse", collapsePanel)
	app.Post("/reaction/:kind", postReaction)
	app.Post("/message", postMessage)
	app.Post("/song", postSong)
	return app
}

func httpServer() {
	app := newServerApp()

	// Start server
	port := ":" + strconv.Itoa(cfg.HTTPPort)
	log.Println("Starting Fiber server on", port)
	log.Fatal(app.Listen(port))
}
