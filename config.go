package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Config represents the overall config JSON. Every field has a working
// default so the program runs with no config file at all.
type Config struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Framebuffer  string  `json:"framebuffer"`
	AnimationFPS int     `json:"animation_fps"`
	AnimationMs  int     `json:"animation_ms"`
	HoldSeconds  int     `json:"hold_seconds"`
	RelayURL     string  `json:"relay_url"`
	CrewConfig   string  `json:"crew_config"`
	HTTPPort     int     `json:"http_port"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	CalendarURL  string  `json:"calendar_url"`
	AlbumArtDir  string  `json:"album_art_dir"`
	InputDevice  string  `json:"input_device"`
	BacklightPin string  `json:"backlight_pin"`
	IdleSeconds  int     `json:"idle_seconds"`
	FontDir      string  `json:"font_dir"`
}

func defaultConfig() Config {
	return Config{
		Width:        480,
		Height:       320,
		Framebuffer:  "/dev/fb1",
		AnimationFPS: 24,
		AnimationMs:  1500,
		HoldSeconds:  10,
		RelayURL:     "wss://relay.leeloo.fm/ws",
		CrewConfig:   "crew_config.json",
		HTTPPort:     8081,
		Latitude:     35.9101, // Carrboro NC
		Longitude:    -79.0753,
		AlbumArtDir:  "/tmp/leeloo-art",
		InputDevice:  "generic ft5x06",
		BacklightPin: "GPIO18",
		IdleSeconds:  120,
		FontDir:      "/usr/share/fonts/truetype/dejavu",
	}
}

// loadConfig reads and unmarshals the config file over the defaults. The
// LEELOO_FB environment variable wins over both, which is how the preview
// tooling points the program at a scratch file instead of real hardware.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		return c, err
	}
	if fb := os.Getenv("LEELOO_FB"); fb != "" {
		c.Framebuffer = fb
	}
	return c, nil
}

//---------------- Font Config and Loader ----------------

// FontConfig holds parameters for a font.
type FontConfig struct {
	FontFile string  // file name under cfg.FontDir
	FontSize float64 // in points
}

// Mapping from font names to font configurations. Sizes mirror the React UI
// the panel layout was lifted from.
var fonts = map[string]FontConfig{
	"header":    {FontFile: "DejaVuSansMono.ttf", FontSize: 9},
	"tiny":      {FontFile: "DejaVuSansMono.ttf", FontSize: 12},
	"small":     {FontFile: "DejaVuSansMono.ttf", FontSize: 13},
	"body":      {FontFile: "DejaVuSansMono.ttf", FontSize: 14},
	"med":       {FontFile: "DejaVuSansMono.ttf", FontSize: 15},
	"slider":    {FontFile: "DejaVuSansMono.ttf", FontSize: 16},
	"large":     {FontFile: "DejaVuSans-Bold.ttf", FontSize: 14},
	"bodyLarge": {FontFile: "DejaVuSansMono-Bold.ttf", FontSize: 20},
	"symbol":    {FontFile: "DejaVuSans.ttf", FontSize: 13},
}

var (
	faceMutex sync.Mutex
	faceCache = make(map[string]font.Face)
	faceWarn  = make(map[string]bool)
)

// getFontFace loads the font based on our mapping. A missing or unparsable
// font file degrades to the built-in bitmap face instead of failing, so the
// UI (and the tests) render anywhere.
func getFontFace(fontName string) (font.Face, int) {
	faceMutex.Lock()
	defer faceMutex.Unlock()

	if face, ok := faceCache[fontName]; ok {
		return face, faceHeight(face)
	}

	fc, ok := fonts[fontName]
	if !ok {
		log.Printf("font %s not found in mapping, using fallback", fontName)
		return basicfont.Face7x13, 13
	}
	path := cfg.FontDir + "/" + fc.FontFile
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		warnFontOnce(fontName, err)
		return basicfont.Face7x13, 13
	}
	ttfFont, err := opentype.Parse(fontBytes)
	if err != nil {
		warnFontOnce(fontName, err)
		return basicfont.Face7x13, 13
	}
	face, err := opentype.NewFace(ttfFont, &opentype.FaceOptions{
		Size:    fc.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		warnFontOnce(fontName, err)
		return basicfont.Face7x13, 13
	}

	faceCache[fontName] = face
	return face, faceHeight(face)
}

func faceHeight(face font.Face) int {
	metrics := face.Metrics()
	return metrics.Ascent.Round() + metrics.Descent.Round()
}

func warnFontOnce(fontName string, err error) {
	if !faceWarn[fontName] {
		log.Printf("font %s unavailable (%v), using fallback", fontName, err)
		faceWarn[fontName] = true
	}
}
