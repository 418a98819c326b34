package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"
	"time"

	"golang.org/x/image/font"

	"github.com/squid-baby/gadget/display"
)

// Typewriter geometry and timing. Content starts inside the expanded box
// below its label and types out one character per tick, pausing at line
// ends. Blank lines advance half a row.
const (
	contentX       = 15
	contentY       = 41
	typeLineHeight = 24
	typeCharDelay  = 30 * time.Millisecond
	typeLinePause  = 100 * time.Millisecond

	maxExpandedLines = 10
)

// ContentLine is one row of expanded panel content.
type ContentLine struct {
	Text  string
	Large bool
	Color color.RGBA
}

func expandedTextWidth(boxRight int) int {
	return boxRight - 25
}

// visibleChars is the reveal law for one line: how many of its n
// characters are showing t after the line started typing.
func visibleChars(t time.Duration, n int) int {
	if n <= 0 || t < 0 {
		return 0
	}
	k := int(t / typeCharDelay)
	if k > n {
		return n
	}
	return k
}

// expandedContent builds the lines a panel shows once its box has landed.
// Everything comes from the data snapshot so the reveal is deterministic.
func expandedContent(panel display.PanelID, d DisplayData, now time.Time, textWidth int) []ContentLine {
	switch panel {
	case display.PanelWeather:
		return weatherLines(d.Weather)
	case display.PanelTime:
		return agendaLines(d.Agenda, now, textWidth)
	case display.PanelMessages:
		return messageLines(d.Conversation, textWidth)
	case display.PanelAlbum:
		return albumLines(d.Album)
	case display.PanelConversation:
		return conversationLines(d.Conversation, textWidth)
	}
	return nil
}

func weatherLines(w WeatherData) []ContentLine {
	return capLines([]ContentLine{
		{fmt.Sprintf("%.0fF", w.TempF), true, LEELOO_TAN},
		{},
		{w.Summary, false, LEELOO_WHITE},
		{fmt.Sprintf("Humidity: %d%%", w.Humidity), false, LEELOO_WHITE},
		{fmt.Sprintf("Wind: %.0f mph %s", w.WindMPH, w.WindDir), false, LEELOO_WHITE},
		{},
		{fmt.Sprintf("High: %.0fF", w.HighF), false, LEELOO_TAN},
		{fmt.Sprintf("Low: %.0fF", w.LowF), false, LEELOO_TAN},
	})
}

func agendaLines(items []AgendaItem, now time.Time, textWidth int) []ContentLine {
	face, _ := getFontFace("body")
	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	var todayLines, tomorrowLines []ContentLine
	for _, it := range items {
		text := truncateText(face, it.Start.Format("3:04 PM")+"  "+it.Title, textWidth)
		switch it.Start.Format("2006-01-02") {
		case today:
			todayLines = append(todayLines, ContentLine{text, false, LEELOO_WHITE})
		case tomorrow:
			tomorrowLines = append(tomorrowLines, ContentLine{text, false, LEELOO_WHITE})
		}
	}

	lines := []ContentLine{{"Today", true, LEELOO_PURPLE}, {}}
	if len(todayLines) == 0 {
		lines = append(lines, ContentLine{"Nothing scheduled", false, LEELOO_WHITE})
	}
	lines = append(lines, todayLines...)
	if len(tomorrowLines) > 0 {
		lines = append(lines, ContentLine{}, ContentLine{"Tomorrow", true, LEELOO_PURPLE})
		lines = append(lines, tomorrowLines...)
	}
	return capLines(lines)
}

// messageLines shows the most recent exchange, sender name large then the
// wrapped message body.
func messageLines(msgs []ChatMessage, textWidth int) []ContentLine {
	face, _ := getFontFace("body")
	start := len(msgs) - 2
	if start < 0 {
		start = 0
	}
	var lines []ContentLine
	for _, m := range msgs[start:] {
		if len(lines) > 0 {
			lines = append(lines, ContentLine{})
		}
		lines = append(lines, ContentLine{m.Sender, true, LEELOO_LAVENDER}, ContentLine{})
		for _, w := range wrapText(face, m.Text, textWidth) {
			lines = append(lines, ContentLine{w, false, LEELOO_WHITE})
		}
	}
	if len(lines) == 0 {
		lines = []ContentLine{{"No messages yet", false, LEELOO_WHITE}}
	}
	return capLines(lines)
}

func albumLines(a AlbumData) []ContentLine {
	return capLines([]ContentLine{
		{a.Track, true, LEELOO_GREEN},
		{a.Artist, false, LEELOO_WHITE},
		{},
		{fmt.Sprintf("%d BPM", a.BPM), false, LEELOO_TAN},
		{a.Listeners + " listeners", false, LEELOO_WHITE},
		{},
		{"Pushed by " + a.PushedBy, false, LEELOO_LAVENDER},
		{a.PushedAgo, false, LEELOO_WHITE},
	})
}

// conversationLines is the dense chat log view. Oldest lines fall off the
// top when the panel cannot hold them all.
func conversationLines(msgs []ChatMessage, textWidth int) []ContentLine {
	face, _ := getFontFace("body")
	start := len(msgs) - 4
	if start < 0 {
		start = 0
	}
	var lines []ContentLine
	for _, m := range msgs[start:] {
		lines = append(lines, ContentLine{m.Sender, false, LEELOO_ROSE})
		for _, w := range wrapText(face, m.Text, textWidth) {
			lines = append(lines, ContentLine{w, false, LEELOO_WHITE})
		}
	}
	if len(lines) == 0 {
		return []ContentLine{{"Tap and talk to the crew", false, LEELOO_WHITE}}
	}
	if len(lines) > maxExpandedLines {
		lines = lines[len(lines)-maxExpandedLines:]
	}
	return lines
}

func capLines(lines []ContentLine) []ContentLine {
	if len(lines) > maxExpandedLines {
		return lines[:maxExpandedLines]
	}
	return lines
}

// wrapText breaks text into lines fitting width, splitting on spaces.
// A single word wider than the region gets a line to itself rather than
// a character-level break.
func wrapText(face font.Face, text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if measureText(face, current+" "+w) <= width {
			current += " " + w
		} else {
			lines = append(lines, current)
			current = w
		}
	}
	return append(lines, current)
}

// truncateText trims text with an ellipsis so it fits width.
func truncateText(face font.Face, text string, width int) string {
	if measureText(face, text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		if measureText(face, string(runes)+"…") <= width {
			return string(runes) + "…"
		}
	}
	return string(runes)
}

// drawContentLines paints fully revealed content in one pass. The
// manager uses it to keep its screen mirror in step with what the
// typewriter streamed to the device.
func drawContentLines(dst *image.RGBA, lines []ContentLine, textWidth int) {
	y := contentY
	for _, line := range lines {
		if line.Text == "" {
			y += typeLineHeight / 2
			continue
		}
		faceName := "body"
		if line.Large {
			faceName = "bodyLarge"
		}
		face, _ := getFontFace(faceName)
		fillRect(dst, contentX, y, textWidth, typeLineHeight, LEELOO_BG)
		drawText(dst, line.Text, contentX, y+2, face, line.Color, false)
		y += typeLineHeight
	}
}

// typeContent plays the typewriter reveal, writing each growing line
// strip straight to the framebuffer. interrupt is polled between
// characters so a collapse or overlay request lands mid-line. Three
// consecutive write failures give up on the reveal.
func typeContent(fb *display.Framebuffer, lines []ContentLine, textWidth int, interrupt func() bool) error {
	y := contentY
	failures := 0
	for _, line := range lines {
		if line.Text == "" {
			y += typeLineHeight / 2
			continue
		}
		faceName := "body"
		if line.Large {
			faceName = "bodyLarge"
		}
		face, _ := getFontFace(faceName)

		strip := image.NewRGBA(image.Rect(contentX, y, contentX+textWidth, y+typeLineHeight))
		runes := []rune(line.Text)
		for i := 1; i <= len(runes); i++ {
			if interrupt != nil && interrupt() {
				return nil
			}
			fillFrame(strip, LEELOO_BG)
			drawText(strip, string(runes[:i]), contentX, y+2, face, line.Color, false)
			if err := fb.WriteRegion(strip, strip.Bounds()); err != nil {
				failures++
				log.Printf("typewriter: write failed: %v", err)
				if failures >= 3 {
					return err
				}
			} else {
				failures = 0
			}
			time.Sleep(typeCharDelay)
		}
		y += typeLineHeight
		time.Sleep(typeLinePause)
	}
	return nil
}
