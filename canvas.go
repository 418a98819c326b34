package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/squid-baby/gadget/display"
)

// Color palette - matches the React UI exactly.
var (
	LEELOO_BG       = color.RGBA{0x1A, 0x1D, 0x2E, 255} // leeloo-navy
	LEELOO_GREEN    = color.RGBA{0x71, 0x92, 0x53, 255} // album box
	LEELOO_PURPLE   = color.RGBA{0x9C, 0x93, 0xDD, 255} // time box
	LEELOO_ROSE     = color.RGBA{0xD6, 0x69, 0x7F, 255} // pushed by text
	LEELOO_TAN      = color.RGBA{0xC2, 0x99, 0x5E, 255} // weather box
	LEELOO_LAVENDER = color.RGBA{0xA7, 0xAF, 0xD4, 255} // messages box
	LEELOO_WHITE    = color.RGBA{255, 255, 255, 255}
	LEELOO_ORANGE   = color.RGBA{0xFF, 0x88, 0x00, 255} // UV high
	LEELOO_YELLOW   = color.RGBA{0xD4, 0xA8, 0x4B, 255} // UV moderate
)

// dimColor mixes a color 30/70 with the background, the muted variant used
// for empty slider boxes and hints.
func dimColor(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R)*0.3 + float64(LEELOO_BG.R)*0.7),
		G: uint8(float64(c.G)*0.3 + float64(LEELOO_BG.G)*0.7),
		B: uint8(float64(c.B)*0.3 + float64(LEELOO_BG.B)*0.7),
		A: 255,
	}
}

// moonPhase maps the lunar cycle onto 0..6 slider boxes, 0 new to 6 full
// and back, counted from a known new moon.
func moonPhase(now time.Time) int {
	knownNewMoon := time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC)
	days := now.Sub(knownNewMoon).Hours() / 24
	pos := math.Mod(days, 29.53) / 29.53
	if pos < 0 {
		pos++
	}
	if pos <= 0.5 {
		return int(pos * 12)
	}
	return int((1 - pos) * 12)
}

func clockStrings(now time.Time) (timeStr, dateStr string) {
	return now.Format("3:04 PM"), now.Format("Jan 2")
}

// renderNormalUI builds the full idle screen from a data snapshot, the
// clock, and the already-decoded album art. It is a pure function of its
// arguments: no I/O, no globals besides the config dimensions and font
// caches, so identical inputs produce identical pixels.
func renderNormalUI(d DisplayData, now time.Time, art *image.RGBA) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fillFrame(frame, LEELOO_BG)

	albumX := drawAlbumArt(frame, art)
	drawLeftColumn(frame, d, now, albumX-5)
	return frame
}

// boxRightFor returns the right edge of the panel column for the given
// album art, which is what the animator needs before any frame exists.
func boxRightFor(art *image.RGBA) int {
	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	albumX := drawAlbumArt(frame, art)
	return albumX - 5 - 5
}

// drawAlbumArt draws the album art frame on the right side, aspect-fit
// against the full column height, and returns the x where its frame
// starts so the info column knows where to stop.
func drawAlbumArt(frame *image.RGBA, art *image.RGBA) int {
	framePadding := 5
	frameY := 4
	frameHeight := 318 - frameY

	albumY := frameY + framePadding
	albumHeight := frameHeight - framePadding*2

	albumWidth := albumHeight // square fallback
	if art != nil {
		aspect := float64(art.Bounds().Dx()) / float64(art.Bounds().Dy())
		albumWidth = int(float64(albumHeight) * aspect)
	}
	// keep banner-shaped art from swallowing the info column
	if max := albumHeight * 3 / 2; albumWidth > max {
		albumWidth = max
	}
	if albumWidth < albumHeight/2 {
		albumWidth = albumHeight / 2
	}
	frameWidth := albumWidth + framePadding*2
	frameX := frame.Bounds().Dx() - frameWidth - 2
	albumX := frameX + framePadding

	outlineRect(frame, frameX, frameY, frameX+frameWidth, frameY+frameHeight, LEELOO_GREEN, 2)

	if art != nil {
		copyImageToImageAt(frame, scaleImage(art, albumWidth, albumHeight), albumX, albumY)
	} else {
		placeholderGradient(frame, albumX, albumY, albumWidth, albumHeight)
	}
	return frameX
}

func placeholderGradient(frame *image.RGBA, x, y, width, height int) {
	for i := 0; i < height; i++ {
		v := uint8(255 * i / height)
		fillRect(frame, x, y+i, width, 1, color.RGBA{v, 80, 255 - v, 255})
	}
}

// drawPanelLabel paints a panel's name breaking its top border.
func drawPanelLabel(frame *image.RGBA, label string, x, y int, c color.RGBA) {
	face, _ := getFontFace("tiny")
	w := measureText(face, label)
	fillRect(frame, x-2, y-6, w+5, 13, LEELOO_BG)
	drawText(frame, label, x, y-5, face, c, false)
}

// drawLeftColumn draws all the info panels. rightEdge is where the album
// art frame begins minus the gap.
func drawLeftColumn(frame *image.RGBA, d DisplayData, now time.Time, rightEdge int) {
	boxRight := rightEdge - 5

	faceHeader, _ := getFontFace("header")
	faceTiny, _ := getFontFace("tiny")
	faceLarge, _ := getFontFace("large")
	faceSymbol, _ := getFontFace("symbol")

	// Main container border with header breaking the frame.
	outlineRect(frame, 2, 4, rightEdge, 318, LEELOO_LAVENDER, 1)
	fillRect(frame, 6, 0, 150, 12, LEELOO_BG)
	drawText(frame, "LEELOO v1.0", 8, 0, faceHeader, LEELOO_LAVENDER, false)
	drawText(frame, "tap to talk", 90, 0, faceHeader, LEELOO_LAVENDER, false)
	if d.WifiUp {
		drawSignalBars(frame, rightEdge-24, 1, d.WifiStrength)
	}

	// ===== WEATHER BOX =====
	y := 16
	outlineRect(frame, 7, y, boxRight, y+59, LEELOO_TAN, 2)
	drawPanelLabel(frame, "weather", 13, y, LEELOO_TAN)

	tempBoxes := clampBoxes(int(d.Weather.TempF*12/100), 12)
	drawText(frame, fmt.Sprintf("%.0f°F", d.Weather.TempF), 12, y+8, faceTiny, LEELOO_TAN, false)
	drawBoxSlider(frame, boxRight, y+8, tempBoxes, LEELOO_TAN, 12, 5, false)

	drawText(frame, "ultra V", 12, y+24, faceTiny, LEELOO_TAN, false)
	drawUVSlider(frame, boxRight, y+24, int(d.Weather.UVIndex))

	rainBoxes := clampBoxes(int(d.Weather.Rain24h*12/6), 12)
	drawText(frame, "rain", 12, y+40, faceTiny, LEELOO_TAN, false)
	drawBoxSlider(frame, boxRight, y+40, rainBoxes, LEELOO_TAN, 12, 5, false)

	// ===== TIME BOX =====
	y = 83
	outlineRect(frame, 7, y, boxRight, y+71, LEELOO_PURPLE, 2)
	drawPanelLabel(frame, "time", 13, y, LEELOO_PURPLE)

	timeStr, dateStr := clockStrings(now)
	drawText(frame, timeStr, 12, y+8, faceTiny, LEELOO_PURPLE, false)
	dateX := (boxRight+12)/2 - measureText(faceTiny, dateStr)/2
	drawText(frame, dateStr, dateX, y+8, faceTiny, LEELOO_PURPLE, false)
	drawText(frame, "moon", boxRight-38, y+8, faceTiny, LEELOO_PURPLE, false)

	secondsBoxes := clampBoxes(now.Second()/10, 6)
	drawLeftSlider(frame, 12, y+22, secondsBoxes, LEELOO_PURPLE, 6)
	drawBoxSlider(frame, boxRight, y+22, moonPhase(now), LEELOO_PURPLE, 6, 5, false)

	hangLine, countdown, hangBoxes := hangStrings(now, d.NextHang)
	drawText(frame, hangLine, 12, y+39, faceTiny, LEELOO_PURPLE, false)
	drawText(frame, "t minus "+countdown, 12, y+53, faceTiny, LEELOO_PURPLE, false)
	drawBoxSlider(frame, boxRight, y+53, hangBoxes*9/12, LEELOO_PURPLE, 9, 5, true)

	// ===== MESSAGES BOX =====
	y = 162
	outlineRect(frame, 7, y, boxRight, y+28, LEELOO_LAVENDER, 2)
	drawPanelLabel(frame, "messages", 13, y, LEELOO_LAVENDER)

	x := 12
	for _, contact := range d.Contacts {
		drawText(frame, unreadBadge(contact.Unread), x, y+7, faceSymbol, LEELOO_LAVENDER, false)
		drawText(frame, contact.Name, x+13, y+8, faceTiny, LEELOO_WHITE, false)
		x += 13 + measureText(faceTiny, contact.Name) + 10
		if x > boxRight-20 {
			break
		}
	}

	// ===== ALBUM BOX =====
	y = 198
	outlineRect(frame, 7, y, boxRight, y+110, LEELOO_GREEN, 2)
	drawPanelLabel(frame, "album", 13, y, LEELOO_GREEN)

	centerX := 7 + (boxRight-7)/2
	drawText(frame, d.Album.Artist, centerX, y+8, faceLarge, LEELOO_GREEN, true)
	drawText(frame, "\""+d.Album.Track+"\"", centerX, y+24, faceLarge, LEELOO_GREEN, true)
	drawText(frame, d.Album.Album, 12, y+44, faceTiny, LEELOO_GREEN, false)
	drawText(frame, fmt.Sprintf("%d BPM", d.Album.BPM), 12, y+58, faceTiny, LEELOO_GREEN, false)
	drawText(frame, d.Album.Listeners+" monthly listeners", 12, y+72, faceTiny, LEELOO_GREEN, false)
	drawText(frame, "pushed by "+d.Album.PushedBy, 12, y+88, faceTiny, LEELOO_ROSE, false)
}

// unreadBadge renders a contact's unread count: an open circle for zero,
// circled digits for 1-9.
func unreadBadge(n int) string {
	switch {
	case n <= 0:
		return "○"
	case n <= 9:
		return string(rune(0x2460 + n - 1)) // ① .. ⑨
	default:
		return "⑨"
	}
}

func clampBoxes(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// hangStrings formats the next-hang rows of the time panel. The countdown
// slider runs full a week out and empties as the hang approaches zero.
func hangStrings(now time.Time, hang *AgendaItem) (line, countdown string, boxes int) {
	if hang == nil {
		return "nxt hang  _/__ __:__", "__:__", 0
	}
	line = "nxt hang  " + hang.Start.Format("1/2") + " " + hang.Start.Format("3:04 PM")
	rem := hang.Start.Sub(now)
	if rem <= 0 {
		return line, "00:00", 0
	}
	countdown = fmt.Sprintf("%02d:%02d", int(rem.Hours()), int(rem.Minutes())%60)
	const week = 7 * 24 * time.Hour
	boxes = clampBoxes(int(12*rem/week)+1, 12)
	return line, countdown, boxes
}

//---------------- Sliders ----------------

// drawBoxSlider draws a right-justified box slider with filled and dimmed
// empty boxes. depleteLeft empties from the left, countdown style.
func drawBoxSlider(frame *image.RGBA, rightEdge, y, filled int, c color.RGBA, numBoxes, padding int, depleteLeft bool) {
	filled = clampBoxes(filled, numBoxes)
	face, _ := getFontFace("slider")
	charW := measureText(face, "■")
	if charW == 0 {
		charW = 10
	}
	x := rightEdge - padding - numBoxes*charW
	for i := 0; i < numBoxes; i++ {
		isFilled := i < filled
		if depleteLeft {
			isFilled = i >= numBoxes-filled
		}
		if isFilled {
			drawText(frame, "■", x, y, face, c, false)
		} else {
			drawText(frame, "□", x, y, face, dimColor(c), false)
		}
		x += charW
	}
}

// drawLeftSlider is the left-justified variant.
func drawLeftSlider(frame *image.RGBA, leftEdge, y, filled int, c color.RGBA, numBoxes int) {
	filled = clampBoxes(filled, numBoxes)
	face, _ := getFontFace("slider")
	charW := measureText(face, "■")
	if charW == 0 {
		charW = 10
	}
	x := leftEdge
	for i := 0; i < numBoxes; i++ {
		if i < filled {
			drawText(frame, "■", x, y, face, c, false)
		} else {
			drawText(frame, "□", x, y, face, dimColor(c), false)
		}
		x += charW
	}
}

// uvColors bands the 12-box UV slider: low green, moderate yellow, high
// orange, very high rose, extreme purple.
var uvColors = [12]color.RGBA{
	LEELOO_GREEN, LEELOO_GREEN,
	LEELOO_YELLOW, LEELOO_YELLOW, LEELOO_YELLOW,
	LEELOO_ORANGE, LEELOO_ORANGE,
	LEELOO_ROSE, LEELOO_ROSE, LEELOO_ROSE,
	LEELOO_PURPLE, LEELOO_PURPLE,
}

func drawUVSlider(frame *image.RGBA, rightEdge, y, uv int) {
	filled := clampBoxes(uv, 12)
	face, _ := getFontFace("slider")
	charW := measureText(face, "■")
	if charW == 0 {
		charW = 10
	}
	x := rightEdge - 5 - 12*charW
	for i := 0; i < 12; i++ {
		if i < filled {
			drawText(frame, "■", x, y, face, uvColors[i], false)
		} else {
			drawText(frame, "□", x, y, face, dimColor(uvColors[i]), false)
		}
		x += charW
	}
}

//---------------- Animation frames ----------------

// animationFrame paints one expand/collapse step: flat background, the
// moving frame box, and its label breaking the top border. Panel content
// appears only once the box lands; during travel the box is empty.
func animationFrame(dst *image.RGBA, g display.Geometry, t float64) {
	fillFrame(dst, LEELOO_BG)

	outlineRect(dst, g.X, g.Y, g.Right()-1, g.Bottom()-1, g.Color, 2)

	if g.Label == "" {
		return
	}
	face, _ := getFontFace("tiny")
	labelX := g.X + 5
	labelW := measureText(face, g.Label)
	fillRect(dst, labelX-2, g.Y-6, labelW+5, 13, LEELOO_BG)
	drawText(dst, g.Label, labelX, g.Y-5, face, g.Color, false)
}

//---------------- Splash ----------------

// renderSplash draws the boot splash: wordmark and a rounded progress bar.
func renderSplash(pct int, msg string) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fillFrame(frame, LEELOO_BG)

	faceLarge, _ := getFontFace("bodyLarge")
	faceTiny, _ := getFontFace("tiny")

	cx := cfg.Width / 2
	drawText(frame, "L E E L O O", cx, 118, faceLarge, LEELOO_LAVENDER, true)

	barW, barH := 240, 14
	bx := (cfg.Width - barW) / 2
	by := 170
	strokeRoundedRect(frame, float64(bx), float64(by), float64(barW), float64(barH), 7, 1.5, LEELOO_LAVENDER)
	if pct > 100 {
		pct = 100
	}
	if fw := barW * pct / 100; fw > 8 {
		fillRoundedRect(frame, float64(bx+2), float64(by+2), float64(fw-4), float64(barH-4), 5, LEELOO_ROSE)
	}

	if msg != "" {
		drawText(frame, msg, cx, 200, faceTiny, dimColor(LEELOO_LAVENDER), true)
	}
	return frame
}
