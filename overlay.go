package main

import (
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// Reaction playback: each reaction cycles its three art frames twice,
// then the last frame holds. The whole thing runs a fixed length no
// matter when it started.
const (
	reactionFrameInterval = 150 * time.Millisecond
	reactionCycles        = 2
	reactionHold          = 1500 * time.Millisecond

	messageFontSize = 14.0
)

var loveFrames = []string{`
 .:::.   .:::.
:::::::.:::::::
 ':::::::::::'
   ':::::::'
     ':::'
       '
`, `
.:::::. .:::::.
:::::::::::::::
:::::::::::::::
 ':::::::::::'
   ':::::::'
     ':::'
       '
`, `
 .:::.   .:::.   *
:::::::.:::::::
 ':::::::::::'   *
   ':::::::'
     ':::'
       '
`}

var fireFrames = []string{`
    )
   ( )
  ( ) )
 ( ( ) )
(_______)
 \_____/
`, `
   ( )
  ) ( (
 ( ) ) )
( ( ( ) )
(_______)
 \_____/
`, `
    (
   ) (
  ( ) (
 ) ( ) (
(_______)
 \_____/
`}

var hahaFrames = []string{`
  _____
 /     \
|  ^ ^  |
|   >   |
 \ \_/ /
  \___/
  HA HA
`, `
  _____
 /     \
|  - -  |
|   >   |
 \ \_/ /
  \___/
 HA HA HA
`, `
  _____
 /     \
|  > <  |
|   o   |
 \ \_/ /
  \___/
HA HA HA HA
`}

var waveFrames = []string{`
  o/
 /|
 / \
`, `
 \o
  |\
 / \
`, `
  o/
 /|
 / \
`}

// reactionKinds lists the supported reactions in display order.
func reactionKinds() []string {
	return []string{"love", "fire", "haha", "wave"}
}

// reactionFrames returns the art frames for a reaction kind, nil for an
// unknown kind.
func reactionFrames(kind string) []string {
	switch kind {
	case "love":
		return loveFrames
	case "fire":
		return fireFrames
	case "haha":
		return hahaFrames
	case "wave":
		return waveFrames
	}
	return nil
}

func reactionMessage(kind, from string) string {
	switch kind {
	case "love":
		return from + " loved this"
	case "fire":
		return from + " thinks this is fire"
	case "haha":
		return from + " is cracking up"
	case "wave":
		return from + " says hey"
	}
	return ""
}

// reactionFrameAt maps time since the reaction started to the frame index
// on screen, or -1 once playback is over. Frames cycle at the fixed
// interval, then the final frame holds.
func reactionFrameAt(elapsed time.Duration, frames int) int {
	if frames <= 0 || elapsed < 0 {
		return -1
	}
	steps := frames * reactionCycles
	k := int(elapsed / reactionFrameInterval)
	if k < steps {
		return k % frames
	}
	if elapsed < time.Duration(steps)*reactionFrameInterval+reactionHold {
		return frames - 1
	}
	return -1
}

func reactionDuration(frames int) time.Duration {
	return time.Duration(frames*reactionCycles)*reactionFrameInterval + reactionHold
}

// Overlay is one full-screen overlay frame: art lines centered above a
// caption, composited over a dimmed copy of the base.
type Overlay struct {
	Art     string
	Message string
}

// applyOverlay returns a new buffer: the base behind a dark scrim, art
// centered a little above middle, caption below. The base is never
// touched, collapse restores it byte for byte.
func applyOverlay(base *image.RGBA, ov Overlay) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	copy(out.Pix, base.Pix)
	drawScrim(out)

	faceMed, _ := getFontFace("med")
	width := out.Bounds().Dx()
	height := out.Bounds().Dy()

	artLines := strings.Split(strings.Trim(ov.Art, "\n"), "\n")
	artY := (height-len(artLines)*12)/2 - 30
	for i, line := range artLines {
		x := (width - measureText(faceMed, line)) / 2
		drawText(out, line, x, artY+i*12, faceMed, LEELOO_WHITE, false)
	}

	if ov.Message != "" {
		msgY := artY + len(artLines)*12 + 20
		msgX := (width - measureText(faceMed, ov.Message)) / 2
		drawText(out, ov.Message, msgX, msgY, faceMed, color.RGBA{185, 169, 201, 255}, false)
	}
	return out
}

// drawScrim darkens the frame in place with the background color at
// alpha 200.
func drawScrim(out *image.RGBA) {
	const a, inv = 200, 55
	pix := out.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8((int(LEELOO_BG.R)*a + int(pix[i])*inv) / 255)
		pix[i+1] = uint8((int(LEELOO_BG.G)*a + int(pix[i+1])*inv) / 255)
		pix[i+2] = uint8((int(LEELOO_BG.B)*a + int(pix[i+2])*inv) / 255)
		pix[i+3] = 255
	}
}

//---------------- Conversation overlay ----------------

var (
	msgFontOnce sync.Once
	msgFont     *truetype.Font
	msgFace     font.Face
)

func messageFont() *truetype.Font {
	msgFontOnce.Do(func() {
		path := filepath.Join(cfg.FontDir, "DejaVuSansMono.ttf")
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("overlay: message font unavailable: %v", err)
			return
		}
		fnt, err := truetype.Parse(data)
		if err != nil {
			log.Printf("overlay: parsing message font: %v", err)
			return
		}
		msgFont = fnt
		msgFace = truetype.NewFace(fnt, &truetype.Options{
			Size:    messageFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return msgFont
}

// messageFace is the measuring face used to word-wrap overlay bodies.
func messageFace() font.Face {
	if messageFont() != nil {
		return msgFace
	}
	face, _ := getFontFace("body")
	return face
}

// conversationFrame paints the inbound-message overlay at one reveal
// step: scrim, the "message from" header, every fully typed earlier
// line, and chars characters of the line being typed.
func conversationFrame(base *image.RGBA, sender string, lines []string, line, chars int) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	copy(out.Pix, base.Pix)
	drawScrim(out)

	faceMed, _ := getFontFace("med")
	drawText(out, "message from "+sender, contentX, 16, faceMed, LEELOO_LAVENDER, false)

	y := contentY
	drawBody := func(text string) {
		if text == "" {
			return
		}
		if fnt := messageFont(); fnt != nil {
			fc := freetype.NewContext()
			fc.SetDPI(72)
			fc.SetFont(fnt)
			fc.SetFontSize(messageFontSize)
			fc.SetClip(out.Bounds())
			fc.SetDst(out)
			fc.SetSrc(image.NewUniform(LEELOO_WHITE))
			fc.SetHinting(font.HintingFull)
			pt := freetype.Pt(contentX, y+int(fc.PointToFixed(messageFontSize)>>6))
			if _, err := fc.DrawString(text, pt); err != nil {
				log.Printf("overlay: drawing message line: %v", err)
			}
			return
		}
		face, _ := getFontFace("body")
		drawText(out, text, contentX, y, face, LEELOO_WHITE, false)
	}

	for i := 0; i < line && i < len(lines); i++ {
		drawBody(lines[i])
		y += typeLineHeight
	}
	if line >= 0 && line < len(lines) {
		runes := []rune(lines[line])
		if chars > len(runes) {
			chars = len(runes)
		}
		if chars > 0 {
			drawBody(string(runes[:chars]))
		}
	}
	return out
}
