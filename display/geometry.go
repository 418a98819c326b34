package display

import (
	"image"
	"image/color"
)

// PanelID names an expandable panel on the normal UI.
type PanelID string

const (
	PanelWeather      PanelID = "weather"
	PanelTime         PanelID = "time"
	PanelMessages     PanelID = "messages"
	PanelAlbum        PanelID = "album"
	PanelConversation PanelID = "conversation"
)

// ParsePanel maps a wire string (HTTP path segment, relay payload) to a
// PanelID. ok is false for anything outside the known set.
func ParsePanel(s string) (PanelID, bool) {
	switch PanelID(s) {
	case PanelWeather, PanelTime, PanelMessages, PanelAlbum, PanelConversation:
		return PanelID(s), true
	}
	return "", false
}

// Panel accent colors, shared with the normal UI palette.
var (
	colorTan      = color.RGBA{0xC2, 0x99, 0x5E, 0xFF}
	colorPurple   = color.RGBA{0x9C, 0x93, 0xDD, 0xFF}
	colorLavender = color.RGBA{0xA7, 0xAF, 0xD4, 0xFF}
	colorGreen    = color.RGBA{0x71, 0x92, 0x53, 0xFF}
	colorRose     = color.RGBA{0xD6, 0x69, 0x7F, 0xFF}
)

// Geometry is a panel frame: position, size, accent color and the label
// drawn breaking its top border.
type Geometry struct {
	X, Y  int
	W, H  int
	Color color.RGBA
	Label string
}

func (g Geometry) Right() int  { return g.X + g.W }
func (g Geometry) Bottom() int { return g.Y + g.H }

// Rect returns the frame as an image.Rectangle in screen coordinates.
func (g Geometry) Rect() image.Rectangle {
	return image.Rect(g.X, g.Y, g.X+g.W, g.Y+g.H)
}

// PanelGeometries returns the collapsed frame for every panel, laid out in
// the left column. boxRight is the left edge of the album art and bounds the
// column. The conversation thread lives in the messages row and expands
// from it.
func PanelGeometries(boxRight int) map[PanelID]Geometry {
	w := boxRight - 5
	return map[PanelID]Geometry{
		PanelWeather:      {X: 5, Y: 16, W: w, H: 59, Color: colorTan, Label: "weather"},
		PanelTime:         {X: 5, Y: 83, W: w, H: 71, Color: colorPurple, Label: "time"},
		PanelMessages:     {X: 5, Y: 162, W: w, H: 28, Color: colorLavender, Label: "messages"},
		PanelAlbum:        {X: 5, Y: 198, W: w, H: 108, Color: colorGreen, Label: "album"},
		PanelConversation: {X: 5, Y: 162, W: w, H: 28, Color: colorRose, Label: "conversation"},
	}
}

// ExpandedGeometry returns the frame a panel grows into: the full column
// height. Color and label are taken from the collapsed frame so the box
// keeps its identity while it moves.
func ExpandedGeometry(boxRight int, from Geometry) Geometry {
	return Geometry{X: 5, Y: 16, W: boxRight - 5, H: 290, Color: from.Color, Label: from.Label}
}

// AnimationRegion is the screen area touched by expand/collapse playback:
// the whole left column plus the label overhang above the top frame.
func AnimationRegion(boxRight int) image.Rectangle {
	return image.Rect(5, 10, boxRight, 306)
}

// Ease is the cubic ease-in-out curve used for all panel animation,
// t' = 3t^2 - 2t^3. Monotone on [0,1] with zero slope at both ends.
func Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// EaseTable pre-computes the eased parameter for an n-frame sequence.
// Index 0 is exactly 0 and index n-1 exactly 1, so a sequence starts and
// ends pixel-identical to its endpoints.
func EaseTable(n int) []float64 {
	tbl := make([]float64, n)
	for i := range tbl {
		tbl[i] = Ease(float64(i) / float64(n-1))
	}
	return tbl
}

func lerp(a, b int, t float64) int {
	return a + int(float64(b-a)*t)
}

// Interpolate blends two frames at eased parameter t. Color and label come
// from the start frame; only the box moves.
func Interpolate(from, to Geometry, t float64) Geometry {
	return Geometry{
		X:     lerp(from.X, to.X, t),
		Y:     lerp(from.Y, to.Y, t),
		W:     lerp(from.W, to.W, t),
		H:     lerp(from.H, to.H, t),
		Color: from.Color,
		Label: from.Label,
	}
}
