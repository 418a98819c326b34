package main

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestReactionFrames(t *testing.T) {
	kinds := reactionKinds()
	if len(kinds) != 4 {
		t.Fatalf("reactionKinds = %v", kinds)
	}
	for _, kind := range kinds {
		frames := reactionFrames(kind)
		if len(frames) != 3 {
			t.Errorf("%s has %d frames, want 3", kind, len(frames))
		}
		for i, f := range frames {
			if len(f) == 0 {
				t.Errorf("%s frame %d is empty", kind, i)
			}
		}
	}
	if reactionFrames("shrug") != nil {
		t.Error("unknown kind returned frames")
	}
}

func TestReactionMessage(t *testing.T) {
	cases := []struct{ kind, want string }{
		{"love", "Amy loved this"},
		{"fire", "Amy thinks this is fire"},
		{"haha", "Amy is cracking up"},
		{"wave", "Amy says hey"},
		{"shrug", ""},
	}
	for _, tc := range cases {
		if got := reactionMessage(tc.kind, "Amy"); got != tc.want {
			t.Errorf("reactionMessage(%q) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

// Three frames cycle twice at 150ms, the last frame holds 1500ms, then
// the overlay is done.
func TestReactionFrameAt(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{149 * time.Millisecond, 0},
		{150 * time.Millisecond, 1},
		{449 * time.Millisecond, 2},
		{450 * time.Millisecond, 0}, // second cycle
		{899 * time.Millisecond, 2},
		{900 * time.Millisecond, 2}, // hold begins
		{2399 * time.Millisecond, 2},
		{2400 * time.Millisecond, -1},
		{-time.Millisecond, -1},
	}
	for _, tc := range cases {
		if got := reactionFrameAt(tc.elapsed, 3); got != tc.want {
			t.Errorf("reactionFrameAt(%v, 3) = %d, want %d", tc.elapsed, got, tc.want)
		}
	}

	if got := reactionFrameAt(time.Second, 0); got != -1 {
		t.Errorf("zero frames = %d, want -1", got)
	}
}

func TestReactionDuration(t *testing.T) {
	d := reactionDuration(3)
	if d != 2400*time.Millisecond {
		t.Fatalf("reactionDuration(3) = %v", d)
	}
	if got := reactionFrameAt(d-time.Nanosecond, 3); got != 2 {
		t.Errorf("frame just before the end = %d, want 2", got)
	}
	if got := reactionFrameAt(d, 3); got != -1 {
		t.Errorf("frame at the end = %d, want -1", got)
	}
}

func TestDrawScrimMath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, LEELOO_WHITE)
	img.SetRGBA(1, 0, LEELOO_BG)
	img.SetRGBA(2, 0, color.RGBA{100, 150, 200, 255})

	drawScrim(img)

	cases := []struct {
		x       int
		r, g, b uint8
		over    string
	}{
		{0, 75, 77, 91, "white"},
		{1, 26, 29, 46, "background"},
		{2, 41, 55, 79, "mid color"},
	}
	for _, tc := range cases {
		got := img.RGBAAt(tc.x, 0)
		if got.R != tc.r || got.G != tc.g || got.B != tc.b || got.A != 255 {
			t.Errorf("scrim over %s = %v, want {%d %d %d 255}", tc.over, got, tc.r, tc.g, tc.b)
		}
	}
}

func TestApplyOverlayLeavesBase(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fillFrame(base, LEELOO_WHITE)
	snapshot := append([]uint8(nil), base.Pix...)

	out := applyOverlay(base, Overlay{Art: loveFrames[0], Message: "Amy loved this"})

	if out == base {
		t.Fatal("applyOverlay returned the base buffer")
	}
	if !bytes.Equal(base.Pix, snapshot) {
		t.Fatal("applyOverlay mutated the base")
	}

	// Far corner has only the scrim.
	if got := out.RGBAAt(1, 1); got.R != 75 || got.G != 77 || got.B != 91 {
		t.Errorf("corner = %v, want scrimmed white", got)
	}

	// Art and caption must land somewhere: a scrim-only copy differs.
	plain := image.NewRGBA(base.Bounds())
	copy(plain.Pix, base.Pix)
	drawScrim(plain)
	if bytes.Equal(out.Pix, plain.Pix) {
		t.Error("overlay content left no pixels")
	}
}

func TestConversationFrame(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fillFrame(base, LEELOO_BG)
	snapshot := append([]uint8(nil), base.Pix...)

	lines := []string{"aa", "bb"}
	out := conversationFrame(base, "Amy", lines, 1, 1)

	if !bytes.Equal(base.Pix, snapshot) {
		t.Fatal("conversationFrame mutated the base")
	}
	// Scrim over the background is the background.
	if got := out.RGBAAt(1, cfg.Height-2); got != LEELOO_BG {
		t.Errorf("corner = %v, want background", got)
	}

	hasWhite := func(img *image.RGBA, r image.Rectangle) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if img.RGBAAt(x, y) == LEELOO_WHITE {
					return true
				}
			}
		}
		return false
	}
	line0 := image.Rect(contentX, contentY, contentX+40, contentY+typeLineHeight)
	line1 := line0.Add(image.Pt(0, typeLineHeight))
	if !hasWhite(out, line0) {
		t.Error("completed first line not drawn")
	}
	if !hasWhite(out, line1) {
		t.Error("first char of the typed line not drawn")
	}

	// chars past the end clamps to the full line.
	full := conversationFrame(base, "Amy", lines, 1, 2)
	clamped := conversationFrame(base, "Amy", lines, 1, 99)
	if !bytes.Equal(full.Pix, clamped.Pix) {
		t.Error("overlong chars differs from the full line")
	}

	// line past the end paints every line and nothing else.
	done := conversationFrame(base, "Amy", lines, 2, 0)
	if !hasWhite(done, line0) || !hasWhite(done, line1) {
		t.Error("finished overlay lost a line")
	}
}
