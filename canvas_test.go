package main

import (
	"bytes"
	"image"
	"testing"
	"time"

	"github.com/squid-baby/gadget/display"
)

func TestMoonPhase(t *testing.T) {
	newMoon := time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC)
	if got := moonPhase(newMoon); got != 0 {
		t.Errorf("phase at the known new moon = %d, want 0", got)
	}
	if got := moonPhase(newMoon.AddDate(0, 0, 8)); got != 3 {
		t.Errorf("phase eight days in = %d, want 3 (waxing)", got)
	}
	if got := moonPhase(newMoon.AddDate(0, 0, 22)); got != 3 {
		t.Errorf("phase twenty-two days in = %d, want 3 (waning)", got)
	}
	// Dates before the reference and a couple of months around it all
	// stay on the slider.
	for d := -40; d < 120; d += 3 {
		if got := moonPhase(newMoon.AddDate(0, 0, d)); got < 0 || got > 6 {
			t.Errorf("phase %d days from reference = %d, want 0..6", d, got)
		}
	}
}

func TestClockStrings(t *testing.T) {
	now := time.Date(2026, time.March, 7, 15, 4, 0, 0, time.Local)
	timeStr, dateStr := clockStrings(now)
	if timeStr != "3:04 PM" || dateStr != "Mar 7" {
		t.Errorf("clockStrings = (%q, %q), want (3:04 PM, Mar 7)", timeStr, dateStr)
	}
}

func TestHangStrings(t *testing.T) {
	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.Local)

	line, countdown, boxes := hangStrings(now, nil)
	if line != "nxt hang  _/__ __:__" || countdown != "__:__" || boxes != 0 {
		t.Errorf("no hang = (%q, %q, %d), want placeholders", line, countdown, boxes)
	}

	soon := AgendaItem{Start: now.Add(2*time.Hour + 30*time.Minute), Title: "park"}
	line, countdown, boxes = hangStrings(now, &soon)
	if line != "nxt hang  3/7 2:30 PM" {
		t.Errorf("hang line = %q, want nxt hang  3/7 2:30 PM", line)
	}
	if countdown != "02:30" {
		t.Errorf("countdown = %q, want 02:30", countdown)
	}
	if boxes != 1 {
		t.Errorf("boxes at 2.5h out = %d, want 1", boxes)
	}

	longWait := AgendaItem{Start: now.Add(26*time.Hour + 13*time.Minute)}
	_, countdown, _ = hangStrings(now, &longWait)
	if countdown != "26:13" {
		t.Errorf("countdown past a day = %q, want 26:13 (hours keep counting)", countdown)
	}

	halfWeek := AgendaItem{Start: now.Add(84 * time.Hour)}
	if _, _, boxes = hangStrings(now, &halfWeek); boxes != 7 {
		t.Errorf("boxes at half a week = %d, want 7", boxes)
	}

	farOut := AgendaItem{Start: now.Add(10 * 24 * time.Hour)}
	if _, _, boxes = hangStrings(now, &farOut); boxes != 12 {
		t.Errorf("boxes past a week = %d, want the full 12", boxes)
	}

	missed := AgendaItem{Start: now.Add(-time.Hour)}
	if _, countdown, boxes = hangStrings(now, &missed); countdown != "00:00" || boxes != 0 {
		t.Errorf("hang in the past = (%q, %d), want 00:00 and an empty slider", countdown, boxes)
	}
}

func TestClampBoxes(t *testing.T) {
	cases := []struct{ n, max, want int }{
		{-3, 12, 0},
		{0, 12, 0},
		{7, 12, 7},
		{12, 12, 12},
		{40, 12, 12},
	}
	for _, tc := range cases {
		if got := clampBoxes(tc.n, tc.max); got != tc.want {
			t.Errorf("clampBoxes(%d, %d) = %d, want %d", tc.n, tc.max, got, tc.want)
		}
	}
}

func TestUnreadBadge(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "○"},
		{-1, "○"},
		{1, "①"},
		{5, "⑤"},
		{9, "⑨"},
		{37, "⑨"},
	}
	for _, tc := range cases {
		if got := unreadBadge(tc.n); got != tc.want {
			t.Errorf("unreadBadge(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestDimColor(t *testing.T) {
	dim := dimColor(LEELOO_WHITE)
	if dim == LEELOO_WHITE {
		t.Error("dimmed white is still white")
	}
	if dim.A != 255 {
		t.Errorf("dimmed alpha = %d, want opaque", dim.A)
	}
	if dim.R <= LEELOO_BG.R || dim.R >= LEELOO_WHITE.R {
		t.Errorf("dimmed R = %d, want between background %d and white %d", dim.R, LEELOO_BG.R, LEELOO_WHITE.R)
	}
	if got := dimColor(LEELOO_BG); got != LEELOO_BG {
		t.Errorf("dimming the background = %v, want unchanged %v", got, LEELOO_BG)
	}
}

func TestRenderNormalUIDeterministic(t *testing.T) {
	now := time.Date(2026, time.March, 7, 9, 30, 42, 0, time.Local)
	d := snapshotData()
	d.WifiUp = false

	a := renderNormalUI(d, now, nil)
	b := renderNormalUI(d, now, nil)
	if got := a.Bounds(); got.Dx() != cfg.Width || got.Dy() != cfg.Height {
		t.Fatalf("frame bounds = %v, want %dx%d", got, cfg.Width, cfg.Height)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders of the same inputs differ")
	}
	if a.RGBAAt(0, 0) != LEELOO_BG {
		t.Errorf("corner pixel = %v, want background", a.RGBAAt(0, 0))
	}

	later := renderNormalUI(d, now.Add(time.Minute), nil)
	if bytes.Equal(a.Pix, later.Pix) {
		t.Error("clock advanced a minute but the frame did not change")
	}
}

func TestRenderNormalUIWithArtAndSignal(t *testing.T) {
	art := image.NewRGBA(image.Rect(0, 0, 300, 300))
	fillFrame(art, LEELOO_GREEN)
	d := snapshotData()
	d.WifiUp = true
	d.WifiStrength = 0.75

	frame := renderNormalUI(d, time.Now(), art)
	if got := frame.Bounds(); got.Dx() != cfg.Width || got.Dy() != cfg.Height {
		t.Fatalf("frame bounds = %v, want %dx%d", got, cfg.Width, cfg.Height)
	}
}

func TestBoxRightForArtWidths(t *testing.T) {
	square := image.NewRGBA(image.Rect(0, 0, 300, 300))
	if got, want := boxRightFor(square), boxRightFor(nil); got != want {
		t.Errorf("square art box right = %d, want the no-art %d", got, want)
	}

	tall := image.NewRGBA(image.Rect(0, 0, 100, 300))
	if boxRightFor(tall) <= boxRightFor(nil) {
		t.Error("tall art should leave more room for the panels")
	}

	banner := image.NewRGBA(image.Rect(0, 0, 1200, 100))
	if got := boxRightFor(banner); got < 100 {
		t.Errorf("banner art squeezed the panels to %d, want a usable column", got)
	}
}

func TestAnimationFrame(t *testing.T) {
	boxRight := boxRightFor(nil)
	region := display.AnimationRegion(boxRight)
	g := display.PanelGeometries(boxRight)[display.PanelWeather]

	dst := image.NewRGBA(region)
	animationFrame(dst, g, 0.5)

	if got := dst.RGBAAt(g.X, g.Y); got != g.Color {
		t.Errorf("outline corner = %v, want %v", got, g.Color)
	}
	if got := dst.RGBAAt(g.X+g.W/2, g.Y+g.H/2); got != LEELOO_BG {
		t.Errorf("box interior = %v, want empty background during travel", got)
	}

	// No label, no border break.
	g.Label = ""
	animationFrame(dst, g, 0.5)
	if got := dst.RGBAAt(g.X, g.Y); got != g.Color {
		t.Errorf("outline corner without label = %v, want %v", got, g.Color)
	}
}

func TestRenderSplash(t *testing.T) {
	empty := renderSplash(0, "waking up")
	half := renderSplash(50, "waking up")
	if got := empty.Bounds(); got.Dx() != cfg.Width || got.Dy() != cfg.Height {
		t.Fatalf("splash bounds = %v, want %dx%d", got, cfg.Width, cfg.Height)
	}

	// Middle of the progress bar: background while empty, rose once half
	// full.
	px, py := cfg.Width/2, 177
	if got := empty.RGBAAt(px, py); got != LEELOO_BG {
		t.Errorf("empty bar center = %v, want background", got)
	}
	if got := half.RGBAAt(px-60, py); got != LEELOO_ROSE {
		t.Errorf("half bar fill = %v, want rose", got)
	}
	if got := half.RGBAAt(px+80, py); got == LEELOO_ROSE {
		t.Error("half bar is filled past its half")
	}

	over := renderSplash(250, "")
	if got := over.RGBAAt(px+55, py); got != LEELOO_ROSE {
		t.Errorf("overfull bar clamps to 100%%, got %v at the right end", got)
	}
}
