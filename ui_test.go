package main

import (
	"errors"
	"image"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/squid-baby/gadget/display"
)

func TestMain(m *testing.M) {
	cfg = defaultConfig()
	cfg.FontDir = "/nonexistent" // bitmap fallback keeps renders deterministic
	cfg.AnimationFPS = 25
	cfg.AnimationMs = 120
	cfg.HoldSeconds = 1
	cfg.AlbumArtDir = os.TempDir()
	os.Exit(m.Run())
}

var errDeviceGone = errors.New("device gone")

// memDevice is an in-memory stand-in for /dev/fb1. It can be told to
// start failing at a given write index so playback abort paths can be
// driven deterministically.
type memDevice struct {
	mu     sync.Mutex
	buf    []byte
	writes int
	failed int
	failAt int // writes at or past this index fail; -1 never
}

func newMemDevice(w, h int) *memDevice {
	return &memDevice{buf: make([]byte, w*h*2), failAt: -1}
}

func (d *memDevice) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAt >= 0 && d.writes >= d.failAt {
		d.failed++
		return 0, errDeviceGone
	}
	if off < 0 || int(off)+len(p) > len(d.buf) {
		return 0, errors.New("write out of range")
	}
	copy(d.buf[off:], p)
	d.writes++
	return len(p), nil
}

func (d *memDevice) Close() error { return nil }

func (d *memDevice) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *memDevice) failedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failed
}

// failFromNow makes every subsequent write fail.
func (d *memDevice) failFromNow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAt = d.writes
}

func newTestManager(t *testing.T, holdSeconds int) (*uiManager, *memDevice) {
	t.Helper()
	oldHold := cfg.HoldSeconds
	cfg.HoldSeconds = holdSeconds
	dev := newMemDevice(cfg.Width, cfg.Height)
	m := newUIManager(display.New(dev, cfg.Width, cfg.Height))
	cfg.HoldSeconds = oldHold
	return m, dev
}

// startManager runs the manager loop and guarantees it is stopped and
// drained before the test returns, so later tests never race it.
func startManager(t *testing.T, m *uiManager) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()
	t.Cleanup(func() {
		m.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("run loop did not exit after Stop")
		}
	})
}

// stashData snapshots the shared display data and restores it when the
// test finishes.
func stashData(t *testing.T) {
	t.Helper()
	dataMutex.Lock()
	saved := gadgetData
	saved.Contacts = append([]Contact(nil), gadgetData.Contacts...)
	saved.Conversation = append([]ChatMessage(nil), gadgetData.Conversation...)
	saved.Agenda = append([]AgendaItem(nil), gadgetData.Agenda...)
	dataMutex.Unlock()
	t.Cleanup(func() {
		dataMutex.Lock()
		gadgetData = saved
		dataMutex.Unlock()
	})
}

func waitForState(t *testing.T, m *uiManager, want string, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		st, _, _ := m.Status()
		if st == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	st, panel, _ := m.Status()
	t.Fatalf("state never became %q, still %q (panel %q)", want, st, panel)
}

func waitForWrites(t *testing.T, dev *memDevice, min int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if dev.writeCount() >= min {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("device saw %d writes, want at least %d", dev.writeCount(), min)
}

func TestRequestExpandClaim(t *testing.T) {
	m, _ := newTestManager(t, 1)

	if err := m.RequestExpand("bogus"); err != errInvalidRequest {
		t.Errorf("expand of unknown panel = %v, want errInvalidRequest", err)
	}
	if err := m.RequestExpand(display.PanelWeather); err != nil {
		t.Fatalf("expand from normal = %v, want nil", err)
	}
	st, panel, progress := m.Status()
	if st != "expanding" || panel != display.PanelWeather || progress != 0 {
		t.Errorf("after claim: status = (%s, %s, %v), want (expanding, weather, 0)", st, panel, progress)
	}
	select {
	case got := <-m.expandCh:
		if got != display.PanelWeather {
			t.Errorf("expand token = %s, want weather", got)
		}
	default:
		t.Error("winning claim did not queue an expand token")
	}

	if err := m.RequestExpand(display.PanelTime); err != errBusy {
		t.Errorf("expand of another panel while expanding = %v, want errBusy", err)
	}
	if err := m.RequestExpand(display.PanelWeather); err != nil {
		t.Errorf("re-expand of the same panel = %v, want nil", err)
	}
	select {
	case <-m.activityCh:
	default:
		t.Error("same-panel re-expand did not refresh the hold timer")
	}
	select {
	case <-m.expandCh:
		t.Error("same-panel re-expand queued a second token")
	default:
	}
}

func TestRequestCollapseByState(t *testing.T) {
	m, _ := newTestManager(t, 1)

	if err := m.RequestCollapse(); err != nil {
		t.Errorf("collapse from normal = %v, want nil no-op", err)
	}
	if len(m.collapseCh) != 0 {
		t.Error("collapse from normal queued a token")
	}

	m.setState(stateExpanded)
	if err := m.RequestCollapse(); err != nil {
		t.Errorf("collapse from expanded = %v, want nil", err)
	}
	if len(m.collapseCh) != 1 {
		t.Errorf("collapse queue length = %d, want 1", len(m.collapseCh))
	}
	// Channel already full; a second request must not block.
	if err := m.RequestCollapse(); err != nil {
		t.Errorf("second collapse = %v, want nil", err)
	}

	for _, st := range []uiState{stateExpanding, stateCollapsing} {
		m.setState(st)
		if err := m.RequestCollapse(); err != errBusy {
			t.Errorf("collapse while %s = %v, want errBusy", st, err)
		}
	}
}

func TestShowReactionValidation(t *testing.T) {
	m, _ := newTestManager(t, 1)
	if err := m.ShowReaction("shrug", "Amy"); err != errInvalidRequest {
		t.Errorf("unknown reaction = %v, want errInvalidRequest", err)
	}
	if err := m.ShowReaction("fire", "Amy"); err != nil {
		t.Errorf("known reaction = %v, want nil", err)
	}
	req := <-m.overlayCh
	if req.reaction != "fire" || req.from != "Amy" {
		t.Errorf("queued overlay = %+v, want fire from Amy", req)
	}
}

func TestShowMessageValidation(t *testing.T) {
	m, _ := newTestManager(t, 1)
	if err := m.ShowMessage("Amy", ""); err != errInvalidRequest {
		t.Errorf("empty message = %v, want errInvalidRequest", err)
	}
	if err := m.ShowMessage("", "hello"); err != nil {
		t.Fatalf("message with empty sender = %v, want nil", err)
	}
	req := <-m.overlayCh
	if req.sender != "crew" || req.text != "hello" {
		t.Errorf("queued overlay = %+v, want sender crew", req)
	}
}

func TestPushOverlayReplacesPending(t *testing.T) {
	m, _ := newTestManager(t, 1)
	m.pushOverlay(overlayRequest{reaction: "love", from: "Amy"})
	m.pushOverlay(overlayRequest{sender: "Ben", text: "newer"})

	req := <-m.overlayCh
	if req.text != "newer" {
		t.Errorf("pending overlay = %+v, want the newer message", req)
	}
	if len(m.overlayCh) != 0 {
		t.Error("older overlay still queued behind the newer one")
	}
}

func TestSnapshotFrameCopies(t *testing.T) {
	m, _ := newTestManager(t, 1)
	if got := m.snapshotFrame(); got != nil {
		t.Fatalf("snapshot before any paint = %v, want nil", got)
	}

	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fillFrame(frame, LEELOO_ROSE)
	m.setLastFrame(frame)

	snap := m.snapshotFrame()
	snap.Pix[0] = 0
	if frame.Pix[0] == 0 {
		t.Error("mutating the snapshot reached the stored frame")
	}
	if got := m.CurrentFrame(); got.RGBAAt(1, 0) != LEELOO_ROSE {
		t.Errorf("CurrentFrame pixel = %v, want %v", got.RGBAAt(1, 0), LEELOO_ROSE)
	}
}

func TestExpandTypeAndCollapse(t *testing.T) {
	stashData(t)
	updateData(func(d *DisplayData) { d.Conversation = nil })

	m, dev := newTestManager(t, 30) // hold long enough that only our collapse ends it
	startManager(t, m)
	waitForWrites(t, dev, cfg.Height) // first normal paint reached the device

	if err := m.RequestExpand(display.PanelConversation); err != nil {
		t.Fatalf("expand: %v", err)
	}
	waitForState(t, m, "expanded", 5*time.Second)
	if _, panel, progress := m.Status(); panel != display.PanelConversation || progress != 1.0 {
		t.Errorf("expanded status = (%s, %v), want (conversation, 1)", panel, progress)
	}
	if err := m.RequestExpand(display.PanelWeather); err != errBusy {
		t.Errorf("expand while expanded = %v, want errBusy", err)
	}
	if err := m.RequestExpand(display.PanelConversation); err != nil {
		t.Errorf("same-panel refresh while expanded = %v, want nil", err)
	}

	// Give the expand path a beat to drain stale collapse tokens, then
	// interrupt the typewriter with a real collapse.
	time.Sleep(150 * time.Millisecond)
	if err := m.RequestCollapse(); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	waitForState(t, m, "normal", 5*time.Second)
	if _, panel, progress := m.Status(); panel != "" || progress != 0 {
		t.Errorf("status after collapse = (%q, %v), want cleared", panel, progress)
	}
}

func TestAutoCollapseAfterHold(t *testing.T) {
	stashData(t)
	updateData(func(d *DisplayData) {
		d.Conversation = nil
		d.Agenda = nil
	})

	m, _ := newTestManager(t, 1)
	startManager(t, m)

	if err := m.RequestExpand(display.PanelTime); err != nil {
		t.Fatalf("expand: %v", err)
	}
	waitForState(t, m, "expanded", 5*time.Second)
	// No input at all: the hold timer must bring the panel back down.
	waitForState(t, m, "normal", 10*time.Second)
}

func TestExpandAbortRestoresNormal(t *testing.T) {
	m, dev := newTestManager(t, 1)
	m.paintNormal() // healthy paint seeds the restore snapshot

	if err := m.RequestExpand(display.PanelWeather); err != nil {
		t.Fatalf("expand: %v", err)
	}
	<-m.expandCh
	dev.failFromNow()

	m.handleExpand(display.PanelWeather)

	if st, panel, progress := m.Status(); st != "normal" || panel != "" || progress != 0 {
		t.Errorf("after aborted expand: status = (%s, %q, %v), want clean normal", st, panel, progress)
	}
	if dev.failedCount() < 3 {
		t.Errorf("device saw %d failed writes, want at least 3 before aborting", dev.failedCount())
	}
}

func TestPlayReactionPreempted(t *testing.T) {
	m, dev := newTestManager(t, 1)
	base := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	m.pushOverlay(overlayRequest{reaction: "fire", from: "Ben"})
	before := dev.writeCount()
	start := time.Now()
	m.playReaction(base, overlayRequest{reaction: "love", from: "Amy"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("preempted reaction ran %v, want immediate return", elapsed)
	}
	if got := dev.writeCount() - before; got != 0 {
		t.Errorf("preempted reaction wrote %d rows, want none", got)
	}
}

func TestPlayMessagePreempted(t *testing.T) {
	m, dev := newTestManager(t, 1)
	base := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	m.pushOverlay(overlayRequest{reaction: "wave", from: "Ben"})
	before := dev.writeCount()
	m.playMessage(base, overlayRequest{sender: "Amy", text: "hello there"})
	// The scrim frame goes out before the first character check.
	if got := dev.writeCount() - before; got != cfg.Height {
		t.Errorf("preempted message wrote %d rows, want exactly one frame (%d)", got, cfg.Height)
	}
}

func TestPlayOverlayRestoreSkippedWhenPending(t *testing.T) {
	m, dev := newTestManager(t, 1)
	m.paintNormal()

	m.pushOverlay(overlayRequest{sender: "Ben", text: "next"})
	before := dev.writeCount()
	m.playOverlay(overlayRequest{reaction: "haha", from: "Amy"})
	if got := dev.writeCount() - before; got != 0 {
		t.Errorf("preempted overlay wrote %d rows, want none (next overlay repaints)", got)
	}
}

func TestPlayOverlayRestoresBase(t *testing.T) {
	m, dev := newTestManager(t, 1)
	m.paintNormal()
	m.Stop() // first tick wait bails out, leaving only frame + restore

	before := dev.writeCount()
	m.playOverlay(overlayRequest{reaction: "love", from: "Amy"})
	if got := dev.writeCount() - before; got != 2*cfg.Height {
		t.Errorf("overlay wrote %d rows, want one frame plus the restored base (%d)", got, 2*cfg.Height)
	}
}

func TestSetAlbumArt(t *testing.T) {
	m, _ := newTestManager(t, 1)
	if m.albumArt() != nil {
		t.Fatal("fresh manager already has album art")
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	m.SetAlbumArt(img)
	if m.albumArt() != img {
		t.Error("album art did not round-trip")
	}
}

func TestResetTimerAfterFire(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	time.Sleep(10 * time.Millisecond) // let it fire without draining
	resetTimer(timer, 20*time.Millisecond)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Error("reset timer never fired")
	}

	idle := time.NewTimer(time.Hour)
	resetTimer(idle, 10*time.Millisecond)
	select {
	case <-idle.C:
	case <-time.After(time.Second):
		t.Error("rescheduled timer never fired")
	}
}
