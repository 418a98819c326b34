package main

import (
	"errors"
	"image"
	"image/draw"
	"log"
	"sync"
	"time"

	"github.com/squid-baby/gadget/display"
)

var (
	errInvalidRequest = errors.New("invalid request")
	errBusy           = errors.New("display busy")
)

type uiState int

const (
	stateNormal uiState = iota
	stateExpanding
	stateExpanded
	stateCollapsing
)

func (s uiState) String() string {
	switch s {
	case stateNormal:
		return "normal"
	case stateExpanding:
		return "expanding"
	case stateExpanded:
		return "expanded"
	case stateCollapsing:
		return "collapsing"
	}
	return "unknown"
}

type overlayRequest struct {
	reaction string // reaction kind, empty for a message overlay
	from     string
	sender   string
	text     string
}

// uiManager owns the framebuffer. Expand and collapse requests come in
// from input, relay, and HTTP goroutines; the run loop executes them one
// at a time. A request that arrives mid-animation is refused with
// errBusy rather than queued, matching the tap-again-later feel of the
// physical device.
type uiManager struct {
	fb     *display.Framebuffer
	player *display.Player

	mu       sync.Mutex
	state    uiState
	panel    display.PanelID
	progress float64

	expandCh   chan display.PanelID
	collapseCh chan struct{}
	activityCh chan struct{}
	overlayCh  chan overlayRequest
	quitCh     chan struct{}

	frameMu   sync.RWMutex
	lastFrame *image.RGBA

	artMu sync.RWMutex
	art   *image.RGBA

	holdFor time.Duration
}

func newUIManager(fb *display.Framebuffer) *uiManager {
	return &uiManager{
		fb:         fb,
		player:     display.NewPlayer(fb),
		expandCh:   make(chan display.PanelID, 1),
		collapseCh: make(chan struct{}, 1),
		activityCh: make(chan struct{}, 1),
		overlayCh:  make(chan overlayRequest, 1),
		quitCh:     make(chan struct{}),
		holdFor:    time.Duration(cfg.HoldSeconds) * time.Second,
	}
}

// Status reports the state machine position for the debug server.
func (m *uiManager) Status() (state string, panel display.PanelID, progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.String(), m.panel, m.progress
}

// RequestExpand asks for a panel to expand. Accepted only from the
// normal screen; asking for the panel already expanding or expanded is a
// no-op that refreshes the hold timer. The claim to the expanding state
// happens here, under the lock, so two concurrent callers cannot both
// win.
func (m *uiManager) RequestExpand(panel display.PanelID) error {
	if _, ok := display.ParsePanel(string(panel)); !ok {
		return errInvalidRequest
	}

	m.mu.Lock()
	switch m.state {
	case stateExpanding, stateExpanded:
		same := m.panel == panel
		m.mu.Unlock()
		if same {
			m.touch()
			return nil
		}
		return errBusy
	case stateCollapsing:
		m.mu.Unlock()
		return errBusy
	}
	m.state = stateExpanding
	m.panel = panel
	m.progress = 0
	m.mu.Unlock()

	m.expandCh <- panel // buffered; only the claim winner ever sends
	return nil
}

// RequestCollapse asks the expanded panel to come back down. Normal is a
// no-op; mid-animation is busy.
func (m *uiManager) RequestCollapse() error {
	m.mu.Lock()
	st := m.state
	m.mu.Unlock()

	switch st {
	case stateNormal:
		return nil
	case stateExpanded:
		select {
		case m.collapseCh <- struct{}{}:
		default:
		}
		return nil
	default:
		return errBusy
	}
}

// ShowReaction plays a crew reaction overlay. Unknown kinds are refused.
func (m *uiManager) ShowReaction(kind, from string) error {
	if reactionFrames(kind) == nil {
		return errInvalidRequest
	}
	m.pushOverlay(overlayRequest{reaction: kind, from: from})
	return nil
}

// ShowMessage plays the inbound-message overlay with the typewriter
// reveal.
func (m *uiManager) ShowMessage(sender, text string) error {
	if text == "" {
		return errInvalidRequest
	}
	if sender == "" {
		sender = "crew"
	}
	m.pushOverlay(overlayRequest{sender: sender, text: text})
	return nil
}

// pushOverlay replaces whatever overlay is pending. The active overlay
// polls this channel between ticks, so a new one takes over immediately
// instead of queueing behind the old.
func (m *uiManager) pushOverlay(req overlayRequest) {
	for {
		select {
		case m.overlayCh <- req:
			return
		default:
			select {
			case <-m.overlayCh:
			default:
			}
		}
	}
}

// touch refreshes the auto-collapse timer.
func (m *uiManager) touch() {
	select {
	case m.activityCh <- struct{}{}:
	default:
	}
}

// SetAlbumArt swaps the decoded album art used for every later render.
func (m *uiManager) SetAlbumArt(img *image.RGBA) {
	m.artMu.Lock()
	m.art = img
	m.artMu.Unlock()
}

func (m *uiManager) albumArt() *image.RGBA {
	m.artMu.RLock()
	defer m.artMu.RUnlock()
	return m.art
}

func (m *uiManager) setLastFrame(frame *image.RGBA) {
	m.frameMu.Lock()
	m.lastFrame = frame
	m.frameMu.Unlock()
}

// snapshotFrame clones the last fully painted screen. Overlay compositing
// and abort recovery both work from copies so the stored frame is never
// scribbled on.
func (m *uiManager) snapshotFrame() *image.RGBA {
	m.frameMu.RLock()
	defer m.frameMu.RUnlock()
	if m.lastFrame == nil {
		return nil
	}
	out := image.NewRGBA(m.lastFrame.Bounds())
	copy(out.Pix, m.lastFrame.Pix)
	return out
}

// CurrentFrame hands the debug server the current screen.
func (m *uiManager) CurrentFrame() *image.RGBA {
	return m.snapshotFrame()
}

func (m *uiManager) Stop() {
	close(m.quitCh)
}

// Run is the render loop. It owns every framebuffer write: normal
// repaints each second for the clock, expand sequences when a request
// wins the claim, overlays as they arrive.
func (m *uiManager) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	m.paintNormal()
	for {
		select {
		case <-m.quitCh:
			return
		case panel := <-m.expandCh:
			m.handleExpand(panel)
		case req := <-m.overlayCh:
			m.playOverlay(req)
		case <-ticker.C:
			m.paintNormal()
		}
	}
}

func (m *uiManager) paintNormal() {
	m.mu.Lock()
	if m.state != stateNormal {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	frame := renderNormalUI(snapshotData(), time.Now(), m.albumArt())
	if err := m.fb.WriteFull(frame); err != nil {
		log.Printf("display: normal repaint: %v", err)
	}
	m.setLastFrame(frame)
}

func (m *uiManager) setProgress(v float64) {
	m.mu.Lock()
	m.progress = v
	m.mu.Unlock()
}

func (m *uiManager) setState(s uiState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *uiManager) toNormal() {
	m.mu.Lock()
	m.state = stateNormal
	m.panel = ""
	m.progress = 0
	m.mu.Unlock()
}

// handleExpand runs the whole expanded life of a panel: grow animation,
// typewriter content, hold with auto-collapse, shrink animation. The
// run loop blocks here for the duration; that is what makes every other
// request Busy.
func (m *uiManager) handleExpand(panel display.PanelID) {
	d := snapshotData()
	art := m.albumArt()
	base := m.snapshotFrame()

	boxRight := boxRightFor(art)
	from := display.PanelGeometries(boxRight)[panel]
	to := display.ExpandedGeometry(boxRight, from)
	region := display.AnimationRegion(boxRight)
	seqCfg := display.SequenceConfig{
		FPS:      cfg.AnimationFPS,
		Duration: time.Duration(cfg.AnimationMs) * time.Millisecond,
	}

	grow := display.GenerateSequence(region, from, to, seqCfg, animationFrame)
	err := m.player.Play(grow, func(i, n int) {
		m.setProgress(float64(i) / float64(n))
	})
	if err != nil {
		log.Printf("display: expand of %s aborted: %v", panel, err)
		m.restore(base)
		m.toNormal()
		return
	}
	m.setState(stateExpanded)

	// Mirror the landed box so overlays composite over the real screen.
	landed := m.snapshotFrame()
	final := grow.Frames[len(grow.Frames)-1]
	draw.Draw(landed, final.Bounds(), final, final.Bounds().Min, draw.Src)

	textWidth := expandedTextWidth(boxRight)
	lines := expandedContent(panel, d, time.Now(), textWidth)

	// Stale collapse tokens from a previous expansion die here, before
	// anyone can legitimately send a new one for this panel.
	select {
	case <-m.collapseCh:
	default:
	}

	interrupt := func() bool {
		return len(m.collapseCh) > 0 || len(m.overlayCh) > 0
	}
	if err := typeContent(m.fb, lines, textWidth, interrupt); err != nil {
		log.Printf("display: content reveal: %v", err)
	}
	drawContentLines(landed, lines, textWidth)
	m.setLastFrame(landed)

	deadline := time.NewTimer(m.holdFor)
	defer deadline.Stop()
hold:
	for {
		select {
		case <-m.quitCh:
			return
		case <-m.collapseCh:
			break hold
		case <-deadline.C:
			break hold
		case <-m.activityCh:
			resetTimer(deadline, m.holdFor)
		case req := <-m.overlayCh:
			m.playOverlay(req)
			resetTimer(deadline, m.holdFor)
		}
	}

	m.setState(stateCollapsing)
	shrink := display.GenerateSequence(region, to, from, seqCfg, animationFrame)
	err = m.player.Play(shrink, func(i, n int) {
		m.setProgress(float64(i) / float64(n))
	})
	if err != nil {
		log.Printf("display: collapse of %s aborted: %v", panel, err)
	}

	m.toNormal()
	m.paintNormal()
}

// restore puts the pre-transition screen back after an aborted sequence.
func (m *uiManager) restore(base *image.RGBA) {
	if base == nil {
		return
	}
	if err := m.fb.WriteFull(base); err != nil {
		log.Printf("display: restore: %v", err)
	}
	m.setLastFrame(base)
}

// playOverlay runs one overlay to completion, or until a newer overlay
// preempts it. The screen beneath comes back untouched afterwards.
func (m *uiManager) playOverlay(req overlayRequest) {
	base := m.snapshotFrame()
	if base == nil {
		return
	}

	if req.reaction != "" {
		m.playReaction(base, req)
	} else {
		m.playMessage(base, req)
	}

	// A pending overlay paints its own scrim over the same base; writing
	// the base back first would just flash.
	if len(m.overlayCh) == 0 {
		if err := m.fb.WriteFull(base); err != nil {
			log.Printf("display: overlay restore: %v", err)
		}
	}
}

func (m *uiManager) playReaction(base *image.RGBA, req overlayRequest) {
	frames := reactionFrames(req.reaction)
	msg := reactionMessage(req.reaction, req.from)
	start := time.Now()
	last := -2

	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()
	for {
		if len(m.overlayCh) > 0 {
			return
		}
		idx := reactionFrameAt(time.Since(start), len(frames))
		if idx < 0 {
			return
		}
		if idx != last {
			frame := applyOverlay(base, Overlay{Art: frames[idx], Message: msg})
			if err := m.fb.WriteFull(frame); err != nil {
				log.Printf("display: reaction overlay: %v", err)
			}
			last = idx
		}
		select {
		case <-m.quitCh:
			return
		case <-tick.C:
		}
	}
}

// messageOverlayHold keeps a finished message on screen long enough to
// read before the scrim drops.
const messageOverlayHold = 6 * time.Second

func (m *uiManager) playMessage(base *image.RGBA, req overlayRequest) {
	width := base.Bounds().Dx() - contentX*2
	lines := wrapText(messageFace(), req.text, width)

	// First frame carries the scrim and header; after that only the
	// line being typed needs to reach the device.
	frame := conversationFrame(base, req.sender, lines, 0, 0)
	if err := m.fb.WriteFull(frame); err != nil {
		log.Printf("display: message overlay: %v", err)
	}

	y := contentY
	for li := range lines {
		runes := []rune(lines[li])
		strip := image.Rect(contentX, y, contentX+width, y+typeLineHeight)
		for c := 1; c <= len(runes); c++ {
			if len(m.overlayCh) > 0 {
				return
			}
			frame = conversationFrame(base, req.sender, lines, li, c)
			if err := m.fb.WriteRegion(frame, strip); err != nil {
				log.Printf("display: message overlay: %v", err)
			}
			select {
			case <-m.quitCh:
				return
			case <-time.After(typeCharDelay):
			}
		}
		y += typeLineHeight
		time.Sleep(typeLinePause)
	}

	hold := time.NewTimer(messageOverlayHold)
	defer hold.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if len(m.overlayCh) > 0 {
			return
		}
		select {
		case <-m.quitCh:
			return
		case <-hold.C:
			return
		case <-tick.C:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
