package display

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrPlaybackAborted is returned by Play when too many consecutive frames
// fail to reach the device. The caller is expected to repaint the last
// stable screen.
var ErrPlaybackAborted = errors.New("playback aborted")

// maxConsecutiveWriteFailures aborts a sequence after this many frames in a
// row fail to write. A single flaky frame is just overwritten by the next.
const maxConsecutiveWriteFailures = 3

// Player paces a pre-computed Sequence onto the framebuffer. It is the only
// thing that writes during an animation.
type Player struct {
	fb *Framebuffer
}

// NewPlayer returns a player bound to fb.
func NewPlayer(fb *Framebuffer) *Player {
	return &Player{fb: fb}
}

// Play writes every frame of seq in order, sleeping so that frame i lands at
// start + (i+1) * period. A frame that overruns its slot is still written
// and the schedule stretches; frames are never dropped to catch up.
//
// onFrame, when non-nil, is called after each frame with the 1-based
// playback index and total count. It runs on the playback goroutine, so the
// state machine reading progress from it sees indices in order, ending at
// exactly (n, n). It fires for failed frames too: the slot was consumed.
//
// Write failures are logged and tolerated until maxConsecutiveWriteFailures
// frames fail back to back, at which point Play stops and returns an error
// wrapping ErrPlaybackAborted. One good frame resets the count.
func (p *Player) Play(seq *Sequence, onFrame func(i, n int)) error {
	n := seq.Len()
	if n == 0 {
		return nil
	}
	period := seq.FramePeriod()
	start := time.Now()
	failures := 0
	for i, frame := range seq.Frames {
		if err := p.fb.WriteRegion(frame, seq.Region); err != nil {
			failures++
			log.Printf("player: frame %d/%d: %v", i+1, n, err)
			if failures >= maxConsecutiveWriteFailures {
				return fmt.Errorf("%w: %d consecutive write failures: %v", ErrPlaybackAborted, failures, err)
			}
		} else {
			failures = 0
		}
		if onFrame != nil {
			onFrame(i+1, n)
		}
		target := start.Add(time.Duration(i+1) * period)
		if d := time.Until(target); d > 0 {
			time.Sleep(d)
		}
	}
	return nil
}
