// Package display drives a Linux framebuffer device (fbtft-style, RGB565)
// and provides the animation engine on top of it: panel geometry with eased
// interpolation, pre-computed frame sequences, and a paced frame player.
//
// Frames are ordinary *image.RGBA buffers. Sequence frames carry screen-space
// bounds, so a frame's Bounds() is also the region of the screen it covers.
// The writer converts rows to RGB565 on the fly and never issues a write
// larger than one scanline, which keeps partial updates tear-free on slow
// SPI-backed framebuffers.
package display

const (
	// DefaultFPS is the playback cadence for panel animations. At 24fps a
	// frame has a ~41.6ms budget before the schedule starts stretching.
	DefaultFPS = 24

	// DefaultDuration is the wall-clock length of an expand or collapse.
	DefaultDuration = 1500 // milliseconds

	// ScreenWidth and ScreenHeight match the ILI9486 fbtft panel this
	// project ships on. Both are overridable through config at Open time.
	ScreenWidth  = 480
	ScreenHeight = 320
)
