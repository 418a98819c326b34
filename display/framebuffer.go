package display

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
)

// ErrDeviceUnavailable is returned by Open when the framebuffer device
// cannot be opened. There is no retry path: without a device the process
// has nothing to drive and should exit.
var ErrDeviceUnavailable = errors.New("framebuffer device unavailable")

// WriteError wraps a failed scanline write. The player counts these per
// sequence; three consecutive failed frames abort playback.
type WriteError struct {
	Row    int
	Offset int64
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("framebuffer write row %d at offset %d: %v", e.Row, e.Offset, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Device is the write surface behind a Framebuffer. *os.File satisfies it;
// tests substitute an in-memory sink.
type Device interface {
	io.WriterAt
	io.Closer
}

// Framebuffer writes RGBA buffers to an RGB565 framebuffer device one
// scanline segment at a time. It assumes exclusive ownership of the device;
// nothing else in the process may write to it.
type Framebuffer struct {
	dev    Device
	width  int
	height int
	row    []byte // scratch, one full scanline of RGB565
}

// Open opens the framebuffer device at path. A failure here is fatal to the
// caller by contract: the error wraps ErrDeviceUnavailable.
func Open(path string, width, height int) (*Framebuffer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, path, err)
	}
	return New(f, width, height), nil
}

// New wraps an already-open device. Used by Open and by tests.
func New(dev Device, width, height int) *Framebuffer {
	return &Framebuffer{
		dev:    dev,
		width:  width,
		height: height,
		row:    make([]byte, width*2),
	}
}

// Width returns the device width in pixels.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the device height in pixels.
func (fb *Framebuffer) Height() int { return fb.height }

// WriteRegion writes the given region of img to the device, row-major, one
// scanline segment per WriteAt call. The region is clamped to both the image
// bounds and the screen. img coordinates are screen coordinates.
//
// A short write is logged and the row abandoned; the next frame overwrites
// it, so it is not worth failing the frame over. A device error is returned
// immediately as a *WriteError.
func (fb *Framebuffer) WriteRegion(img *image.RGBA, r image.Rectangle) error {
	r = r.Intersect(img.Bounds()).Intersect(image.Rect(0, 0, fb.width, fb.height))
	if r.Empty() {
		return nil
	}
	n := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := fb.row[:n*2]
		packRow(img, r.Min.X, y, n, row)
		off := int64((y*fb.width + r.Min.X) * 2)
		wrote, err := fb.dev.WriteAt(row, off)
		if err != nil {
			return &WriteError{Row: y, Offset: off, Err: err}
		}
		if wrote < len(row) {
			log.Printf("framebuffer: short write row %d: %d of %d bytes", y, wrote, len(row))
		}
	}
	return nil
}

// WriteFull writes the whole image. The image must cover the screen.
func (fb *Framebuffer) WriteFull(img *image.RGBA) error {
	return fb.WriteRegion(img, img.Bounds())
}

// Close releases the device.
func (fb *Framebuffer) Close() error { return fb.dev.Close() }
