package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	svg "github.com/ajstarks/svgo"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Image caches are touched only from the manager's render goroutine.
var (
	imageCache = make(map[string]*image.RGBA)
	svgCache   = make(map[string]*image.RGBA)
)

//---------------- Drawing Functions ----------------

// drawText draws a string onto an *image.RGBA at (x,y) using the specified
// font face and color. posY is the top of the text area; the baseline is
// posY plus the face's ascent. Returns the finishing coordinates so callers
// can chain runs on one line.
func drawText(img *image.RGBA, text string, posX, posY int, face font.Face, clr color.Color, center bool) (finishX, finishY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
	}

	metrics := face.Metrics()

	var x, y int
	if center {
		textWidth := d.MeasureString(text).Round()
		x = posX - textWidth/2
	} else {
		x = posX
	}
	y = posY + metrics.Ascent.Round()

	d.Dot = fixed.P(x, y)
	d.DrawString(text)

	textWidth := d.MeasureString(text).Round()
	textHeight := metrics.Ascent.Round() + metrics.Descent.Round()

	finishX = x + textWidth
	if center {
		finishY = (y - metrics.Ascent.Round()) + textHeight
	} else {
		finishY = posY + textHeight
	}

	return
}

// measureText returns the advance width of text in pixels.
func measureText(face font.Face, text string) int {
	d := &font.Drawer{Face: face}
	return d.MeasureString(text).Round()
}

// loadImage decodes an image file (png/jpg/gif, or svg rasterized at its
// intrinsic size) and caches the RGBA result by path.
func loadImage(filePath string) (*image.RGBA, int, int, error) {
	if cachedImg, ok := imageCache[filePath]; ok {
		bounds := cachedImg.Bounds()
		return cachedImg, bounds.Dx(), bounds.Dy(), nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))

	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	var img image.Image

	switch ext {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".gif":
		img, err = gif.Decode(f)
	case ".svg":
		icon, rerr := oksvg.ReadIconStream(f)
		if rerr != nil {
			return nil, 0, 0, rerr
		}
		w := int(icon.ViewBox.W)
		h := int(icon.ViewBox.H)
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		icon.SetTarget(0, 0, float64(w), float64(h))
		scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
		dasher := rasterx.NewDasher(w, h, scanner)
		icon.Draw(dasher, 1.0)
		imageCache[filePath] = rgba
		return rgba, w, h, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported image format: %s", ext)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	imageCache[filePath] = rgba
	return rgba, bounds.Dx(), bounds.Dy(), nil
}

// drawSVG rasterizes an SVG file at the target size and blits it at (x0,y0).
// Rendered results are cached per path and size.
func drawSVG(frame *image.RGBA, svgPath string, x0, y0, targetWidth, targetHeight int) error {
	cacheKey := fmt.Sprintf("%s_%d_%d", svgPath, targetWidth, targetHeight)
	if cachedImg, ok := svgCache[cacheKey]; ok {
		copyImageToImageAt(frame, cachedImg, x0, y0)
		return nil
	}

	svgFile, err := os.Open(svgPath)
	if err != nil {
		return err
	}
	defer svgFile.Close()

	icon, err := oksvg.ReadIconStream(svgFile)
	if err != nil {
		return err
	}
	if targetWidth == 0 {
		targetWidth = int(icon.ViewBox.W)
	}
	if targetHeight == 0 {
		targetHeight = int(icon.ViewBox.H)
	}
	icon.SetTarget(0, 0, float64(targetWidth), float64(targetHeight))

	img := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	scanner := rasterx.NewScannerGV(targetWidth, targetHeight, img, img.Bounds())
	dasher := rasterx.NewDasher(targetWidth, targetHeight, scanner)
	icon.Draw(dasher, 1.0)

	svgCache[cacheKey] = img
	copyImageToImageAt(frame, img, x0, y0)
	return nil
}

// copyImageToImageAt alpha-blends src onto frame at (x0,y0). Fully opaque
// pixels are copied, fully transparent ones skipped, everything else mixed
// with the over operator.
func copyImageToImageAt(frame *image.RGBA, src *image.RGBA, x0, y0 int) {
	if frame == nil || src == nil {
		return
	}
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sample := src.RGBAAt(src.Bounds().Min.X+x, src.Bounds().Min.Y+y)
			if sample.A == 0 {
				continue
			}
			if sample.A == 255 {
				frame.SetRGBA(x0+x, y0+y, sample)
				continue
			}
			dst := frame.RGBAAt(x0+x, y0+y)
			a := uint16(sample.A)
			invA := uint16(255 - sample.A)
			outR := (uint16(sample.R)*a + uint16(dst.R)*invA) / 255
			outG := (uint16(sample.G)*a + uint16(dst.G)*invA) / 255
			outB := (uint16(sample.B)*a + uint16(dst.B)*invA) / 255
			outA := uint8(uint16(sample.A) + (uint16(dst.A)*invA)/255)
			frame.SetRGBA(x0+x, y0+y, color.RGBA{uint8(outR), uint8(outG), uint8(outB), outA})
		}
	}
}

// scaleImage resamples src to w x h with Catmull-Rom, good enough for
// album art that only changes on a song push.
func scaleImage(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// fillFrame floods the whole frame with one color.
func fillFrame(frame *image.RGBA, c color.RGBA) {
	pix := frame.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

// fillRect fills an axis-aligned rectangle.
func fillRect(img *image.RGBA, x0, y0, width, height int, c color.RGBA) {
	for y := y0; y < y0+height; y++ {
		for x := x0; x < x0+width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// outlineRect strokes the border of [x0,y0]..[x1,y1] inward, thickness px.
func outlineRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA, thickness int) {
	w := x1 - x0 + 1
	h := y1 - y0 + 1
	for t := 0; t < thickness; t++ {
		fillRect(img, x0, y0+t, w, 1, c)
		fillRect(img, x0, y1-t, w, 1, c)
		fillRect(img, x0+t, y0, 1, h, c)
		fillRect(img, x1-t, y0, 1, h, c)
	}
}

// drawRoundedRect traces a rounded rectangle path on the graphic context.
func drawRoundedRect(gc *draw2dimg.GraphicContext, x, y, w, h, r float64) {
	gc.MoveTo(x+r, y)
	gc.LineTo(x+w-r, y)
	gc.ArcTo(x+w-r, y+r, r, r, -90, 90)
	gc.LineTo(x+w, y+h-r)
	gc.ArcTo(x+w-r, y+h-r, r, r, 0, 90)
	gc.LineTo(x+r, y+h)
	gc.ArcTo(x+r, y+h-r, r, r, 90, 90)
	gc.LineTo(x, y+r)
	gc.ArcTo(x+r, y+r, r, r, 180, 90)
	gc.Close()
}

// fillRoundedRect fills a rounded rectangle on img.
func fillRoundedRect(img *image.RGBA, x, y, w, h, r float64, c color.RGBA) {
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(c)
	drawRoundedRect(gc, x, y, w, h, r)
	gc.Fill()
}

// strokeRoundedRect strokes a rounded rectangle outline on img.
func strokeRoundedRect(img *image.RGBA, x, y, w, h, r, lineWidth float64, c color.RGBA) {
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(c)
	gc.SetLineWidth(lineWidth)
	drawRoundedRect(gc, x, y, w, h, r)
	gc.Stroke()
}

// drawSignalBars draws a 4-bar wifi strength glyph. The SVG is generated
// once per strength level, written to /tmp and rasterized through the
// normal image cache.
func drawSignalBars(frame *image.RGBA, x0, y0 int, strength float64) {
	xBarSize := 4
	yBarSize := 10
	barSpace := 1
	numBars := 4
	yMinHeight := 3
	strengthInt := int(math.Ceil(strength * float64(numBars)))
	fn := "/tmp/leeloo-signal-" + strconv.Itoa(strengthInt) + ".svg"

	if _, err := os.Stat(fn); err != nil {
		var buf bytes.Buffer
		canvas := svg.New(&buf)
		canvas.Start(xBarSize*numBars+barSpace*(numBars-1), yBarSize+yMinHeight)
		onHex := fmt.Sprintf("#%02X%02X%02X", LEELOO_LAVENDER.R, LEELOO_LAVENDER.G, LEELOO_LAVENDER.B)
		offColor := dimColor(LEELOO_LAVENDER)
		offHex := fmt.Sprintf("#%02X%02X%02X", offColor.R, offColor.G, offColor.B)
		for i := 0; i < numBars; i++ {
			fill := offHex
			if i < strengthInt {
				fill = onHex
			}
			canvas.Roundrect(i*xBarSize+i*barSpace, yBarSize/4*(4-i), xBarSize, yBarSize/4*i+yMinHeight, 1, 1, "fill:"+fill)
		}
		canvas.End()
		if err := os.WriteFile(fn, buf.Bytes(), 0644); err != nil {
			log.Printf("signal glyph write: %v", err)
			return
		}
	}

	img, _, _, err := loadImage(fn)
	if err != nil {
		log.Printf("signal glyph load: %v", err)
		return
	}
	copyImageToImageAt(frame, img, x0, y0)
}

// saveFrameToPng dumps a frame for debugging.
func saveFrameToPng(frame *image.RGBA, filename string) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outFile.Close()
	return png.Encode(outFile, frame)
}
