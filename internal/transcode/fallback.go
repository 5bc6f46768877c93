package transcode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 640
	cardHeight = 360
)

// RenderFallbackCard draws the placeholder image served instead of a clip
// that could not be transcoded: a dark gradient with an explanatory caption.
func RenderFallbackCard() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))

	top := color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	bottom := color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	for y := 0; y < cardHeight; y++ {
		t := float64(y) / float64(cardHeight-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		for x := 0; x < cardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	drawCentered(img, "Preview not available", cardHeight/2-15,
		color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff})
	drawCentered(img, "Clip may be too short or corrupted", cardHeight/2+15,
		color.RGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff})
	drawCentered(img, "EventSense AI", cardHeight-20,
		color.RGBA{R: 0x47, G: 0x55, B: 0x69, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawCentered(img *image.RGBA, text string, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((cardWidth-width)/2, y)
	d.DrawString(text)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
