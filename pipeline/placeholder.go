package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const placeholderSize = 512

// placeholderDataURL renders the deterministic "generation failed" graphic
// used when an image exhausts its retries. The output depends only on the
// constants here, so identical failures produce identical bytes.
func placeholderDataURL() string {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))

	background := color.RGBA{R: 0xF3, G: 0xF4, B: 0xF6, A: 0xFF}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	border := color.RGBA{R: 0xD1, G: 0xD5, B: 0xDB, A: 0xFF}
	for x := 0; x < placeholderSize; x++ {
		img.Set(x, 0, border)
		img.Set(x, placeholderSize-1, border)
	}
	for y := 0; y < placeholderSize; y++ {
		img.Set(0, y, border)
		img.Set(placeholderSize-1, y, border)
	}

	drawCenteredLine(img, "IMAGE GENERATION FAILED", placeholderSize/2-8)
	drawCenteredLine(img, "Use regenerate to retry this scene", placeholderSize/2+12)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA image cannot fail in practice; keep the
		// contract of never returning an error from the fallback path.
		return "data:image/png;base64,"
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func drawCenteredLine(img *image.RGBA, text string, y int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I((placeholderSize - width) / 2),
			Y: fixed.I(y),
		},
	}
	drawer.DrawString(text)
}
