package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// composeGrid tiles cells left to right, top to bottom onto a white
// sheet. Cells beyond rows*cols are dropped; unused slots stay blank.
func composeGrid(cells []image.Image, rows, cols, cellW, cellH int) image.Image {
	sheet := image.NewRGBA(image.Rect(0, 0, cols*cellW, rows*cellH))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, cell := range cells {
		if i >= rows*cols {
			break
		}
		x := (i % cols) * cellW
		y := (i / cols) * cellH
		slot := image.Rect(x, y, x+cellW, y+cellH)
		draw.Draw(sheet, slot, cell, cell.Bounds().Min, draw.Src)
	}
	return sheet
}

// placeholderImage draws a white panel with a centered gray message,
// used where a chart has nothing to show
func placeholderImage(w, h int, msg string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 107, G: 114, B: 128, A: 255}),
		Face: basicfont.Face7x13,
	}
	width := drawer.MeasureString(msg).Ceil()
	drawer.Dot = fixed.P((w-width)/2, h/2)
	drawer.DrawString(msg)
	return img
}

// dataURL encodes the image as an inline PNG data URL
func dataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
