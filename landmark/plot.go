package landmark

import (
	"image"

	"github.com/fogleman/gg"
)

// Plot draws every landmark set over the image and writes the result to a
// PNG at outName. Landmarks are drawn as translucent dots with the set's
// bounding box around them.
func Plot(img image.Image, sets []Set, outName string) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, 0, 0)

	for _, s := range sets {
		dc.SetRGBA(0, 1, 0, 0.6)
		for i := range s {
			p := s.PixelPoint(i, w, h)
			dc.DrawCircle(float64(p.X), float64(p.Y), 1.5)
			dc.Fill()
		}
		box := s.Bounds(w, h)
		dc.SetRGBA(0, 0, 1, 0.8)
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
		dc.Stroke()
	}
	return dc.SavePNG(outName)
}
