package landmark

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestPlot(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	sets := []Set{
		{
			{X: 0.25, Y: 0.25},
			{X: 0.5, Y: 0.5},
			{X: 0.75, Y: 0.5},
		},
	}
	outName := filepath.Join(t.TempDir(), "plot.png")
	test.That(t, Plot(img, sets, outName), test.ShouldBeNil)

	f, err := os.Open(outName)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, f.Close(), test.ShouldBeNil)
	}()
	decoded, err := png.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Bounds(), test.ShouldResemble, image.Rect(0, 0, 32, 32))
}
