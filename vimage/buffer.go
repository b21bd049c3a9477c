package vimage

import (
	"image"
)

// ImageToUInt8Buffer reads an image into a byte slice in interleaved RGB
// order, the layout expected by uint8 model input tensors.
func ImageToUInt8Buffer(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	output := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*w + x) * 3
			output[idx+0] = uint8(r >> 8)
			output[idx+1] = uint8(g >> 8)
			output[idx+2] = uint8(b >> 8)
		}
	}
	return output
}

// ImageToFloat32Buffer reads an image into a float32 slice in interleaved
// RGB order, normalizing each channel value v to (v - mean) / std.
func ImageToFloat32Buffer(img image.Image, mean, std float32) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	output := make([]float32, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*w + x) * 3
			output[idx+0] = (float32(r>>8) - mean) / std
			output[idx+1] = (float32(g>>8) - mean) / std
			output[idx+2] = (float32(b>>8) - mean) / std
		}
	}
	return output
}

// ImageToNCHWFloat32Buffer is like ImageToFloat32Buffer but lays channels
// out planar (all R, then all G, then all B), the layout expected by NCHW
// model inputs.
func ImageToNCHWFloat32Buffer(img image.Image, mean, std float32) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := w * h
	output := make([]float32, plane*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*w + x
			output[idx] = (float32(r>>8) - mean) / std
			output[plane+idx] = (float32(g>>8) - mean) / std
			output[2*plane+idx] = (float32(b>>8) - mean) / std
		}
	}
	return output
}
