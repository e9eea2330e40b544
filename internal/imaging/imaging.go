// Package imaging holds the pixel plumbing shared by enrollment, the camera
// sources and the HTTP surface: decoding, face cropping and PNG encoding.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	// registered decoders for camera frames and uploads
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

const (
	// FaceSize is the edge length of a stored face image.
	FaceSize = 256
	// FaceMargin is added on every side of a detection box, as a fraction
	// of the box's width (horizontally) and height (vertically).
	FaceMargin = 0.2
)

// Decode reads a JPEG, PNG or BMP image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode image: empty image")
	}
	return img, nil
}

// ExpandBox grows box by FaceMargin and clamps it to bounds.
func ExpandBox(box provider.BoundingBox, bounds image.Rectangle) image.Rectangle {
	marginW := int(float64(box.Width()) * FaceMargin)
	marginH := int(float64(box.Height()) * FaceMargin)

	r := image.Rect(
		box.X1-marginW,
		box.Y1-marginH,
		box.X2+marginW,
		box.Y2+marginH,
	)
	return r.Intersect(bounds)
}

// CropFace cuts the expanded box out of frame and resizes it to
// FaceSize x FaceSize. It reports false when the clamped box is empty, in
// which case the caller keeps the whole frame.
func CropFace(frame image.Image, box provider.BoundingBox) (image.Image, bool) {
	r := ExpandBox(box, frame.Bounds())
	if r.Empty() {
		return nil, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, FaceSize, FaceSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), frame, r, draw.Src, nil)
	return dst, true
}

// EncodePNG returns the PNG encoding of img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
