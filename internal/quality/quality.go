// Package quality ranks candidate face images by sharpness.
package quality

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Score returns the variance of the Laplacian (ksize 1, default reflect-101
// border) of the image's 8-bit grayscale. Higher is sharper. An empty image,
// or one that cannot be converted, scores 0.
func Score(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return 0
	}

	gray, err := toGray(img)
	if err != nil {
		return 0
	}
	defer gray.Close()

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(laplacian, &mean, &stdDev)

	sd := stdDev.GetDoubleAt(0, 0)
	return sd * sd
}

// Best returns the index of the highest scoring image, or -1 for an empty
// slice. Ties keep the earliest index.
func Best(images []image.Image) int {
	best := -1
	bestScore := math.Inf(-1)
	for i, img := range images {
		s := Score(img)
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// toGray returns a single channel CV_8U Mat. Tightly packed gray images are
// copied as is; everything else goes through BGR (ImageToMatRGB's channel
// order) and BT.601.
func toGray(img image.Image) (gocv.Mat, error) {
	if g, ok := img.(*image.Gray); ok && g.Stride == g.Rect.Dx() {
		return gocv.ImageGrayToMatGray(g)
	}

	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}
