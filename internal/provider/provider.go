package provider

import (
	"context"
	"image"
)

// FaceProvider detects faces in a frame and produces one embedding per face.
// Embeddings are L2-normalized and domain.EmbeddingDim long. Order is the
// detector's own; callers that need a single face take the first one.
type FaceProvider interface {
	Detect(ctx context.Context, frame image.Image) ([]Face, error)
}

// Face is a single detection. It is never persisted directly.
type Face struct {
	BoundingBox BoundingBox `json:"bbox"`
	Embedding   []float32   `json:"-"`
	DetScore    float64     `json:"det_score"`
}

// BoundingBox holds corner coordinates in frame pixels.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b BoundingBox) Width() int  { return b.X2 - b.X1 }
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Rect returns the box as an image.Rectangle (canonicalized).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}
