package mock

import (
	"context"
	"crypto/sha256"
	"image"
	"image/color"
	"math"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

// Provider implements provider.FaceProvider for tests and development.
// A frame with uniform brightness has no face; any other frame has exactly
// one face in its central region with an embedding derived from its pixels.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Detect(ctx context.Context, frame image.Image) ([]provider.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := frame.Bounds()
	if b.Empty() {
		return nil, domain.ErrInvalidImage
	}

	gray, uniform := grayBytes(frame)
	if uniform {
		return nil, nil
	}

	w, h := b.Dx(), b.Dy()
	return []provider.Face{
		{
			BoundingBox: provider.BoundingBox{
				X1: b.Min.X + w/5,
				Y1: b.Min.Y + h/5,
				X2: b.Min.X + w*4/5,
				Y2: b.Min.Y + h*4/5,
			},
			Embedding: generateEmbedding(gray),
			DetScore:  0.99,
		},
	}, nil
}

func grayBytes(img image.Image) ([]byte, bool) {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy())
	uniform := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if len(out) > 0 && v != out[0] {
				uniform = false
			}
			out = append(out, v)
		}
	}
	return out, uniform
}

// generateEmbedding derives a deterministic unit embedding from the pixel hash.
func generateEmbedding(data []byte) []float32 {
	hash := sha256.Sum256(data)
	embedding := make([]float64, domain.EmbeddingDim)
	hashLen := len(hash)

	for i := 0; i < domain.EmbeddingDim; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, domain.EmbeddingDim)
	for i := range embedding {
		out[i] = float32(embedding[i] / norm)
	}

	return out
}

var _ provider.FaceProvider = (*Provider)(nil)
