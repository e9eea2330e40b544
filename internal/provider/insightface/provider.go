package insightface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

const jpegQuality = 90

// Provider implements provider.FaceProvider against the insightface sidecar
type Provider struct {
	client *Client
}

func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Detect encodes the frame as JPEG and returns the detector's faces in the
// order the detector produced them.
func (p *Provider) Detect(ctx context.Context, frame image.Image) ([]provider.Face, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFrame, err)
	}

	resp, err := p.client.Detect(ctx, base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	// The encoded JPEG starts at (0,0); boxes are returned in frame coordinates.
	origin := frame.Bounds().Min
	faces := make([]provider.Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		faces = append(faces, provider.Face{
			BoundingBox: provider.BoundingBox{
				X1: origin.X + int(f.BBox[0]),
				Y1: origin.Y + int(f.BBox[1]),
				X2: origin.X + int(f.BBox[2]),
				Y2: origin.Y + int(f.BBox[3]),
			},
			Embedding: f.Embedding,
			DetScore:  f.DetScore,
		})
	}

	return faces, nil
}

var _ provider.FaceProvider = (*Provider)(nil)
