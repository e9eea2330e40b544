// Package recognition matches the face in a live frame against the gallery.
package recognition

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/matcher"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

type Gallery interface {
	Entries(ctx context.Context) ([]domain.GalleryEntry, error)
}

// Recognition is the outcome for one frame. Box and Result are only
// meaningful when Detected is set.
type Recognition struct {
	Detected bool                 `json:"detected"`
	Faces    int                  `json:"faces"`
	Box      provider.BoundingBox `json:"bbox"`
	Result   domain.MatchResult   `json:"result"`
}

type Recognizer struct {
	provider provider.FaceProvider
	gallery  Gallery
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewRecognizer(p provider.FaceProvider, gallery Gallery, logger *slog.Logger, m *metrics.Metrics) *Recognizer {
	return &Recognizer{
		provider: p,
		gallery:  gallery,
		logger:   logger,
		metrics:  m,
	}
}

// MatchFrame detects faces in frame and matches the first one. A detector
// failure counts as a frame without faces; only a gallery failure is
// returned.
func (r *Recognizer) MatchFrame(ctx context.Context, frame image.Image) (Recognition, error) {
	start := time.Now()
	faces, err := r.provider.Detect(ctx, frame)
	took := time.Since(start)
	if err != nil {
		r.logger.Warn("face detection failed", slog.Any("error", err))
		r.metrics.ObserveFrame("recognize", metrics.OutcomeError, took)
		return Recognition{}, nil
	}
	if len(faces) == 0 {
		r.metrics.ObserveFrame("recognize", metrics.OutcomeNoFace, took)
		return Recognition{}, nil
	}
	r.metrics.ObserveFrame("recognize", metrics.OutcomeFace, took)

	if len(faces) > 1 {
		r.logger.Debug("multiple faces in frame, matching the first", "faces", len(faces))
	}

	gallery, err := r.gallery.Entries(ctx)
	if err != nil {
		return Recognition{}, fmt.Errorf("load gallery: %w", err)
	}

	face := faces[0]
	result := matcher.Match(face.Embedding, gallery)
	r.metrics.ObserveMatch(result)

	return Recognition{
		Detected: true,
		Faces:    len(faces),
		Box:      face.BoundingBox,
		Result:   result,
	}, nil
}
