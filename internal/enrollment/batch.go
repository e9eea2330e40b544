package enrollment

import (
	"context"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

// Batch enrolls a person from a finite set of frames, such as an upload or
// a directory of stills. Every call runs its own Aggregator, so batches
// never share samples with each other or with the live session. Only the
// Committer is shared.
type Batch struct {
	provider  provider.FaceProvider
	committer *Committer
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewBatch(p provider.FaceProvider, committer *Committer, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Batch {
	return &Batch{
		provider:  p,
		committer: committer,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// Enroll feeds frames in order until the capture limit is reached. If the
// frames run out first, whatever was accepted is reduced. onFrame, when
// set, is called after every frame.
func (b *Batch) Enroll(
	ctx context.Context,
	name, relation string,
	frames []image.Image,
	onFrame func(Progress),
) (*domain.Identity, error) {
	agg := NewAggregator(b.provider, b.committer, b.cfg, b.logger, b.metrics)
	if err := agg.Start(name, relation); err != nil {
		return nil, err
	}

	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			agg.Abort()
			return nil, err
		}

		p, err := agg.Feed(ctx, frame)
		if onFrame != nil {
			onFrame(p)
		}
		if err != nil {
			return nil, err
		}
		if p.Done {
			return p.Identity, nil
		}
	}

	return agg.Finish(ctx)
}
