package enrollment

import (
	"context"
	"image"
	"sync"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/imaging"
)

// IdentityCreator persists a finished enrollment: the face image first, then
// the record that points at it.
type IdentityCreator interface {
	Create(ctx context.Context, name, relation string, embedding []float32, facePNG []byte) (*domain.Identity, error)
}

// Committer serializes persistence across aggregators so one enrollment's
// image write and record insert finish before the next one starts.
type Committer struct {
	mu      sync.Mutex
	creator IdentityCreator
}

func NewCommitter(creator IdentityCreator) *Committer {
	return &Committer{creator: creator}
}

func (c *Committer) Commit(ctx context.Context, name, relation string, embedding []float32, face image.Image) (*domain.Identity, error) {
	png, err := imaging.EncodePNG(face)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.creator.Create(ctx, name, relation, embedding, png)
}
