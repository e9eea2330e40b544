package enrollment

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
)

func newTestBatch(p provider.FaceProvider, creator IdentityCreator, limit int) *Batch {
	return NewBatch(p, NewCommitter(creator), Config{CaptureLimit: limit}, testLogger(), nil)
}

func frames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = checkerboard(4, 4)
	}
	return out
}

func TestBatch_StopsAtLimit(t *testing.T) {
	p := alwaysFace(axis(0, 1))
	creator := &recordingCreator{}
	var seen []Progress

	identity, err := newTestBatch(p, creator, 3).Enroll(context.Background(), "Alice", "Friend", frames(5), func(pr Progress) {
		seen = append(seen, pr)
	})

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "Alice", identity.Name)
	require.Len(t, seen, 3)
	assert.Equal(t, 3, seen[2].Accepted)
	assert.True(t, seen[2].Done)
	require.Len(t, creator.calls, 1)
	// three detections plus one re-detection for the crop
	assert.Equal(t, 4, p.calls)
}

func TestBatch_ReducesPartialRun(t *testing.T) {
	creator := &recordingCreator{}

	identity, err := newTestBatch(alwaysFace(axis(1, 0.5)), creator, 20).
		Enroll(context.Background(), "Bob", "Brother", frames(2), nil)

	require.NoError(t, err)
	assert.Equal(t, "Bob", identity.Name)
	require.Len(t, creator.calls, 1)
	assert.Equal(t, float32(0.5), creator.calls[0].embedding[1])
}

func TestBatch_NoFaces(t *testing.T) {
	p := &scriptedProvider{detect: func(int, image.Image) ([]provider.Face, error) {
		return nil, nil
	}}
	creator := &recordingCreator{}

	_, err := newTestBatch(p, creator, 5).Enroll(context.Background(), "Alice", "Friend", frames(3), nil)

	assert.ErrorIs(t, err, domain.ErrNoSamplesCaptured)
	assert.Empty(t, creator.calls)
}

func TestBatch_InvalidDetails(t *testing.T) {
	_, err := newTestBatch(alwaysFace(axis(0, 1)), &recordingCreator{}, 5).
		Enroll(context.Background(), "", "Friend", frames(1), nil)

	assert.ErrorIs(t, err, domain.ErrIllegalArgument)
}

func TestBatch_CommitFailure(t *testing.T) {
	creator := &recordingCreator{err: errors.New("disk full")}

	_, err := newTestBatch(alwaysFace(axis(0, 1)), creator, 1).
		Enroll(context.Background(), "Alice", "Friend", frames(1), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := &recordingCreator{}

	_, err := newTestBatch(alwaysFace(axis(0, 1)), creator, 5).Enroll(ctx, "Alice", "Friend", frames(2), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, creator.calls)
}

func TestBatch_RunsAreIndependent(t *testing.T) {
	creator := &recordingCreator{}
	b := newTestBatch(alwaysFace(axis(0, 1)), creator, 20)

	_, err := b.Enroll(context.Background(), "Alice", "Friend", frames(2), nil)
	require.NoError(t, err)

	b.provider = alwaysFace(axis(1, 1))
	_, err = b.Enroll(context.Background(), "Bob", "Brother", frames(2), nil)
	require.NoError(t, err)

	require.Len(t, creator.calls, 2)
	assert.Equal(t, float32(0), creator.calls[1].embedding[0])
	assert.Equal(t, float32(1), creator.calls[1].embedding[1])
}
