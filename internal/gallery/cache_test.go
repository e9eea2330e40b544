package gallery

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Gallery(ctx context.Context) ([]domain.GalleryEntry, []int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.GalleryEntry), args.Get(1).([]int64), args.Error(2)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var alice = domain.GalleryEntry{ID: 1, Name: "Alice", Relation: "Friend", Embedding: []float32{1}}

func TestCache_ServesFromMemory(t *testing.T) {
	src := new(MockSource)
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice}, []int64(nil), nil).Once()

	c := New(src, time.Minute, discardLogger(), nil)

	for i := 0; i < 3; i++ {
		got, err := c.Entries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.GalleryEntry{alice}, got)
	}
	src.AssertNumberOfCalls(t, "Gallery", 1)
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	bob := domain.GalleryEntry{ID: 2, Name: "Bob", Embedding: []float32{-1}}

	src := new(MockSource)
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice}, []int64(nil), nil).Once()
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice, bob}, []int64(nil), nil).Once()

	c := New(src, time.Minute, discardLogger(), nil)

	got, err := c.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	c.Invalidate()

	got, err = c.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	src.AssertExpectations(t)
}

func TestCache_ZeroTTLAlwaysLoads(t *testing.T) {
	src := new(MockSource)
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice}, []int64(nil), nil)

	c := New(src, 0, discardLogger(), nil)
	_, _ = c.Entries(context.Background())
	_, _ = c.Entries(context.Background())

	src.AssertNumberOfCalls(t, "Gallery", 2)
	c.Invalidate()
}

func TestCache_LogsCorruptRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	src := new(MockSource)
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice}, []int64{7}, nil)

	got, err := New(src, time.Minute, logger, nil).Entries(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, buf.String(), "identity_id=7")
	assert.Contains(t, buf.String(), "corrupt embedding")
}

func TestCache_ErrorIsNotCached(t *testing.T) {
	src := new(MockSource)
	src.On("Gallery", mock.Anything).Return(nil, nil, errors.New("db down")).Once()
	src.On("Gallery", mock.Anything).Return([]domain.GalleryEntry{alice}, []int64(nil), nil).Once()

	c := New(src, time.Minute, discardLogger(), nil)

	_, err := c.Entries(context.Background())
	require.Error(t, err)

	got, err := c.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
