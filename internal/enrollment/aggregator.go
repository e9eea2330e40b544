// Package enrollment turns a stream of camera frames into one identity
// record: it collects one embedding per frame that shows a face, then
// averages them and stores the sharpest frame's face crop.
package enrollment

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/imaging"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
	"github.com/saturnino-fabrica-de-software/kinface/internal/quality"
)

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateReducing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateReducing:
		return "reducing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	StatusReady      = "Enter details and start capture."
	StatusStarting   = "Starting capture process..."
	StatusProcessing = "Processing captured faces..."
	StatusSaved      = "Face saved successfully!"
	StatusNoSamples  = "No faces captured. Try again."
)

const DefaultCaptureLimit = 20

type Config struct {
	// CaptureLimit is the number of accepted frames that completes a session.
	CaptureLimit int
	// MinDetectionScore drops detections the detector is less sure of.
	// Zero accepts everything.
	MinDetectionScore float64
}

func DefaultConfig() Config {
	return Config{CaptureLimit: DefaultCaptureLimit}
}

// Progress reports what a single Feed did.
type Progress struct {
	Detected bool
	Accepted int
	Limit    int
	Done     bool
	Identity *domain.Identity
}

// Aggregator runs one enrollment session at a time. It is safe for
// concurrent use; calls are serialized.
type Aggregator struct {
	mu        sync.Mutex
	provider  provider.FaceProvider
	committer *Committer
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics

	state      State
	status     string
	name       string
	relation   string
	embeddings [][]float32
	frames     []image.Image
}

func NewAggregator(p provider.FaceProvider, committer *Committer, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		provider:  p,
		committer: committer,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		state:     StateIdle,
		status:    StatusReady,
	}
}

// Start begins a fresh session. Any samples from an earlier session are
// dropped.
func (a *Aggregator) Start(name, relation string) error {
	name = strings.TrimSpace(name)
	relation = strings.TrimSpace(relation)
	if name == "" || relation == "" {
		return domain.ErrIllegalArgument
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateCapturing || a.state == StateReducing {
		return domain.ErrSessionActive
	}

	a.clear()
	a.name = name
	a.relation = relation
	a.state = StateCapturing
	a.status = StatusStarting

	a.logger.Info("enrollment started",
		"name", name,
		"relation", relation,
		"capture_limit", a.cfg.CaptureLimit,
	)
	return nil
}

// Feed offers one frame to the running session. Frames without a usable
// face are skipped. The call that accepts the last sample also reduces the
// session and returns the stored identity. Feed keeps a reference to frame,
// so callers must not reuse its pixel buffer.
func (a *Aggregator) Feed(ctx context.Context, frame image.Image) (Progress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateCapturing {
		return Progress{}, domain.ErrNotCapturing
	}

	if len(a.embeddings) >= a.cfg.CaptureLimit {
		n := len(a.embeddings)
		identity, err := a.reduce(ctx)
		return a.progress(false, n, identity), err
	}

	faces := a.detect(ctx, frame)
	if len(faces) == 0 {
		return a.progress(false, len(a.embeddings), nil), nil
	}
	if len(faces) > 1 {
		a.logger.Warn("multiple faces in frame, using the first", "faces", len(faces))
	}

	face := faces[0]
	if len(face.Embedding) != domain.EmbeddingDim {
		a.logger.Warn("skipping face with unexpected embedding length",
			"got", len(face.Embedding),
			"want", domain.EmbeddingDim,
		)
		return a.progress(true, len(a.embeddings), nil), nil
	}
	if face.DetScore < a.cfg.MinDetectionScore {
		a.logger.Debug("skipping low confidence face",
			"det_score", face.DetScore,
			"min", a.cfg.MinDetectionScore,
		)
		return a.progress(true, len(a.embeddings), nil), nil
	}

	a.embeddings = append(a.embeddings, face.Embedding)
	a.frames = append(a.frames, frame)
	a.status = fmt.Sprintf("Capturing... %d/%d", len(a.embeddings), a.cfg.CaptureLimit)

	n := len(a.embeddings)
	if n >= a.cfg.CaptureLimit {
		identity, err := a.reduce(ctx)
		return a.progress(true, n, identity), err
	}

	return a.progress(true, n, nil), nil
}

// Finish reduces whatever has been accepted so far.
func (a *Aggregator) Finish(ctx context.Context) (*domain.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateCapturing {
		return nil, domain.ErrNotCapturing
	}
	return a.reduce(ctx)
}

// Abort drops the running session without storing anything.
func (a *Aggregator) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateCapturing {
		a.logger.Info("enrollment aborted", "name", a.name, "accepted", len(a.embeddings))
		a.metrics.ObserveEnrollment(metrics.EnrollAborted)
	}
	a.clear()
	a.state = StateIdle
	a.status = StatusReady
}

func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Aggregator) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Aggregator) detect(ctx context.Context, frame image.Image) []provider.Face {
	start := time.Now()
	faces, err := a.provider.Detect(ctx, frame)
	took := time.Since(start)

	switch {
	case err != nil:
		a.logger.Warn("face detection failed", slog.Any("error", err))
		a.metrics.ObserveFrame("enroll", metrics.OutcomeError, took)
		return nil
	case len(faces) == 0:
		a.metrics.ObserveFrame("enroll", metrics.OutcomeNoFace, took)
	default:
		a.metrics.ObserveFrame("enroll", metrics.OutcomeFace, took)
	}
	return faces
}

// reduce must be called with mu held and the session capturing.
func (a *Aggregator) reduce(ctx context.Context) (*domain.Identity, error) {
	a.state = StateReducing
	a.status = StatusProcessing
	defer a.clear()

	if len(a.embeddings) == 0 {
		a.state = StateIdle
		a.status = StatusNoSamples
		a.metrics.ObserveEnrollment(metrics.EnrollNoSamples)
		return nil, domain.ErrNoSamplesCaptured
	}

	mean := MeanEmbedding(a.embeddings)
	best := a.frames[quality.Best(a.frames)]
	face := a.faceImage(ctx, best)

	identity, err := a.committer.Commit(ctx, a.name, a.relation, mean, face)
	if err != nil {
		a.state = StateIdle
		a.status = "Error: " + err.Error()
		a.metrics.ObserveEnrollment(metrics.EnrollFailed)
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}

	a.state = StateDone
	a.status = StatusSaved
	a.metrics.ObserveEnrollment(metrics.EnrollCreated)
	a.logger.Info("enrollment finished",
		"identity_id", identity.ID,
		"samples", len(a.embeddings),
	)

	return identity, nil
}

// faceImage crops the first face of frame with a margin. When the frame no
// longer yields a face the whole frame is kept.
func (a *Aggregator) faceImage(ctx context.Context, frame image.Image) image.Image {
	faces, err := a.provider.Detect(ctx, frame)
	if err != nil {
		a.logger.Warn("re-detection failed, keeping full frame", slog.Any("error", err))
		return frame
	}
	if len(faces) == 0 {
		a.logger.Warn("no face on best frame, keeping full frame")
		return frame
	}

	crop, ok := imaging.CropFace(frame, faces[0].BoundingBox)
	if !ok {
		return frame
	}
	return crop
}

func (a *Aggregator) progress(detected bool, accepted int, identity *domain.Identity) Progress {
	return Progress{
		Detected: detected,
		Accepted: accepted,
		Limit:    a.cfg.CaptureLimit,
		Done:     a.state == StateDone,
		Identity: identity,
	}
}

func (a *Aggregator) clear() {
	a.embeddings = nil
	a.frames = nil
}

// MeanEmbedding is the element-wise mean of equally long embeddings.
func MeanEmbedding(embeddings [][]float32) []float32 {
	if len(embeddings) == 0 {
		return nil
	}

	sum := make([]float64, len(embeddings[0]))
	for _, e := range embeddings {
		for i, v := range e {
			sum[i] += float64(v)
		}
	}

	n := float64(len(embeddings))
	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = float32(v / n)
	}
	return mean
}
