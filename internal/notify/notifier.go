// Package notify delivers short spoken prompts without ever blocking the
// frame loop. Only one prompt plays at a time; prompts that arrive while
// another is playing are dropped.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
)

// Speaker plays one prompt and returns when it has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Notifier struct {
	speaker  Speaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	speaking atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewNotifier(speaker Speaker, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		speaker: speaker,
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Speak starts playing text in the background and reports whether it was
// accepted.
func (n *Notifier) Speak(text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped {
		return false
	}
	if !n.speaking.CompareAndSwap(false, true) {
		n.logger.Debug("notification dropped, already speaking", "text", text)
		n.metrics.NotificationDropped()
		return false
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer n.speaking.Store(false)

		if err := n.speaker.Speak(n.ctx, text); err != nil {
			n.logger.Warn("notification failed", "text", text, slog.Any("error", err))
		}
	}()
	return true
}

// Speaking reports whether a prompt is currently playing.
func (n *Notifier) Speaking() bool {
	return n.speaking.Load()
}

// Stop cancels the prompt in flight and waits for it. Later calls to Speak
// are ignored.
func (n *Notifier) Stop() {
	n.mu.Lock()
	n.stopped = true
	n.mu.Unlock()

	n.cancel()
	n.wg.Wait()
}

func VerificationSuccess(name, relation string) string {
	return fmt.Sprintf("Welcome %s! I recognize you as my %s.", name, relation)
}

func UnknownFace() string {
	return "This face is not in your database. Please carefully verify their identity."
}

func FaceDetected() string {
	return "Please click the button to start adding this person."
}

func NoFaceDetected() string {
	return "Face is not visible. Please adjust your position."
}
