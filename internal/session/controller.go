// Package session drives the camera: one goroutine reads a frame per tick
// and feeds it to enrollment or recognition depending on the active mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/kinface/internal/camera"
	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/notify"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

const (
	StatusFaceDetected = "Face detected! Press 'Start Capture' to begin"
	StatusNoFace       = "No face detected"
	StatusNeedDetails  = "Please enter name and relation first"
	StatusCameraError  = "Error: Unable to access camera"
)

const (
	DefaultFrameInterval = 66 * time.Millisecond
	DefaultSavedHold     = 2 * time.Second
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeEnrollment
	ModeRecognition
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEnrollment:
		return "enrollment"
	case ModeRecognition:
		return "recognition"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type Command int

const (
	// CmdPreviewEnrollment opens the camera for enrollment without
	// capturing yet.
	CmdPreviewEnrollment Command = iota
	CmdStartEnrollment
	CmdStartRecognition
	CmdSwitchCamera
	CmdStop
)

var commandNames = map[Command]string{
	CmdPreviewEnrollment: "preview_enrollment",
	CmdStartEnrollment:   "start_enrollment",
	CmdStartRecognition:  "start_recognition",
	CmdSwitchCamera:      "switch_camera",
	CmdStop:              "stop",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand maps a command name such as "start_recognition" back to its
// value.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, domain.ErrBadRequest.WithError(fmt.Errorf("unknown command %q", name))
}

// Request carries a command and, for CmdStartEnrollment, the person's
// details.
type Request struct {
	Command  Command
	Name     string
	Relation string
}

type Publisher interface {
	Publish(topic ws.Topic, eventType ws.EventType, data interface{})
}

type Speaker interface {
	Speak(text string) bool
}

type Config struct {
	FrameInterval time.Duration
	// SavedHold is how long the success message stays up before the
	// enrollment screen resets.
	SavedHold time.Duration
}

func DefaultConfig() Config {
	return Config{
		FrameInterval: DefaultFrameInterval,
		SavedHold:     DefaultSavedHold,
	}
}

// Snapshot is the externally visible controller state.
type Snapshot struct {
	Mode            string                   `json:"mode"`
	Camera          int                      `json:"camera"`
	Status          string                   `json:"status"`
	Confidence      string                   `json:"confidence,omitempty"`
	EnrollmentState string                   `json:"enrollment_state"`
	Last            *recognition.Recognition `json:"last,omitempty"`
}

type Controller struct {
	open       camera.Opener
	provider   provider.FaceProvider
	aggregator *enrollment.Aggregator
	recognizer *recognition.Recognizer
	speaker    Speaker
	publisher  Publisher
	cfg        Config
	logger     *slog.Logger

	// cmdMu serializes commands and owns cancel and done. mu guards the
	// rest and is never held across a camera read or a detector call.
	cmdMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	mode        Mode
	cameraIndex int
	cam         camera.Camera
	status      string
	confidence  string
	last        *recognition.Recognition
	savedAt     time.Time
	enrollState enrollment.State
}

func NewController(
	open camera.Opener,
	p provider.FaceProvider,
	aggregator *enrollment.Aggregator,
	recognizer *recognition.Recognizer,
	speaker Speaker,
	publisher Publisher,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	return &Controller{
		open:       open,
		provider:   p,
		aggregator: aggregator,
		recognizer: recognizer,
		speaker:    speaker,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		status:     enrollment.StatusReady,
	}
}

func (c *Controller) Handle(req Request) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.logger.Debug("session command", "command", req.Command.String())

	switch req.Command {
	case CmdPreviewEnrollment:
		return c.enter(ModeEnrollment)
	case CmdStartEnrollment:
		return c.startEnrollment(req.Name, req.Relation)
	case CmdStartRecognition:
		return c.enter(ModeRecognition)
	case CmdSwitchCamera:
		return c.switchCamera()
	case CmdStop:
		c.stop()
		return nil
	default:
		return domain.ErrBadRequest.WithError(fmt.Errorf("unknown command %s", req.Command))
	}
}

// Stop ends the frame loop and releases the camera. Safe to call more than
// once.
func (c *Controller) Stop() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.stop()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Mode:            c.mode.String(),
		Camera:          c.cameraIndex,
		Status:          c.status,
		Confidence:      c.confidence,
		EnrollmentState: c.enrollState.String(),
		Last:            c.last,
	}
}

func (c *Controller) startEnrollment(name, relation string) error {
	if err := c.enter(ModeEnrollment); err != nil {
		return err
	}

	err := c.aggregator.Start(name, relation)
	state := c.aggregator.State()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.enrollState = state
	switch {
	case errors.Is(err, domain.ErrIllegalArgument):
		c.setStatus(StatusNeedDetails)
		return err
	case err != nil:
		return err
	}

	c.setStatus(enrollment.StatusStarting)
	return nil
}

// enter switches to mode, opening the camera unless that mode is already
// running.
func (c *Controller) enter(mode Mode) error {
	c.mu.Lock()
	current := c.mode
	c.mu.Unlock()
	if c.cancel != nil && current == mode {
		return nil
	}

	c.stop()

	c.mu.Lock()
	index := c.cameraIndex
	c.mu.Unlock()

	cam, err := c.openCamera(index)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done

	c.mu.Lock()
	c.cam = cam
	c.mode = mode
	c.confidence = ""
	c.last = nil
	if mode == ModeEnrollment {
		c.setStatus(enrollment.StatusReady)
	} else {
		c.setStatus("")
	}
	c.mu.Unlock()

	c.logger.Info("session started", "mode", mode, "camera", index)
	go c.loop(ctx, done)
	return nil
}

func (c *Controller) switchCamera() error {
	c.mu.Lock()
	c.cameraIndex = 1 - c.cameraIndex
	index := c.cameraIndex
	c.mu.Unlock()
	running := c.cancel != nil

	c.logger.Info("camera switched", "camera", index)
	if !running {
		return nil
	}

	cam, err := c.openCamera(index)
	if err != nil {
		c.stop()
		c.mu.Lock()
		c.setStatus(StatusCameraError)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	old := c.cam
	c.cam = cam
	c.mu.Unlock()

	c.closeCamera(old)
	return nil
}

func (c *Controller) openCamera(index int) (camera.Camera, error) {
	cam, err := c.open(index)
	if err == nil {
		return cam, nil
	}

	c.logger.Error("camera unavailable", "camera", index, slog.Any("error", err))
	c.mu.Lock()
	c.setStatus(StatusCameraError)
	c.mu.Unlock()

	if !errors.Is(err, domain.ErrDeviceUnavailable) {
		err = domain.ErrDeviceUnavailable.WithError(err)
	}
	return nil, err
}

// stop must be called with cmdMu held. The loop's context is cancelled
// before anything else so an in-flight camera read or detector call
// returns at once.
func (c *Controller) stop() {
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	if cancel == nil {
		return
	}

	cancel()
	<-done

	c.mu.Lock()
	cam, mode := c.cam, c.mode
	c.cam = nil
	c.mode = ModeIdle
	c.mu.Unlock()

	c.closeCamera(cam)

	if mode == ModeEnrollment {
		c.aggregator.Abort()
		c.mu.Lock()
		c.enrollState = c.aggregator.State()
		c.mu.Unlock()
	}
	c.logger.Info("session stopped", "mode", mode)
}

func (c *Controller) closeCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	if err := cam.Close(); err != nil {
		c.logger.Warn("camera close failed", slog.Any("error", err))
	}
}

func (c *Controller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick processes one frame. Only the loop goroutine calls it, so frames
// never overlap; mu is taken just to read inputs and to publish results.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	cam, mode := c.cam, c.mode
	c.mu.Unlock()

	if ctx.Err() != nil || cam == nil {
		return
	}

	frame, err := cam.Read(ctx)
	if err != nil {
		c.logger.Debug("frame read failed", slog.Any("error", err))
		return
	}

	switch mode {
	case ModeEnrollment:
		c.enrollFrame(ctx, frame)
	case ModeRecognition:
		c.recognizeFrame(ctx, frame)
	}
}

func (c *Controller) enrollFrame(ctx context.Context, frame image.Image) {
	switch c.aggregator.State() {
	case enrollment.StateCapturing:
		c.captureFrame(ctx, frame)
	case enrollment.StateDone:
		c.mu.Lock()
		held := time.Since(c.savedAt) < c.cfg.SavedHold
		c.mu.Unlock()
		if held {
			return
		}

		c.aggregator.Abort()
		state := c.aggregator.State()

		c.mu.Lock()
		c.enrollState = state
		c.setStatus(enrollment.StatusReady)
		c.mu.Unlock()
	default:
		c.previewFrame(ctx, frame)
	}
}

func (c *Controller) captureFrame(ctx context.Context, frame image.Image) {
	progress, err := c.aggregator.Feed(ctx, frame)
	state, status := c.aggregator.State(), c.aggregator.Status()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.enrollState = state
	switch {
	case errors.Is(err, domain.ErrNoSamplesCaptured):
		c.setStatus(enrollment.StatusNoSamples)
	case err != nil:
		c.logger.Error("enrollment failed", slog.Any("error", err))
		c.setStatus(status)
	case progress.Done:
		c.savedAt = time.Now()
		c.setStatus(enrollment.StatusSaved)
		c.publish(ws.TopicIdentities, ws.EventIdentityCreated, progress.Identity)
	default:
		c.setStatus(status)
		c.publish(ws.TopicSession, ws.EventEnrollmentProgress, progress)
	}
}

func (c *Controller) previewFrame(ctx context.Context, frame image.Image) {
	faces, err := c.provider.Detect(ctx, frame)
	if err != nil {
		c.logger.Debug("preview detection failed", slog.Any("error", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(faces) == 0 {
		c.setStatus(StatusNoFace)
		c.speak(notify.NoFaceDetected())
		return
	}
	c.setStatus(StatusFaceDetected)
	c.speak(notify.FaceDetected())
}

func (c *Controller) recognizeFrame(ctx context.Context, frame image.Image) {
	rec, err := c.recognizer.MatchFrame(ctx, frame)
	if err != nil {
		c.logger.Warn("recognition failed", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = &rec

	if !rec.Detected {
		c.confidence = ""
		c.setStatus(StatusNoFace)
		return
	}

	c.confidence = fmt.Sprintf("Confidence: %.2f%%", rec.Result.Score)
	c.setStatus("Detected: " + rec.Result.Name)
	c.publish(ws.TopicSession, ws.EventRecognition, rec)

	if rec.Result.Matched {
		c.speak(notify.VerificationSuccess(rec.Result.Name, rec.Result.Relation))
	} else {
		c.speak(notify.UnknownFace())
	}
}

// setStatus must be called with mu held.
func (c *Controller) setStatus(status string) {
	if status == c.status {
		return
	}
	c.status = status
	c.publish(ws.TopicSession, ws.EventSessionStatus, map[string]string{
		"mode":   c.mode.String(),
		"status": status,
	})
}

func (c *Controller) publish(topic ws.Topic, eventType ws.EventType, data interface{}) {
	if c.publisher != nil {
		c.publisher.Publish(topic, eventType, data)
	}
}

func (c *Controller) speak(text string) {
	if c.speaker != nil {
		c.speaker.Speak(text)
	}
}
