package handler

import (
	"bytes"
	"context"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/imaging"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
	maxFrames    = 100
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/bmp":  true,
}

// Recognizer matches a single frame against the gallery
type Recognizer interface {
	MatchFrame(ctx context.Context, frame image.Image) (recognition.Recognition, error)
}

// Enroller runs a one-shot enrollment over uploaded frames
type Enroller interface {
	Enroll(ctx context.Context, name, relation string, frames []image.Image, onFrame func(enrollment.Progress)) (*domain.Identity, error)
}

type FaceHandler struct {
	recognizer Recognizer
	enroller   Enroller
	publisher  Publisher
	logger     *slog.Logger
}

func NewFaceHandler(recognizer Recognizer, enroller Enroller, publisher Publisher, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		recognizer: recognizer,
		enroller:   enroller,
		publisher:  publisher,
		logger:     logger,
	}
}

// EnrollResponse response for the enroll endpoint
type EnrollResponse struct {
	Identity *domain.Identity `json:"identity"`
	Frames   int              `json:"frames"`
	Accepted int              `json:"accepted"`
}

// Recognize POST /v1/recognize - match the first face of one image
func (h *FaceHandler) Recognize(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	frame, err := decodeUpload(file)
	if err != nil {
		return err
	}

	result, err := h.recognizer.MatchFrame(c.Context(), frame)
	if err != nil {
		return err
	}
	if !result.Detected {
		return domain.ErrNoFaceDetected
	}

	return c.JSON(result)
}

// Enroll POST /v1/enroll - enroll a person from a batch of frames
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	name := strings.TrimSpace(c.FormValue("name"))
	relation := strings.TrimSpace(c.FormValue("relation"))
	if name == "" || relation == "" {
		return domain.ErrIllegalArgument
	}

	files := form.File["frames"]
	if len(files) == 0 || len(files) > maxFrames {
		return domain.ErrValidationFailed
	}

	frames := make([]image.Image, 0, len(files))
	for _, file := range files {
		frame, err := decodeUpload(file)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
	}

	accepted := 0
	identity, err := h.enroller.Enroll(c.Context(), name, relation, frames, func(p enrollment.Progress) {
		accepted = p.Accepted
	})
	if err != nil {
		return err
	}

	if h.publisher != nil {
		h.publisher.Publish(ws.TopicIdentities, ws.EventIdentityCreated, identity)
	}
	h.logger.Info("identity enrolled from upload",
		"identity_id", identity.ID,
		"frames", len(frames),
		"accepted", accepted,
	)

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Identity: identity,
		Frames:   len(frames),
		Accepted: accepted,
	})
}

func decodeUpload(file *multipart.FileHeader) (image.Image, error) {
	if file.Size > maxImageSize || file.Size == 0 {
		return nil, domain.ErrInvalidImage
	}

	if !validImageTypes[file.Header.Get("Content-Type")] {
		return nil, domain.ErrInvalidImage
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return img, nil
}
