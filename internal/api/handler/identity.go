package handler

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

// IdentityService is the part of service.IdentityService the handlers use
type IdentityService interface {
	List(ctx context.Context) ([]domain.IdentitySummary, error)
	Get(ctx context.Context, id int64) (*domain.Identity, error)
	Update(ctx context.Context, id int64, name, relation string) error
	Delete(ctx context.Context, id int64) error
	OpenImage(ctx context.Context, id int64) (*os.File, error)
}

// Publisher fans events out to websocket clients
type Publisher interface {
	Publish(topic ws.Topic, eventType ws.EventType, data interface{})
}

// IdentityHandler serves the identity management endpoints
type IdentityHandler struct {
	service   IdentityService
	publisher Publisher
	logger    *slog.Logger
}

func NewIdentityHandler(service IdentityService, publisher Publisher, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

// ListResponse response for the list endpoint
type ListResponse struct {
	Identities []domain.IdentitySummary `json:"identities"`
	Count      int                      `json:"count"`
}

// UpdateRequest body for the update endpoint
type UpdateRequest struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

// List GET /v1/identities
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.service.List(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(ListResponse{
		Identities: identities,
		Count:      len(identities),
	})
}

// Get GET /v1/identities/:id
func (h *IdentityHandler) Get(c *fiber.Ctx) error {
	id, err := identityID(c)
	if err != nil {
		return err
	}

	identity, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(identity)
}

// Update PATCH /v1/identities/:id - rename or change the relation
func (h *IdentityHandler) Update(c *fiber.Ctx) error {
	id, err := identityID(c)
	if err != nil {
		return err
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.service.Update(c.Context(), id, req.Name, req.Relation); err != nil {
		return err
	}

	identity, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	h.publish(ws.EventIdentityUpdated, identity)
	h.logger.Info("identity updated", "identity_id", id)

	return c.JSON(identity)
}

// Delete DELETE /v1/identities/:id
func (h *IdentityHandler) Delete(c *fiber.Ctx) error {
	id, err := identityID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	h.publish(ws.EventIdentityDeleted, fiber.Map{"id": id})

	return c.SendStatus(fiber.StatusNoContent)
}

// Image GET /v1/identities/:id/image - the stored face crop
func (h *IdentityHandler) Image(c *fiber.Ctx) error {
	id, err := identityID(c)
	if err != nil {
		return err
	}

	f, err := h.service.OpenImage(c.Context(), id)
	if err != nil {
		return err
	}

	// fasthttp closes the file once the body is written
	c.Type("png")
	return c.SendStream(f)
}

func (h *IdentityHandler) publish(eventType ws.EventType, data interface{}) {
	if h.publisher != nil {
		h.publisher.Publish(ws.TopicIdentities, eventType, data)
	}
}

func identityID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadRequest.WithError(err)
	}
	return id, nil
}
