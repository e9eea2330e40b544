package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/session"
)

// SessionController is the live camera session
type SessionController interface {
	Handle(req session.Request) error
	Snapshot() session.Snapshot
}

type SessionHandler struct {
	controller SessionController
	logger     *slog.Logger
}

func NewSessionHandler(controller SessionController, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		logger:     logger,
	}
}

// CommandRequest body for the command endpoint. Name and Relation are only
// read by start_enrollment.
type CommandRequest struct {
	Command  string `json:"command"`
	Name     string `json:"name,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// Status GET /v1/session
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.controller.Snapshot())
}

// Command POST /v1/session/commands
func (h *SessionHandler) Command(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	cmd, err := session.ParseCommand(req.Command)
	if err != nil {
		return err
	}

	if err := h.controller.Handle(session.Request{
		Command:  cmd,
		Name:     req.Name,
		Relation: req.Relation,
	}); err != nil {
		h.logger.Warn("session command rejected",
			"command", req.Command,
			"error", err,
		)
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(h.controller.Snapshot())
}
