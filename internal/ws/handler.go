package ws

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Handler upgrades to a websocket subscribed to the topic given in the
// "topic" query parameter, or to everything when it is absent.
func Handler(hub *Hub, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		topic := Topic(c.Query("topic"))
		switch topic {
		case AllTopics, TopicSession, TopicIdentities:
		default:
			_ = c.Close()
			return
		}

		client := &Client{
			id:    uuid.New(),
			hub:   hub,
			conn:  c,
			topic: topic,
			send:  make(chan []byte, 256),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = c.Close()
			return
		}
		logger.Debug("websocket client connected", "client_id", client.id, "topic", topic)

		go client.WritePump()
		client.ReadPump()

		logger.Debug("websocket client disconnected", "client_id", client.id)
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
