package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/kinface/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/kinface/internal/webhook"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

const webhookTimeout = 10 * time.Second

// Broadcaster publishes to the websocket hub and forwards identity events
// to the configured webhook. Deliveries run in the background; Wait blocks
// until the in-flight ones are done.
type Broadcaster struct {
	next    handler.Publisher
	webhook *webhook.Client
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewBroadcaster wraps next. A nil client disables forwarding.
func NewBroadcaster(next handler.Publisher, client *webhook.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		next:    next,
		webhook: client,
		logger:  logger,
	}
}

func (b *Broadcaster) Publish(topic ws.Topic, eventType ws.EventType, data interface{}) {
	if b.next != nil {
		b.next.Publish(topic, eventType, data)
	}

	if b.webhook == nil || topic != ws.TopicIdentities {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()

		if err := b.webhook.Send(ctx, string(eventType), data); err != nil {
			b.logger.Warn("webhook delivery failed",
				"event", eventType,
				"error", err,
			)
		}
	}()
}

func (b *Broadcaster) Wait() {
	b.wg.Wait()
}
