package notify

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/kinface/internal/webhook"
)

// LogSpeaker writes prompts to the log. Used when no audio sink is
// configured.
type LogSpeaker struct {
	Logger *slog.Logger
}

func (s LogSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Logger.Info("speak", "text", text)
	return nil
}

// WebhookSpeaker forwards prompts as signed notify.speak events to an
// external text-to-speech device.
type WebhookSpeaker struct {
	Client *webhook.Client
}

func (s WebhookSpeaker) Speak(ctx context.Context, text string) error {
	return s.Client.Send(ctx, webhook.EventSpeak, map[string]string{"text": text})
}
