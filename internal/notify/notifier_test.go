package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/saturnino-fabrica-de-software/kinface/internal/webhook"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

// blockingSpeaker holds every prompt until released or cancelled.
type blockingSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	started chan struct{}
	release chan struct{}
}

func newBlockingSpeaker() *blockingSpeaker {
	return &blockingSpeaker{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (s *blockingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	s.started <- struct{}{}

	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *blockingSpeaker) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_DropsWhileSpeaking(t *testing.T) {
	sp := newBlockingSpeaker()
	n := NewNotifier(sp, quietLogger(), nil)
	defer n.Stop()

	require.True(t, n.Speak("first"))
	<-sp.started

	assert.True(t, n.Speaking())
	assert.False(t, n.Speak("second"))
	assert.False(t, n.Speak("third"))

	sp.release <- struct{}{}
	require.Eventually(t, func() bool { return !n.Speaking() }, time.Second, 5*time.Millisecond)

	require.True(t, n.Speak("fourth"))
	<-sp.started
	sp.release <- struct{}{}
	require.Eventually(t, func() bool { return !n.Speaking() }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first", "fourth"}, sp.texts())
}

func TestNotifier_SpeakNeverBlocks(t *testing.T) {
	sp := newBlockingSpeaker()
	n := NewNotifier(sp, quietLogger(), nil)
	defer n.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Speak("hello")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Speak blocked")
	}
}

func TestNotifier_StopCancelsAndIgnoresLaterPrompts(t *testing.T) {
	sp := newBlockingSpeaker()
	n := NewNotifier(sp, quietLogger(), nil)

	require.True(t, n.Speak("long prompt"))
	<-sp.started

	n.Stop()
	n.Stop()

	assert.False(t, n.Speaking())
	assert.False(t, n.Speak("after stop"))
	assert.Equal(t, []string{"long prompt"}, sp.texts())
}

type failingSpeaker struct{}

func (failingSpeaker) Speak(context.Context, string) error { return errors.New("audio device busy") }

func TestNotifier_SpeakerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewNotifier(failingSpeaker{}, logger, nil)

	require.True(t, n.Speak("hello"))
	n.Stop()

	assert.Contains(t, buf.String(), "audio device busy")
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Welcome Alice! I recognize you as my Friend.", VerificationSuccess("Alice", "Friend"))
	assert.Equal(t, "This face is not in your database. Please carefully verify their identity.", UnknownFace())
	assert.Equal(t, "Please click the button to start adding this person.", FaceDetected())
	assert.Equal(t, "Face is not visible. Please adjust your position.", NoFaceDetected())
}

func TestLogSpeaker(t *testing.T) {
	var buf bytes.Buffer
	s := LogSpeaker{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, s.Speak(context.Background(), "Welcome Alice!"))
	assert.Contains(t, buf.String(), "Welcome Alice!")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Speak(ctx, "late"))
}

func TestWebhookSpeaker(t *testing.T) {
	var got webhook.EventPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		assert.True(t, webhook.Verify("secret", body, r.Header.Get(webhook.SignatureHeader)))
	}))
	defer server.Close()

	s := WebhookSpeaker{Client: webhook.NewClient(server.URL, "secret")}
	require.NoError(t, s.Speak(context.Background(), "Welcome Alice!"))

	assert.Equal(t, webhook.EventSpeak, got.Type)
	assert.Equal(t, map[string]interface{}{"text": "Welcome Alice!"}, got.Data)
}
