package api

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
	"github.com/saturnino-fabrica-de-software/kinface/internal/session"
	"github.com/saturnino-fabrica-de-software/kinface/internal/webhook"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

type stubIdentities struct{}

func (stubIdentities) List(ctx context.Context) ([]domain.IdentitySummary, error) {
	return []domain.IdentitySummary{{ID: 1, Name: "Alice", Relation: "Friend"}}, nil
}

func (stubIdentities) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	return nil, domain.ErrIdentityNotFound
}

func (stubIdentities) Update(ctx context.Context, id int64, name, relation string) error {
	return domain.ErrIdentityNotFound
}

func (stubIdentities) Delete(ctx context.Context, id int64) error {
	return domain.ErrIdentityNotFound
}

func (stubIdentities) OpenImage(ctx context.Context, id int64) (*os.File, error) {
	return nil, domain.ErrNotFound
}

type stubRecognizer struct{}

func (stubRecognizer) MatchFrame(ctx context.Context, frame image.Image) (recognition.Recognition, error) {
	return recognition.Recognition{}, nil
}

type stubEnroller struct{}

func (stubEnroller) Enroll(ctx context.Context, name, relation string, frames []image.Image, onFrame func(enrollment.Progress)) (*domain.Identity, error) {
	return nil, domain.ErrNoSamplesCaptured
}

type stubSession struct{}

func (stubSession) Handle(req session.Request) error { return nil }

func (stubSession) Snapshot() session.Snapshot {
	return session.Snapshot{Mode: "idle", EnrollmentState: "idle"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, deps *Dependencies) *Router {
	t.Helper()
	r := NewRouter(testLogger(), deps)
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })
	return r
}

func TestRouter_Routes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(t, err)
	m.SetGallerySize(3)

	r := newTestRouter(t, &Dependencies{
		Identities: stubIdentities{},
		Recognizer: stubRecognizer{},
		Enroller:   stubEnroller{},
		Session:    stubSession{},
		Hub:        ws.NewHub(),
		Metrics:    registry,
	})

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/health", "", 200},
		{"GET", "/ready", "", 200},
		{"GET", "/metrics", "", 200},
		{"GET", "/v1/identities", "", 200},
		{"GET", "/v1/identities/1", "", 404},
		{"PATCH", "/v1/identities/1", `{"name":"Al","relation":"Friend"}`, 404},
		{"DELETE", "/v1/identities/1", "", 404},
		{"GET", "/v1/identities/1/image", "", 404},
		{"GET", "/v1/session", "", 200},
		{"POST", "/v1/session/commands", `{"command":"stop"}`, 202},
		{"GET", "/nonexistent", "", 404},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := r.App().Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestRouter_MetricsExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(t, err)
	m.SetGallerySize(3)

	r := newTestRouter(t, &Dependencies{Metrics: registry})

	resp, err := r.App().Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "kinface_gallery_size 3")
}

func TestRouter_WithoutDependencies(t *testing.T) {
	r := newTestRouter(t, nil)

	resp, err := r.App().Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	for _, path := range []string{"/v1/identities", "/v1/session", "/metrics"} {
		resp, err := r.App().Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode, path)
	}
}

func TestBroadcaster_ForwardsIdentityEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []webhook.EventPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, webhook.Verify("secret", body, r.Header.Get(webhook.SignatureHeader)))

		var e webhook.EventPayload
		assert.NoError(t, json.Unmarshal(body, &e))
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	next := &countingPublisher{}
	b := NewBroadcaster(next, webhook.NewClient(server.URL, "secret"), testLogger())

	b.Publish(ws.TopicIdentities, ws.EventIdentityCreated, map[string]interface{}{"id": 1})
	b.Publish(ws.TopicSession, ws.EventSessionStatus, "No face detected")
	b.Wait()

	assert.Equal(t, 2, next.count())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, webhook.EventIdentityCreated, events[0].Type)
}

func TestBroadcaster_WebhookFailureIsLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	b := NewBroadcaster(nil, webhook.NewClient(server.URL, ""), testLogger())

	done := make(chan struct{})
	go func() {
		b.Publish(ws.TopicIdentities, ws.EventIdentityDeleted, map[string]int64{"id": 2})
		b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook delivery did not finish")
	}
}

type countingPublisher struct {
	mu sync.Mutex
	n  int
}

func (p *countingPublisher) Publish(topic ws.Topic, eventType ws.EventType, data interface{}) {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}
