package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/session"
)

// MockSessionController is a mock implementation of SessionController
type MockSessionController struct {
	mock.Mock
}

func (m *MockSessionController) Handle(req session.Request) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockSessionController) Snapshot() session.Snapshot {
	args := m.Called()
	return args.Get(0).(session.Snapshot)
}

func TestSessionHandler_Status(t *testing.T) {
	ctrl := new(MockSessionController)
	ctrl.On("Snapshot").Return(session.Snapshot{Mode: "recognition", Status: "Detected: Alice"})

	h := NewSessionHandler(ctrl, testLogger())
	app := newTestApp()
	app.Get("/session", h.Status)

	resp, err := app.Test(httptest.NewRequest("GET", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "recognition", snap.Mode)
	assert.Equal(t, "Detected: Alice", snap.Status)
}

func TestSessionHandler_Command(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockSessionController)
		expectedStatus int
	}{
		{
			name: "start enrollment",
			body: `{"command":"start_enrollment","name":"Alice","relation":"Friend"}`,
			setupMock: func(m *MockSessionController) {
				m.On("Handle", session.Request{Command: session.CmdStartEnrollment, Name: "Alice", Relation: "Friend"}).Return(nil)
				m.On("Snapshot").Return(session.Snapshot{Mode: "enrollment", EnrollmentState: "capturing"})
			},
			expectedStatus: 202,
		},
		{
			name: "stop",
			body: `{"command":"stop"}`,
			setupMock: func(m *MockSessionController) {
				m.On("Handle", session.Request{Command: session.CmdStop}).Return(nil)
				m.On("Snapshot").Return(session.Snapshot{Mode: "idle"})
			},
			expectedStatus: 202,
		},
		{
			name: "missing details",
			body: `{"command":"start_enrollment"}`,
			setupMock: func(m *MockSessionController) {
				m.On("Handle", session.Request{Command: session.CmdStartEnrollment}).Return(domain.ErrIllegalArgument)
			},
			expectedStatus: 422,
		},
		{
			name: "camera unavailable",
			body: `{"command":"start_recognition"}`,
			setupMock: func(m *MockSessionController) {
				m.On("Handle", session.Request{Command: session.CmdStartRecognition}).Return(domain.ErrDeviceUnavailable)
			},
			expectedStatus: 503,
		},
		{
			name: "capture already running",
			body: `{"command":"start_enrollment","name":"Bob","relation":"Brother"}`,
			setupMock: func(m *MockSessionController) {
				m.On("Handle", mock.Anything).Return(domain.ErrSessionActive)
			},
			expectedStatus: 409,
		},
		{
			name:           "unknown command",
			body:           `{"command":"self_destruct"}`,
			setupMock:      func(m *MockSessionController) {},
			expectedStatus: 400,
		},
		{
			name:           "malformed body",
			body:           `not json`,
			setupMock:      func(m *MockSessionController) {},
			expectedStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := new(MockSessionController)
			tt.setupMock(ctrl)

			h := NewSessionHandler(ctrl, testLogger())
			app := newTestApp()
			app.Post("/session/commands", h.Command)

			req := httptest.NewRequest("POST", "/session/commands", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			ctrl.AssertExpectations(t)
		})
	}
}
