package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/infrastructure/store"
	"github.com/openivr/call-server/internal/interfaces/httpserver/handlers"
	v1 "github.com/openivr/call-server/internal/interfaces/httpserver/routes/v1"
	"github.com/openivr/call-server/internal/utils/platformerrors"
)

// MockCallService is a func-backed call.Service for handler tests.
type MockCallService struct {
	InitiateCallFunc func(ctx context.Context, req *call.InitiateRequest) (*call.InitiateResult, error)
	GetSessionFunc   func(ctx context.Context, id string) (*call.Session, error)
	StopCallFunc     func(ctx context.Context, id string) error
}

func (m *MockCallService) InitiateCall(ctx context.Context, req *call.InitiateRequest) (*call.InitiateResult, error) {
	if m.InitiateCallFunc != nil {
		return m.InitiateCallFunc(ctx, req)
	}
	return &call.InitiateResult{ContactID: "contact-1", Message: "Call queued successfully"}, nil
}

func (m *MockCallService) GetSession(ctx context.Context, id string) (*call.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	return nil, store.ErrSessionNotFound
}

func (m *MockCallService) StopCall(ctx context.Context, id string) error {
	if m.StopCallFunc != nil {
		return m.StopCallFunc(ctx, id)
	}
	return nil
}

func newTestRouter(service call.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	sessionStore := store.NewMemoryStore(zerolog.Nop())
	provider := handlers.NewProvider(
		handlers.NewCallHandler(service),
		handlers.NewStreamHandler(sessionStore, nil, nil, time.Second, time.Second, zerolog.Nop()),
	)
	v1.RegisterCallRoutes(engine.Group("/v1"), provider)
	return engine
}

func TestInitiateCall(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		service    *MockCallService
		wantStatus int
	}{
		{
			name:       "valid claims request",
			body:       `{"phone_number": "+15550100", "flow_mode": "claims", "context": {"member_id": "A12345"}}`,
			service:    &MockCallService{},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "valid eligibility request without context",
			body:       `{"phone_number": "+15550100", "flow_mode": "eligibility"}`,
			service:    &MockCallService{},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing phone number",
			body:       `{"flow_mode": "claims"}`,
			service:    &MockCallService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown flow mode",
			body:       `{"phone_number": "+15550100", "flow_mode": "billing"}`,
			service:    &MockCallService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"phone_number": `,
			service:    &MockCallService{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.service)

			req := httptest.NewRequest(http.MethodPost, "/v1/calls", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestInitiateCall_ResponseBody(t *testing.T) {
	router := newTestRouter(&MockCallService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/calls",
		bytes.NewBufferString(`{"phone_number": "+15550100", "flow_mode": "claims"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var result call.InitiateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ContactID != "contact-1" {
		t.Errorf("contact_id = %q, want %q", result.ContactID, "contact-1")
	}
}

func TestGetCallStatus(t *testing.T) {
	known := &call.Session{
		ID:       "contact-1",
		Status:   call.StatusInProgress,
		FlowMode: call.FlowClaims,
	}
	service := &MockCallService{
		GetSessionFunc: func(ctx context.Context, id string) (*call.Session, error) {
			if id == "contact-1" {
				return known, nil
			}
			return nil, store.ErrSessionNotFound
		},
	}
	router := newTestRouter(service)

	t.Run("known contact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/calls/contact-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var sess call.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if sess.Status != call.StatusInProgress {
			t.Errorf("status = %s, want IN_PROGRESS", sess.Status)
		}
	})

	t.Run("unknown contact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/calls/no-such-contact", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestStopCall(t *testing.T) {
	service := &MockCallService{
		StopCallFunc: func(ctx context.Context, id string) error {
			if id != "contact-1" {
				return store.ErrSessionNotFound
			}
			return nil
		},
	}
	router := newTestRouter(service)

	t.Run("known contact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/v1/calls/contact-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unknown contact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/v1/calls/no-such-contact", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestStream_UnknownContactRejectedBeforeUpgrade(t *testing.T) {
	router := newTestRouter(&MockCallService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/no-such-contact/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 without websocket upgrade", rec.Code)
	}

	// The rejection uses the same error envelope as the REST routes.
	var resp platformerrors.HTTPErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != "not_found_error" {
		t.Errorf("unexpected error envelope: %s", rec.Body.String())
	}
}
