package handlers

import (
	"context"

	"github.com/openivr/call-server/internal/domain/call"
)

// CallHandler handles call lifecycle HTTP requests.
type CallHandler struct {
	service call.Service
}

// NewCallHandler creates a new call handler.
func NewCallHandler(service call.Service) *CallHandler {
	return &CallHandler{service: service}
}

// InitiateCall places a new outbound call.
func (h *CallHandler) InitiateCall(ctx context.Context, req *call.InitiateRequest) (*call.InitiateResult, error) {
	return h.service.InitiateCall(ctx, req)
}

// GetSession retrieves the merged session record for a contact id.
func (h *CallHandler) GetSession(ctx context.Context, id string) (*call.Session, error) {
	return h.service.GetSession(ctx, id)
}

// StopCall ends an in-flight call.
func (h *CallHandler) StopCall(ctx context.Context, id string) error {
	return h.service.StopCall(ctx, id)
}
