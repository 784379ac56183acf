package call

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service defines the call orchestration operations exposed over HTTP.
type Service interface {
	// InitiateCall places the outbound call, registers the session and
	// starts its status poller.
	InitiateCall(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)

	// GetSession returns the merged session record for a contact id.
	GetSession(ctx context.Context, id string) (*Session, error)

	// StopCall asks the telephony platform to end the contact.
	StopCall(ctx context.Context, id string) error
}

type service struct {
	store   Store
	control Control
	poller  PollerLauncher
	log     zerolog.Logger
}

// NewService creates the call orchestration service.
func NewService(store Store, control Control, poller PollerLauncher, log zerolog.Logger) Service {
	return &service{
		store:   store,
		control: control,
		poller:  poller,
		log:     log.With().Str("component", "call-service").Logger(),
	}
}

func (s *service) InitiateCall(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	if !req.FlowMode.Valid() {
		return nil, fmt.Errorf("unknown flow mode %q", req.FlowMode)
	}

	contactID, err := s.control.Initiate(ctx, req.PhoneNumber, req.Context)
	if err != nil {
		s.log.Error().Err(err).Str("destination", req.PhoneNumber).Msg("call initiation failed")
		return nil, err
	}

	if err := s.store.Create(ctx, contactID, req.Context, req.FlowMode); err != nil {
		return nil, err
	}

	s.poller.Launch(contactID)

	s.log.Info().
		Str("contact_id", contactID).
		Str("flow_mode", string(req.FlowMode)).
		Msg("call queued")

	return &InitiateResult{
		ContactID: contactID,
		Message:   "Call queued successfully",
	}, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

func (s *service) StopCall(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.control.Stop(ctx, id); err != nil {
		s.log.Error().Err(err).Str("contact_id", id).Msg("stop contact failed")
		return err
	}
	s.log.Info().Str("contact_id", id).Msg("stop requested")
	return nil
}
