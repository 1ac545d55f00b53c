package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
	"github.com/noah-isme/dojo-contact-api/internal/observability"
)

const (
	channelPrimary   = "primary"
	channelSecondary = "secondary"
	eventTimeout     = 2 * time.Second
	// maxPendingEvents bounds in-flight event fan-outs; further events are dropped.
	maxPendingEvents = 64
)

// RelayRequest is one inbound contact submission as parsed by the transport.
type RelayRequest struct {
	Raw           map[string]interface{}
	RemoteIP      string
	CorrelationID string
}

// RelayResult aggregates both delivery attempts.
type RelayResult struct {
	OK         bool
	Message    string
	Status     dto.RelayStatus
	Submission dto.ContactSubmission
}

// ContactService exposes the contact relay workflow.
type ContactService interface {
	Relay(ctx context.Context, req RelayRequest) (RelayResult, error)
}

// EventFlusher waits for submission events that are still being published.
type EventFlusher interface {
	FlushEvents(ctx context.Context) error
}

type contactService struct {
	normalizer *Normalizer
	verifier   HumanVerifier
	primary    PrimaryBackend
	secondary  ContactDelivery
	publishers []EventPublisher
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer

	pending  chan struct{}
	inFlight sync.WaitGroup
}

// NewContactService constructs the relay. A nil verifier passes every request; a nil secondary is disabled.
func NewContactService(verifier HumanVerifier, primary PrimaryBackend, secondary ContactDelivery, validate *validator.Validate, logger zerolog.Logger, publishers ...EventPublisher) ContactService {
	if verifier == nil {
		verifier = passThroughVerifier{}
	}
	if secondary == nil {
		secondary = DisabledDelivery{}
	}
	if validate == nil {
		validate = validator.New()
	}
	return &contactService{
		normalizer: NewNormalizer(),
		verifier:   verifier,
		primary:    primary,
		secondary:  secondary,
		publishers: publishers,
		validator:  validate,
		logger:     logger.With().Str("component", "contact_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/dojo-contact-api/internal/service/contact"),
		pending:    make(chan struct{}, maxPendingEvents),
	}
}

// Relay normalizes, verifies and delivers one submission.
// Errors are returned only for verification rejection and missing configuration;
// delivery failures are reported in the result.
func (s *contactService) Relay(ctx context.Context, req RelayRequest) (RelayResult, error) {
	ctx, span := s.tracer.Start(ctx, "contact.relay")
	defer span.End()

	logger := s.logger
	if req.CorrelationID != "" {
		logger = logger.With().Str("correlation_id", req.CorrelationID).Logger()
	}

	submission := s.normalizer.Normalize(req.Raw)
	submission.RemoteIP = req.RemoteIP
	payload := submission.Payload

	span.SetAttributes(
		attribute.String("contact.discipline", payload.Disciplina),
		attribute.Bool("contact.has_token", submission.CaptchaToken != ""),
	)

	if payload.Email != "" {
		if err := s.validator.Var(payload.Email, "email"); err != nil {
			logger.Warn().Str("email", maskEmailAddress(payload.Email)).Msg("contact email looks malformed")
		}
	}
	if payload.Disciplina != "" && !IsKnownDiscipline(payload.Disciplina) {
		logger.Debug().Str("discipline", s.normalizer.Printable(payload.Disciplina)).Msg("unrecognised discipline passed through")
	}

	if _, err := s.verifier.Verify(ctx, submission.CaptchaToken, submission.RemoteIP); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification rejected")
		observability.ContactSubmissions().WithLabelValues("rejected").Inc()
		logger.Info().Err(err).Msg("contact submission rejected by verification")
		return RelayResult{Submission: submission}, err
	}

	if s.primary == nil {
		return RelayResult{Submission: submission}, s.misconfigured(span, logger, ErrBackendNotConfigured)
	}
	if _, err := s.primary.BaseURL(); err != nil {
		return RelayResult{Submission: submission}, s.misconfigured(span, logger, err)
	}

	var (
		group        errgroup.Group
		primaryErr   error
		secondaryErr error
	)
	group.Go(func() error {
		primaryErr = s.deliver(ctx, channelPrimary, s.primary, payload)
		return nil
	})
	group.Go(func() error {
		secondaryErr = s.deliver(ctx, channelSecondary, s.secondary, payload)
		return nil
	})
	_ = group.Wait()

	var failures []string
	if primaryErr != nil {
		failures = append(failures, describePrimaryError(primaryErr))
		logger.Warn().Err(primaryErr).Msg("primary delivery failed")
	}
	if secondaryErr != nil {
		failures = append(failures, fmt.Sprintf("%s: %v", channelSecondary, secondaryErr))
		if !errors.Is(secondaryErr, ErrSecondaryDisabled) {
			logger.Warn().Err(secondaryErr).Msg("secondary delivery failed")
		}
	}

	ok := primaryErr == nil || secondaryErr == nil
	result := RelayResult{
		OK:      ok,
		Message: acknowledgement(payload),
		Status: dto.RelayStatus{
			Primary:   dto.StatusFrom(primaryErr == nil),
			Secondary: dto.StatusFrom(secondaryErr == nil),
			Errors:    failures,
		},
		Submission: submission,
	}

	outcome := relayOutcome(primaryErr == nil, secondaryErr == nil)
	observability.ContactSubmissions().WithLabelValues(outcome).Inc()
	if result.OK {
		span.SetStatus(codes.Ok, outcome)
	} else {
		span.SetStatus(codes.Error, outcome)
	}

	s.publishAsync(ctx, SubmissionEvent{
		CorrelationID: req.CorrelationID,
		Discipline:    s.normalizer.Printable(payload.Disciplina),
		Email:         maskEmailAddress(payload.Email),
		OK:            result.OK,
		Primary:       result.Status.Primary,
		Secondary:     result.Status.Secondary,
		ErrorCount:    len(failures),
		OccurredAt:    time.Now().UTC(),
	}, logger)

	return result, nil
}

// publishAsync fans the event out in the background so sinks never delay the response.
func (s *contactService) publishAsync(ctx context.Context, event SubmissionEvent, logger zerolog.Logger) {
	if len(s.publishers) == 0 {
		return
	}
	select {
	case s.pending <- struct{}{}:
	default:
		observability.ContactEvents().WithLabelValues("all", "dropped").Inc()
		logger.Warn().Msg("contact event dropped, too many pending")
		return
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		defer func() { <-s.pending }()

		eventCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
		defer cancel()
		publishAll(eventCtx, s.publishers, event, logger)
	}()
}

// FlushEvents blocks until pending events are published or ctx is done.
func (s *contactService) FlushEvents(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *contactService) deliver(ctx context.Context, channel string, delivery ContactDelivery, payload dto.ContactPayload) error {
	ctx, span := s.tracer.Start(ctx, "contact.deliver."+channel)
	defer span.End()

	err := delivery.Deliver(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		observability.ContactDeliveries().WithLabelValues(channel, "failed").Inc()
		return err
	}
	observability.ContactDeliveries().WithLabelValues(channel, "success").Inc()
	return nil
}

func (s *contactService) misconfigured(span trace.Span, logger zerolog.Logger, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "misconfigured")
	observability.ContactSubmissions().WithLabelValues("misconfigured").Inc()
	logger.Error().Err(err).Msg("contact relay is not configured")
	return err
}

func describePrimaryError(err error) string {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return fmt.Sprintf("%s connection: %v", channelPrimary, connErr.Err)
	}
	return fmt.Sprintf("%s: %v", channelPrimary, err)
}

func relayOutcome(primaryOK, secondaryOK bool) string {
	switch {
	case primaryOK && secondaryOK:
		return "delivered"
	case primaryOK || secondaryOK:
		return "partial"
	default:
		return "failed"
	}
}

// acknowledgement is sent whatever the outcome; clients read ok and status for the result.
func acknowledgement(payload dto.ContactPayload) string {
	return fmt.Sprintf(
		"¡Hola %s! Recibimos tu interés en %s. Te contactaremos pronto para coordinar tu primera clase.",
		payload.Nombre,
		DisciplineLabel(payload.Disciplina),
	)
}
