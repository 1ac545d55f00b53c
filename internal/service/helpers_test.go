package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type deliveryStub struct {
	mu       sync.Mutex
	base     string
	baseErr  error
	err      error
	payloads []dto.ContactPayload
}

func (d *deliveryStub) BaseURL() (string, error) {
	if d.baseErr != nil {
		return "", d.baseErr
	}
	if d.base == "" {
		return "http://backend.test", nil
	}
	return d.base, nil
}

func (d *deliveryStub) Deliver(_ context.Context, payload dto.ContactPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return d.err
}

func (d *deliveryStub) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

type verifierStub struct {
	err    error
	tokens []string
}

func (v *verifierStub) Verify(_ context.Context, token, _ string) (VerificationResult, error) {
	v.tokens = append(v.tokens, token)
	if v.err != nil {
		return VerificationResult{}, v.err
	}
	return VerificationResult{Checked: token != ""}, nil
}

type publisherStub struct {
	mu      sync.Mutex
	events  []SubmissionEvent
	err     error
	release chan struct{}
}

func (p *publisherStub) Name() string { return "stub" }

func (p *publisherStub) Publish(ctx context.Context, event SubmissionEvent) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *publisherStub) received() []SubmissionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SubmissionEvent(nil), p.events...)
}

func flushEvents(t *testing.T, svc ContactService) {
	t.Helper()
	flusher, ok := svc.(EventFlusher)
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, flusher.FlushEvents(ctx))
}
