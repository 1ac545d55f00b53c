package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
)

const (
	contactsPath       = "/contactos/"
	maxErrorBodyLength = 512
)

// ErrBackendNotConfigured indicates the primary backend base address is missing.
var ErrBackendNotConfigured = errors.New("primary backend url is not configured")

// ContactDelivery is a transport that stores one normalized submission.
type ContactDelivery interface {
	Deliver(ctx context.Context, payload dto.ContactPayload) error
}

// PrimaryBackend is the relational API service receiving submissions.
type PrimaryBackend interface {
	ContactDelivery
	BaseURL() (string, error)
}

// ResolveBackendURL strips surrounding quotes, whitespace and trailing slashes from a configured base.
func ResolveBackendURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	base = strings.Trim(base, `"'`)
	base = strings.TrimSpace(base)
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "", ErrBackendNotConfigured
	}
	return base, nil
}

// HTTPBackend posts submissions as JSON to {base}/contactos/.
type HTTPBackend struct {
	rawBase string
	client  *http.Client
}

// NewHTTPBackend constructs the primary backend client. The base is resolved on every call.
func NewHTTPBackend(rawBase string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBackend{
		rawBase: rawBase,
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the resolved base address.
func (b *HTTPBackend) BaseURL() (string, error) {
	return ResolveBackendURL(b.rawBase)
}

// Deliver posts the payload. Any non-2xx status is an error carrying the response body.
func (b *HTTPBackend) Deliver(ctx context.Context, payload dto.ContactPayload) error {
	base, err := b.BaseURL()
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal contact payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+contactsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// StatusError reports a non-2xx response from the primary backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// ConnectionError reports a transport failure reaching the primary backend.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
