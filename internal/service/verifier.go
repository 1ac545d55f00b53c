package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/dojo-contact-api/internal/observability"
)

// MinVerificationScore is the lowest reCAPTCHA v3 score accepted.
const MinVerificationScore = 0.5

// ErrVerificationFailed indicates the submitted CAPTCHA token was rejected.
var ErrVerificationFailed = errors.New("human verification failed")

// VerificationResult describes a verification outcome that did not reject the request.
type VerificationResult struct {
	Checked bool
	Score   *float64
}

// HumanVerifier checks CAPTCHA tokens before any delivery is attempted.
type HumanVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (VerificationResult, error)
}

// NewHumanVerifier returns a reCAPTCHA verifier, or a pass-through one when no secret is configured.
func NewHumanVerifier(secret, endpoint string, timeout time.Duration, logger zerolog.Logger) HumanVerifier {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return passThroughVerifier{}
	}
	return NewRecaptchaVerifier(secret, endpoint, &http.Client{Timeout: timeout}, logger)
}

type passThroughVerifier struct{}

func (passThroughVerifier) Verify(context.Context, string, string) (VerificationResult, error) {
	observability.ContactVerifications().WithLabelValues("skipped").Inc()
	return VerificationResult{}, nil
}

// RecaptchaVerifier verifies tokens against the siteverify endpoint.
type RecaptchaVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewRecaptchaVerifier constructs a verifier that posts tokens to endpoint.
func NewRecaptchaVerifier(secret, endpoint string, client *http.Client, logger zerolog.Logger) *RecaptchaVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RecaptchaVerifier{
		secret:   secret,
		endpoint: endpoint,
		client:   client,
		logger:   logger.With().Str("component", "recaptcha_verifier").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/dojo-contact-api/internal/service/verifier"),
	}
}

type recaptchaResponse struct {
	Success     bool     `json:"success"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verify passes requests without a token; otherwise the token must be accepted with a sufficient score.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (VerificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		observability.ContactVerifications().WithLabelValues("skipped").Inc()
		return VerificationResult{}, nil
	}

	ctx, span := v.tracer.Start(ctx, "contact.verify")
	defer span.End()

	result, err := v.verify(ctx, token, remoteIP)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification rejected")
		observability.ContactVerifications().WithLabelValues("rejected").Inc()
		return VerificationResult{}, err
	}

	if result.Score != nil {
		span.SetAttributes(attribute.Float64("recaptcha.score", *result.Score))
	}
	observability.ContactVerifications().WithLabelValues("passed").Inc()
	return result, nil
}

func (v *RecaptchaVerifier) verify(ctx context.Context, token, remoteIP string) (VerificationResult, error) {
	data := url.Values{}
	data.Set("secret", v.secret)
	data.Set("response", token)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return VerificationResult{}, fmt.Errorf("%w: build request: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	var payload recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: decode response: %v", ErrVerificationFailed, err)
	}

	if !payload.Success {
		v.logger.Warn().Strs("error_codes", payload.ErrorCodes).Msg("captcha token rejected")
		return VerificationResult{}, fmt.Errorf("%w: %v", ErrVerificationFailed, payload.ErrorCodes)
	}

	if payload.Score != nil && *payload.Score < MinVerificationScore {
		v.logger.Warn().Float64("score", *payload.Score).Msg("captcha score below threshold")
		return VerificationResult{}, fmt.Errorf("%w: score %.2f < %.2f", ErrVerificationFailed, *payload.Score, MinVerificationScore)
	}

	return VerificationResult{Checked: true, Score: payload.Score}, nil
}
