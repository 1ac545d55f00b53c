package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
	"github.com/noah-isme/dojo-contact-api/internal/models"
	"github.com/noah-isme/dojo-contact-api/internal/repository"
)

func exampleRaw() map[string]interface{} {
	return map[string]interface{}{
		"nombre":     "Ana",
		"apellido":   "Lopez",
		"email":      "a@b.com",
		"telefono":   "099-123-456",
		"disciplina": "Muay Thai",
		"mensaje":    "Hola",
	}
}

func TestContactServiceNormalizesBeforeDelivery(t *testing.T) {
	primary := &deliveryStub{}
	secondary := &deliveryStub{}
	svc := NewContactService(nil, primary, secondary, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, dto.ChannelSuccess, result.Status.Primary)
	require.Equal(t, dto.ChannelSuccess, result.Status.Secondary)
	require.Nil(t, result.Status.Errors)

	require.Len(t, primary.payloads, 1)
	require.Len(t, secondary.payloads, 1)
	for _, payload := range []dto.ContactPayload{primary.payloads[0], secondary.payloads[0]} {
		require.Equal(t, "099123456", payload.Telefono)
		require.Equal(t, "muay-thai", payload.Disciplina)
	}
	require.Contains(t, result.Message, "Ana")
	require.Contains(t, result.Message, "Muay Thai")
}

func TestContactServicePartialFailure(t *testing.T) {
	primary := &deliveryStub{err: &StatusError{Code: 503, Body: "unavailable"}}
	secondary := &deliveryStub{}
	svc := NewContactService(nil, primary, secondary, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, dto.ChannelFailed, result.Status.Primary)
	require.Equal(t, dto.ChannelSuccess, result.Status.Secondary)
	require.Equal(t, []string{"primary: HTTP 503: unavailable"}, result.Status.Errors)
}

func TestContactServiceSecondaryOnlyFailure(t *testing.T) {
	primary := &deliveryStub{}
	secondary := &deliveryStub{err: errors.New("duplicate key")}
	svc := NewContactService(nil, primary, secondary, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, dto.ChannelSuccess, result.Status.Primary)
	require.Equal(t, dto.ChannelFailed, result.Status.Secondary)
	require.Equal(t, []string{"secondary: duplicate key"}, result.Status.Errors)
}

func TestContactServiceTotalFailure(t *testing.T) {
	primary := &deliveryStub{err: &ConnectionError{Err: errors.New("connection refused")}}
	svc := NewContactService(nil, primary, nil, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.False(t, result.OK)
	require.Equal(t, dto.ChannelFailed, result.Status.Primary)
	require.Equal(t, dto.ChannelFailed, result.Status.Secondary)
	require.Equal(t, []string{
		"primary connection: connection refused",
		"secondary: store not configured",
	}, result.Status.Errors)
}

func TestContactServiceVerificationRejectedSkipsDelivery(t *testing.T) {
	primary := &deliveryStub{}
	secondary := &deliveryStub{}
	publisher := &publisherStub{}
	verifier := &verifierStub{err: fmt.Errorf("%w: score too low", ErrVerificationFailed)}
	svc := NewContactService(verifier, primary, secondary, validator.New(), testLogger(), publisher)

	raw := exampleRaw()
	raw["captchaToken"] = "bad-token"
	_, err := svc.Relay(context.Background(), RelayRequest{Raw: raw})

	require.ErrorIs(t, err, ErrVerificationFailed)
	require.Equal(t, []string{"bad-token"}, verifier.tokens)
	require.Zero(t, primary.calls())
	require.Zero(t, secondary.calls())
	flushEvents(t, svc)
	require.Empty(t, publisher.received())
}

func TestContactServiceWithoutSecretProceedsWithoutToken(t *testing.T) {
	primary := &deliveryStub{}
	verifier := NewHumanVerifier("", "http://127.0.0.1:1", time.Second, testLogger())
	svc := NewContactService(verifier, primary, &deliveryStub{}, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 1, primary.calls())
}

func TestContactServiceMissingBackendURL(t *testing.T) {
	primary := &deliveryStub{baseErr: ErrBackendNotConfigured}
	secondary := &deliveryStub{}
	publisher := &publisherStub{}
	svc := NewContactService(nil, primary, secondary, validator.New(), testLogger(), publisher)

	_, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.ErrorIs(t, err, ErrBackendNotConfigured)
	require.Zero(t, primary.calls())
	require.Zero(t, secondary.calls())
	flushEvents(t, svc)
	require.Empty(t, publisher.received())

	_, err = NewContactService(nil, nil, secondary, validator.New(), testLogger()).Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.ErrorIs(t, err, ErrBackendNotConfigured)
}

func TestContactServicePublishesOneEventPerRelay(t *testing.T) {
	failing := &publisherStub{err: errors.New("sink down")}
	publisher := &publisherStub{}
	primary := &deliveryStub{err: errors.New("boom")}
	svc := NewContactService(nil, primary, &deliveryStub{err: errors.New("boom")}, validator.New(), testLogger(), failing, publisher)

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw(), CorrelationID: "corr-1"})
	require.NoError(t, err)
	require.False(t, result.OK)

	flushEvents(t, svc)
	require.Len(t, failing.received(), 1)
	require.Len(t, publisher.received(), 1)
	event := publisher.received()[0]
	require.Equal(t, "corr-1", event.CorrelationID)
	require.Equal(t, "muay-thai", event.Discipline)
	require.Equal(t, "a***@b.com", event.Email)
	require.False(t, event.OK)
	require.Equal(t, 2, event.ErrorCount)
}

func TestContactServiceDefaultsFromEmptyBody(t *testing.T) {
	primary := &deliveryStub{}
	svc := NewContactService(nil, primary, nil, validator.New(), testLogger())

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: map[string]interface{}{}})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, "Alumno", primary.payloads[0].Nombre)
	require.Empty(t, primary.payloads[0].Disciplina)
	require.Contains(t, result.Message, "nuestra disciplina")
}

func TestContactServiceEndToEndWithStores(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	db, err := gorm.Open(sqlite.Open("file:relay_e2e?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Contact{}))

	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	svc := NewContactService(
		nil,
		NewHTTPBackend(backend.URL+"/", time.Second),
		NewStoreDelivery(repository.NewContactRepository(db, models.DefaultContactTable)),
		validator.New(),
		testLogger(),
		NewRedisStreamPublisher(redisClient, "dojo:contact:events", 100),
	)

	result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Nil(t, result.Status.Errors)

	flushEvents(t, svc)

	var rows []models.Contact
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "muay-thai", rows[0].Disciplina)

	entries, err := redisClient.XRange(context.Background(), "dojo:contact:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "muay-thai", entries[0].Values["discipline"])
}

func TestContactServiceDoesNotWaitForSlowPublishers(t *testing.T) {
	slow := &publisherStub{release: make(chan struct{})}
	svc := NewContactService(nil, &deliveryStub{}, &deliveryStub{}, validator.New(), testLogger(), slow)

	done := make(chan RelayResult, 1)
	go func() {
		result, err := svc.Relay(context.Background(), RelayRequest{Raw: exampleRaw()})
		if err == nil {
			done <- result
		}
		close(done)
	}()

	select {
	case result, ok := <-done:
		require.True(t, ok)
		require.True(t, result.OK)
	case <-time.After(time.Second):
		t.Fatal("relay blocked on event publishing")
	}
	require.Empty(t, slow.received())

	close(slow.release)
	flushEvents(t, svc)
	require.Len(t, slow.received(), 1)
}

func TestContactServiceEventsCarryPrintableDiscipline(t *testing.T) {
	primary := &deliveryStub{}
	publisher := &publisherStub{}
	svc := NewContactService(nil, primary, &deliveryStub{}, validator.New(), testLogger(), publisher)

	raw := exampleRaw()
	raw["disciplina"] = "<b>Capoeira</b>"
	_, err := svc.Relay(context.Background(), RelayRequest{Raw: raw})
	require.NoError(t, err)
	flushEvents(t, svc)

	require.Equal(t, "<b>Capoeira</b>", primary.payloads[0].Disciplina)
	require.Equal(t, "Capoeira", publisher.received()[0].Discipline)
}
