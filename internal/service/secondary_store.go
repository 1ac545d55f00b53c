package service

import (
	"context"
	"errors"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
	"github.com/noah-isme/dojo-contact-api/internal/models"
	"github.com/noah-isme/dojo-contact-api/internal/repository"
)

// ErrSecondaryDisabled is reported by the secondary channel when no store is configured.
var ErrSecondaryDisabled = errors.New("store not configured")

// StoreDelivery inserts submissions into the hosted contact table.
type StoreDelivery struct {
	repo repository.ContactRepository
}

// NewStoreDelivery returns a delivery backed by repo, or a disabled delivery when repo is nil.
func NewStoreDelivery(repo repository.ContactRepository) ContactDelivery {
	if repo == nil {
		return DisabledDelivery{}
	}
	return &StoreDelivery{repo: repo}
}

// Deliver inserts one row.
func (s *StoreDelivery) Deliver(ctx context.Context, payload dto.ContactPayload) error {
	row := models.Contact{
		Nombre:     payload.Nombre,
		Apellido:   payload.Apellido,
		Email:      payload.Email,
		Telefono:   payload.Telefono,
		Disciplina: payload.Disciplina,
		Mensaje:    payload.Mensaje,
	}
	return s.repo.Insert(ctx, &row)
}

// DisabledDelivery performs no I/O and always reports ErrSecondaryDisabled.
type DisabledDelivery struct{}

// Deliver implements ContactDelivery.
func (DisabledDelivery) Deliver(context.Context, dto.ContactPayload) error {
	return ErrSecondaryDisabled
}
