package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/dojo-contact-api/internal/models"
)

// ContactRepository inserts relayed submissions into the hosted contact table.
type ContactRepository interface {
	Insert(ctx context.Context, contact *models.Contact) error
}

type contactRepository struct {
	db    *gorm.DB
	table string
}

// NewContactRepository constructs a repository backed by GORM writing to the given table.
func NewContactRepository(db *gorm.DB, table string) ContactRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = models.DefaultContactTable
	}
	return &contactRepository{db: db, table: table}
}

func (r *contactRepository) Insert(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Table(r.table).Create(contact).Error
}
