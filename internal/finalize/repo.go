package finalize

import (
	"context"
	"fmt"

	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/db/models"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

// Repository writes finalized quotes to the database.
type Repository struct {
	db *db.Client
}

// NewRepository wraps the shared database client.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &Repository{db: client}, nil
}

// Save inserts the record. Quote numbers are unique; a collision means
// the same finalize ran twice and the second attempt is rejected.
func (r *Repository) Save(ctx context.Context, record *models.QuoteRecord) error {
	if err := r.db.DB().WithContext(ctx).Create(record).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "quote already recorded")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quote record")
	}
	return nil
}
