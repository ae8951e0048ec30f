package categories

import (
	"context"

	"github.com/mygardenbook/gardenbook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string, typ *string) (*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	// FindByNameFold looks a category up by name, ignoring case.
	FindByNameFold(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, id int64) error
}
