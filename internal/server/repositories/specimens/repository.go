// Package specimens stores plant and fish rows. Both kinds share one
// implementation; the table is chosen by models.Kind.
package specimens

import (
	"context"

	"github.com/mygardenbook/gardenbook/internal/server/models"
)

type Repository interface {
	// Insert writes a new row and returns the id assigned by the database.
	Insert(ctx context.Context, kind models.Kind, fields models.SpecimenFields, image models.AssetRef) (int64, error)
	// GetByID returns common.ErrNotFound when no row has the id.
	GetByID(ctx context.Context, kind models.Kind, id int64) (*models.Specimen, error)
	// List returns all rows, newest first.
	List(ctx context.Context, kind models.Kind) ([]*models.Specimen, error)
	// Update applies the present patch fields and, when image is non-nil,
	// replaces the image pair. Returns common.ErrNotFound for a missing row.
	Update(ctx context.Context, kind models.Kind, id int64, patch models.SpecimenPatch, image *models.AssetRef) error
	// SetScanCode replaces the scan-code pair.
	SetScanCode(ctx context.Context, kind models.Kind, id int64, ref models.AssetRef) error
	// Delete removes the row. Returns common.ErrNotFound for a missing row.
	Delete(ctx context.Context, kind models.Kind, id int64) error
	// CountByCategory counts rows whose category equals name exactly.
	CountByCategory(ctx context.Context, kind models.Kind, name string) (int64, error)
}
