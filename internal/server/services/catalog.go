package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
)

// CatalogService serves the public read side. No credential is needed.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

// ListSpecimens returns every specimen of kind, newest first.
func (s *CatalogService) ListSpecimens(ctx context.Context, kind models.Kind) ([]*models.Specimen, error) {
	if !kind.Valid() {
		return nil, common.Validationf("unknown specimen kind %q", kind)
	}
	list, err := s.repomanager.Specimens(s.db).List(ctx, kind)
	if err != nil {
		return nil, common.Dependency("list specimens", err)
	}
	return list, nil
}

func (s *CatalogService) GetSpecimen(ctx context.Context, kind models.Kind, id int64) (*models.Specimen, error) {
	if !kind.Valid() {
		return nil, common.Validationf("unknown specimen kind %q", kind)
	}
	sp, err := s.repomanager.Specimens(s.db).GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.Dependency("get specimen", err)
	}
	return sp, nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	list, err := s.repomanager.Categories(s.db).List(ctx)
	if err != nil {
		return nil, common.Dependency("list categories", err)
	}
	return list, nil
}
