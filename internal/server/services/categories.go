package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/metrics"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
)

type categoryInput struct {
	Name string `validate:"required,max=100"`
	Type string `validate:"max=100"`
}

// CategoryService creates and removes categories. Specimens reference a
// category by name, so removal is refused while any plant or fish uses it.
type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, mt *metrics.Metrics) *CategoryService {
	return &CategoryService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "category_service"),
		metrics:     mt,
	}
}

// Create adds a category. Names are unique ignoring case.
func (s *CategoryService) Create(ctx context.Context, adminID, name string, typ *string) (*models.Category, error) {
	if adminID == "" {
		return nil, common.ErrMissingCredential
	}

	in := categoryInput{Name: strings.TrimSpace(name)}
	if typ != nil {
		in.Type = strings.TrimSpace(*typ)
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	var typePtr *string
	if in.Type != "" {
		typePtr = &in.Type
	}

	repo := s.repomanager.Categories(s.db)

	existing, err := repo.FindByNameFold(ctx, in.Name)
	switch {
	case err == nil:
		s.logger.Debug(ctx, "duplicate category", "name", in.Name, "existing", existing.Name)
		return nil, common.ErrCategoryExists
	case !errors.Is(err, common.ErrNotFound):
		return nil, common.Dependency("find category", err)
	}

	c, err := repo.Create(ctx, in.Name, typePtr)
	if err != nil {
		if errors.Is(err, common.ErrCategoryExists) {
			return nil, common.ErrCategoryExists
		}
		return nil, common.Dependency("create category", err)
	}

	s.logger.Info(ctx, "category created", "id", c.ID, "name", c.Name, "admin", adminID)
	return c, nil
}

// Delete removes a category nobody references. When specimens still use it
// the error is a *common.CategoryInUseError carrying the counts.
//
// The counts and the delete share a transaction, but a specimen inserted
// concurrently with the new name is not prevented.
func (s *CategoryService) Delete(ctx context.Context, adminID string, id int64) error {
	if adminID == "" {
		return common.ErrMissingCredential
	}

	var name string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cats := s.repomanager.Categories(tx)
		specs := s.repomanager.Specimens(tx)

		c, err := cats.GetByID(ctx, id)
		if err != nil {
			return err
		}
		name = c.Name

		plants, err := specs.CountByCategory(ctx, models.KindPlant, c.Name)
		if err != nil {
			return err
		}
		fish, err := specs.CountByCategory(ctx, models.KindFish, c.Name)
		if err != nil {
			return err
		}
		if plants > 0 || fish > 0 {
			return &common.CategoryInUseError{Name: c.Name, Plants: plants, Fish: fish}
		}

		return cats.Delete(ctx, id)
	})

	var inUse *common.CategoryInUseError
	switch {
	case err == nil:
		s.logger.Info(ctx, "category deleted", "id", id, "name", name, "admin", adminID)
		return nil
	case errors.As(err, &inUse):
		s.metrics.CategoryDeleteRefused()
		s.logger.Info(ctx, "category delete refused", "id", id, "name", inUse.Name, "plants", inUse.Plants, "fish", inUse.Fish)
		return inUse
	case errors.Is(err, common.ErrNotFound):
		return common.ErrNotFound
	default:
		return common.Dependency("delete category", err)
	}
}
