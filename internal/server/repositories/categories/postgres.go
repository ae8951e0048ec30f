package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, name string, typ *string) (*models.Category, error) {
	query :=
		`INSERT INTO categories (name, type)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	c := &models.Category{Name: name, Type: typ}
	err := r.db.QueryRowContext(ctx, query, name, typ).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrCategoryExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT id, name, type, created_at FROM categories WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) FindByNameFold(ctx context.Context, name string) (*models.Category, error) {
	query := `SELECT id, name, type, created_at FROM categories WHERE lower(name) = lower($1)`
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, type, created_at FROM categories ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	result := []*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (*models.Category, error) {
	var (
		c   = &models.Category{}
		typ sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.CreatedAt); err != nil {
		return nil, err
	}
	if typ.Valid {
		t := typ.String
		c.Type = &t
	}
	return c, nil
}
