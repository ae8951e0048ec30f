package specimens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

const selectColumns = `id, name, scientific_name, category, description,
		image_url, image_public_id, qr_code_url, qr_public_id, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, kind models.Kind, fields models.SpecimenFields, image models.AssetRef) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, scientific_name, category, description, image_url, image_public_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id`, kind.Table())

	url, handle := assetArgs(image)

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		strings.TrimSpace(fields.Name),
		nullIfEmpty(fields.ScientificName),
		nullIfEmpty(fields.Category),
		nullIfEmpty(fields.Description),
		url, handle,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, kind models.Kind, id int64) (*models.Specimen, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, kind.Table())

	s, err := scanSpecimen(r.db.QueryRowContext(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, kind models.Kind) ([]*models.Specimen, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id DESC`, selectColumns, kind.Table())

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", kind.Table(), err)
	}
	defer rows.Close()

	result := []*models.Specimen{}
	for rows.Next() {
		s, err := scanSpecimen(rows, kind)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, kind models.Kind, id int64, patch models.SpecimenPatch, image *models.AssetRef) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if v, ok := patch.Name.Get(); ok {
		add("name", strings.TrimSpace(v))
	}
	if v, ok := patch.ScientificName.Get(); ok {
		add("scientific_name", nullIfEmpty(v))
	}
	if v, ok := patch.Category.Get(); ok {
		add("category", nullIfEmpty(v))
	}
	if v, ok := patch.Description.Get(); ok {
		add("description", nullIfEmpty(v))
	}
	if image != nil {
		url, handle := assetArgs(*image)
		add("image_url", url)
		add("image_public_id", handle)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, kind.Table(), strings.Join(sets, ", "), len(args))

	return r.execOne(ctx, query, args...)
}

func (r *PostgresRepository) SetScanCode(ctx context.Context, kind models.Kind, id int64, ref models.AssetRef) error {
	query := fmt.Sprintf(`UPDATE %s SET qr_code_url = $1, qr_public_id = $2, updated_at = now() WHERE id = $3`, kind.Table())
	url, handle := assetArgs(ref)
	return r.execOne(ctx, query, url, handle, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, kind models.Kind, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table())
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) CountByCategory(ctx context.Context, kind models.Kind, name string) (int64, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE category = $1`, kind.Table())

	var n int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// execOne runs a single-row write and maps "no row touched" to ErrNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpecimen(row scanner, kind models.Kind) (*models.Specimen, error) {
	var (
		s                                    = &models.Specimen{Kind: kind}
		scientificName, category, desc       sql.NullString
		imageURL, imageHandle, qrURL, qrHand sql.NullString
	)
	err := row.Scan(&s.ID, &s.Name, &scientificName, &category, &desc,
		&imageURL, &imageHandle, &qrURL, &qrHand, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.ScientificName = stringPtr(scientificName)
	s.Category = stringPtr(category)
	s.Description = stringPtr(desc)
	s.Image = assetRef(imageURL, imageHandle)
	s.ScanCode = assetRef(qrURL, qrHand)
	return s, nil
}

// assetRef only yields a complete pair; a half-set pair reads as empty.
func assetRef(url, handle sql.NullString) models.AssetRef {
	if !url.Valid || !handle.Valid || url.String == "" || handle.String == "" {
		return models.AssetRef{}
	}
	return models.AssetRef{URL: url.String, Handle: handle.String}
}

func assetArgs(ref models.AssetRef) (any, any) {
	if !ref.Complete() {
		return nil, nil
	}
	return ref.URL, ref.Handle
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullIfEmpty(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
