package repository

import (
	"context"
	"errors"
	"fmt"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type variantRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL для чтения справочника вариантов
}

// NewVariantRepository создает репозиторий справочника вариантов
func NewVariantRepository(db *pgxpool.Pool) VariantRepository {
	return &variantRepository{db: db}
}

// GetAll получает все группы вариантов, отсортированные по id
// Результат кешируется в Redis через service layer
func (r *variantRepository) GetAll(ctx context.Context) (variants []entity.Variant, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "variants")
	defer func() { timer.Done(err) }()

	query := `SELECT id, title, description, created_at FROM variants ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}
	defer rows.Close()

	variants = []entity.Variant{}
	for rows.Next() {
		var variant entity.Variant
		if err := rows.Scan(&variant.ID, &variant.Title, &variant.Description, &variant.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

// GetByID получает группу вариантов по id
func (r *variantRepository) GetByID(ctx context.Context, id uint64) (*entity.Variant, error) {
	query := `SELECT id, title, description, created_at FROM variants WHERE id = $1`

	var variant entity.Variant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&variant.ID,
		&variant.Title,
		&variant.Description,
		&variant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant by id: %w", err)
	}

	return &variant, nil
}
