package repository

import (
	"context"
	"errors"
	"fmt"

	"slot-booking/internal/data/entity"
	"slot-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type resourceRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewResourceRepository(db database.Querier, log *zap.Logger) ResourceRepository {
	return &resourceRepository{
		db:  db,
		log: log.With(zap.String("repository", "resource")),
	}
}

func (r *resourceRepository) Create(ctx context.Context, resource *entity.Resource) error {
	query := `
		INSERT INTO resources (id, code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		resource.ID,
		resource.Code,
		resource.Name,
		resource.IsActive,
		resource.CreatedAt,
		resource.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create resource",
			zap.Error(err),
			zap.String("code", resource.Code),
		)
		return fmt.Errorf("create resource %s: %w", resource.Code, classify(err))
	}

	return nil
}

func (r *resourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	query := `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM resources
		WHERE id = $1
	`

	return r.findOne(ctx, query, id)
}

func (r *resourceRepository) Lock(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	if !inTx(r.db) {
		return nil, ErrTxRequired
	}

	query := `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM resources
		WHERE id = $1
		FOR UPDATE
	`

	return r.findOne(ctx, query, id)
}

func (r *resourceRepository) FindAll(ctx context.Context, activeOnly bool) ([]*entity.Resource, error) {
	query := `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM resources
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY code
	`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		r.log.Error("Failed to find resources", zap.Error(err))
		return nil, fmt.Errorf("find resources: %w", err)
	}
	defer rows.Close()

	var resources []*entity.Resource
	for rows.Next() {
		var resource entity.Resource
		err := rows.Scan(
			&resource.ID,
			&resource.Code,
			&resource.Name,
			&resource.IsActive,
			&resource.CreatedAt,
			&resource.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan resource row", zap.Error(err))
			return nil, fmt.Errorf("scan resource row: %w", err)
		}
		resources = append(resources, &resource)
	}

	return resources, rows.Err()
}

func (r *resourceRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Resource, error) {
	var resource entity.Resource
	err := r.db.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.Code,
		&resource.Name,
		&resource.IsActive,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find resource by ID",
			zap.Error(err),
			zap.String("resource_id", id.String()),
		)
		return nil, fmt.Errorf("find resource by ID %s: %w", id.String(), err)
	}

	return &resource, nil
}
