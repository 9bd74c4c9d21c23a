package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slot-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seed creates active resources from a "CODE:Name,CODE:Name" list. A missing name falls back to the code.
func (s *Store) Seed(ctx context.Context, list string, now time.Time) ([]*entity.Resource, error) {
	repo := s.Repository()

	var created []*entity.Resource
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		code, name, _ := strings.Cut(item, ":")
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("seed resource %q: empty code", item)
		}
		if name == "" {
			name = code
		}

		resource := &entity.Resource{
			BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Code:         code,
			Name:         name,
			IsActive:     true,
		}
		if err := repo.Resource.Create(ctx, resource); err != nil {
			return nil, fmt.Errorf("seed resource %s: %w", code, err)
		}

		s.log.Info("Resource seeded", zap.String("code", code), zap.String("resource_id", resource.ID.String()))
		created = append(created, resource)
	}

	return created, nil
}
