package memory

import (
	"context"
	"fmt"
	"sort"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/data/repository"

	"github.com/google/uuid"
)

type resourceRepository struct {
	s  *Store
	tx *txState
}

func (r *resourceRepository) Create(ctx context.Context, resource *entity.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resources[resource.ID]; ok {
		return fmt.Errorf("create resource %s: %w id", resource.Code, repository.ErrDuplicate)
	}
	for _, existing := range r.s.resources {
		if existing.Code == resource.Code {
			return fmt.Errorf("create resource %s: %w code", resource.Code, repository.ErrDuplicate)
		}
	}

	r.s.resources[resource.ID] = cloneResource(resource)
	r.tx.onRollback(func() { delete(r.s.resources, resource.ID) })
	return nil
}

func (r *resourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	resource, ok := r.s.resources[id]
	if !ok {
		return nil, nil
	}
	return cloneResource(resource), nil
}

func (r *resourceRepository) FindAll(ctx context.Context, activeOnly bool) ([]*entity.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var resources []*entity.Resource
	for _, resource := range r.s.resources {
		if activeOnly && !resource.IsActive {
			continue
		}
		resources = append(resources, cloneResource(resource))
	}

	sort.Slice(resources, func(i, j int) bool { return resources[i].Code < resources[j].Code })
	return resources, nil
}

func (r *resourceRepository) Lock(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	if err := r.s.lock(ctx, r.tx, "resource:"+id.String()); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
