package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

type ContainerRepository interface {
	Create(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.ContainerSpec, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.ContainerSpec, error)
	Update(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error)
	SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error
}

type containerRepositoryImpl struct {
	store[Container, *entity.ContainerSpec, *Container]
}

func NewContainerRepository(db *gorm.DB) ContainerRepository {
	return &containerRepositoryImpl{store[Container, *entity.ContainerSpec, *Container]{db: db, kind: entity.KindContainer}}
}

func (r *containerRepositoryImpl) Create(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error) {
	return r.create(ctx, c)
}

func (r *containerRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error) {
	return r.getByID(ctx, id)
}

func (r *containerRepositoryImpl) GetByName(ctx context.Context, namespace, name string) (*entity.ContainerSpec, error) {
	return r.getByName(ctx, namespace, name)
}

func (r *containerRepositoryImpl) List(ctx context.Context, opts ListOptions) ([]*entity.ContainerSpec, error) {
	return r.list(ctx, opts)
}

func (r *containerRepositoryImpl) Update(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error) {
	return r.update(ctx, c.ID, c)
}

func (r *containerRepositoryImpl) SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	return r.setDeletion(ctx, id, state)
}
