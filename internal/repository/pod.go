package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

type PodRepository interface {
	Create(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.PodSpec, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.PodSpec, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.PodSpec, error)
	Update(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error)
	SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error
}

type podRepositoryImpl struct {
	store[Pod, *entity.PodSpec, *Pod]
}

func NewPodRepository(db *gorm.DB) PodRepository {
	return &podRepositoryImpl{store[Pod, *entity.PodSpec, *Pod]{db: db, kind: entity.KindPod}}
}

func (r *podRepositoryImpl) Create(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error) {
	return r.create(ctx, p)
}

func (r *podRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.PodSpec, error) {
	return r.getByID(ctx, id)
}

func (r *podRepositoryImpl) GetByName(ctx context.Context, namespace, name string) (*entity.PodSpec, error) {
	return r.getByName(ctx, namespace, name)
}

func (r *podRepositoryImpl) List(ctx context.Context, opts ListOptions) ([]*entity.PodSpec, error) {
	return r.list(ctx, opts)
}

func (r *podRepositoryImpl) Update(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error) {
	return r.update(ctx, p.ID, p)
}

func (r *podRepositoryImpl) SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	return r.setDeletion(ctx, id, state)
}
