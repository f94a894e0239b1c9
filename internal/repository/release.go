package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

type ReleaseRepository interface {
	Create(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.ReleaseConfig, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.ReleaseConfig, error)
	// ListBySourceControl returns the live, active releases that build from
	// the given source control and branch.
	ListBySourceControl(ctx context.Context, name, branch string) ([]*entity.ReleaseConfig, error)
	Update(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error)
	SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error
	SetStatus(ctx context.Context, id entity.ID, status entity.ReleaseStatus) error
}

type releaseRepositoryImpl struct {
	store[Release, *entity.ReleaseConfig, *Release]
}

func NewReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &releaseRepositoryImpl{store[Release, *entity.ReleaseConfig, *Release]{db: db, kind: entity.KindRelease}}
}

func (r *releaseRepositoryImpl) Create(ctx context.Context, rel *entity.ReleaseConfig) (*entity.ReleaseConfig, error) {
	return r.create(ctx, rel)
}

func (r *releaseRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error) {
	return r.getByID(ctx, id)
}

func (r *releaseRepositoryImpl) GetByName(ctx context.Context, namespace, name string) (*entity.ReleaseConfig, error) {
	return r.getByName(ctx, namespace, name)
}

func (r *releaseRepositoryImpl) List(ctx context.Context, opts ListOptions) ([]*entity.ReleaseConfig, error) {
	return r.list(ctx, opts)
}

func (r *releaseRepositoryImpl) ListBySourceControl(ctx context.Context, name, branch string) ([]*entity.ReleaseConfig, error) {
	return r.list(ctx, ListOptions{}, func(q *gorm.DB) *gorm.DB {
		return q.Where("required_source_control = ? AND code_source_control_name = ? AND source_control_branch = ? AND status = ?",
			true, name, branch, string(entity.ReleaseStatusActive))
	})
}

func (r *releaseRepositoryImpl) Update(ctx context.Context, rel *entity.ReleaseConfig) (*entity.ReleaseConfig, error) {
	return r.update(ctx, rel.ID, rel)
}

func (r *releaseRepositoryImpl) SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	return r.setDeletion(ctx, id, state)
}

func (r *releaseRepositoryImpl) SetStatus(ctx context.Context, id entity.ID, status entity.ReleaseStatus) error {
	res := conn(ctx, r.db).WithContext(ctx).Model(&Release{}).Where("id = ?", idOf(id)).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.NotFoundError{Kind: entity.KindRelease, ID: id}
	}
	return nil
}
