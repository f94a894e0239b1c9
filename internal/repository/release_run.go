package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

type ReleaseRunRepository interface {
	Create(ctx context.Context, run *entity.ReleaseRun) (*entity.ReleaseRun, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error)
	ListByRelease(ctx context.Context, releaseID entity.ID) ([]*entity.ReleaseRun, error)
	Update(ctx context.Context, run *entity.ReleaseRun) (*entity.ReleaseRun, error)
}

type releaseRunRepositoryImpl struct {
	db *gorm.DB
}

func NewReleaseRunRepository(db *gorm.DB) ReleaseRunRepository {
	return &releaseRunRepositoryImpl{db: db}
}

// Create a new run record.
func (r *releaseRunRepositoryImpl) Create(ctx context.Context, run *entity.ReleaseRun) (*entity.ReleaseRun, error) {
	var model ReleaseRun
	model.FromEntity(run)
	if err := gorm.G[ReleaseRun](conn(ctx, r.db)).Create(ctx, &model); err != nil {
		return nil, translate(entity.KindReleaseRun, "", err)
	}
	return model.ToEntity(), nil
}

// GetByID finds a run by id.
func (r *releaseRunRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error) {
	found, err := gorm.G[ReleaseRun](conn(ctx, r.db)).Where("id = ?", idOf(id)).First(ctx)
	if err != nil {
		return nil, translate(entity.KindReleaseRun, id, err)
	}
	return found.ToEntity(), nil
}

// ListByRelease lists the runs of a release in creation order.
func (r *releaseRunRepositoryImpl) ListByRelease(ctx context.Context, releaseID entity.ID) ([]*entity.ReleaseRun, error) {
	founds, err := gorm.G[ReleaseRun](conn(ctx, r.db)).Where("release_id = ?", idOf(releaseID)).Order("id").Find(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*entity.ReleaseRun, len(founds))
	for i, f := range founds {
		res[i] = f.ToEntity()
	}
	return res, nil
}

// Update the status and links of a run.
func (r *releaseRunRepositoryImpl) Update(ctx context.Context, run *entity.ReleaseRun) (*entity.ReleaseRun, error) {
	db := conn(ctx, r.db)
	res := db.WithContext(ctx).Model(&ReleaseRun{}).Where("id = ?", idOf(run.ID)).Updates(map[string]any{
		"image_name": run.ImageName,
		"pr_url":     run.PRURL,
		"jira":       run.Jira,
		"status":     string(run.Status),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &entity.NotFoundError{Kind: entity.KindReleaseRun, ID: run.ID}
	}
	return r.GetByID(ctx, run.ID)
}
