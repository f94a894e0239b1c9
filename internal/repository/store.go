package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

// ListOptions narrows a listing. Hard-deleted records are never listed;
// soft-deleted ones only with IncludeDeleted.
type ListOptions struct {
	Namespace      string
	IncludeDeleted bool
}

func (o ListOptions) apply(q *gorm.DB) *gorm.DB {
	if o.Namespace != "" {
		q = q.Where("namespace = ?", o.Namespace)
	}
	if o.IncludeDeleted {
		return q.Where("deletion <> ?", entity.DeletionHardDeleted)
	}
	return q.Where("deletion = ?", entity.DeletionLive)
}

type record[M any, E any] interface {
	*M
	ToEntity() E
	FromEntity(E)
	deletionColumn() *string
}

// store implements the persistence shared by the composable entities.
type store[M any, E any, PM record[M, E]] struct {
	db   *gorm.DB
	kind entity.Kind
}

func (s *store[M, E, PM]) create(ctx context.Context, e E) (E, error) {
	var model M
	PM(&model).FromEntity(e)
	if err := gorm.G[M](conn(ctx, s.db)).Create(ctx, &model); err != nil {
		var zero E
		return zero, translate(s.kind, "", err)
	}
	return PM(&model).ToEntity(), nil
}

func (s *store[M, E, PM]) getByID(ctx context.Context, id entity.ID) (E, error) {
	found, err := gorm.G[M](conn(ctx, s.db)).Where("id = ?", idOf(id)).First(ctx)
	if err != nil {
		var zero E
		return zero, translate(s.kind, id, err)
	}
	return PM(&found).ToEntity(), nil
}

func (s *store[M, E, PM]) getByName(ctx context.Context, namespace, name string) (E, error) {
	found, err := gorm.G[M](conn(ctx, s.db)).
		Where("namespace = ? AND name = ? AND deletion <> ?", namespace, name, entity.DeletionHardDeleted).
		First(ctx)
	if err != nil {
		var zero E
		return zero, translate(s.kind, entity.ID(namespace+"/"+name), err)
	}
	return PM(&found).ToEntity(), nil
}

func (s *store[M, E, PM]) list(ctx context.Context, opts ListOptions, scopes ...func(*gorm.DB) *gorm.DB) ([]E, error) {
	var founds []M
	q := opts.apply(conn(ctx, s.db).WithContext(ctx).Model(new(M))).Scopes(scopes...)
	if err := q.Order("id").Find(&founds).Error; err != nil {
		return nil, err
	}
	res := make([]E, len(founds))
	for i := range founds {
		res[i] = PM(&founds[i]).ToEntity()
	}
	return res, nil
}

// update overwrites the mutable columns of an existing row. The deletion
// state is left alone; only setDeletion changes it.
func (s *store[M, E, PM]) update(ctx context.Context, id entity.ID, e E) (E, error) {
	db := conn(ctx, s.db)
	found, err := gorm.G[M](db).Where("id = ?", idOf(id)).First(ctx)
	if err != nil {
		var zero E
		return zero, translate(s.kind, id, err)
	}
	keep := *PM(&found).deletionColumn()
	PM(&found).FromEntity(e)
	*PM(&found).deletionColumn() = keep
	if err := db.WithContext(ctx).Save(&found).Error; err != nil {
		var zero E
		return zero, translate(s.kind, id, err)
	}
	return s.getByID(ctx, id)
}

func (s *store[M, E, PM]) setDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	res := conn(ctx, s.db).WithContext(ctx).Model(new(M)).Where("id = ?", idOf(id)).Update("deletion", string(state))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.NotFoundError{Kind: s.kind, ID: id}
	}
	return nil
}
