package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ReferenceRepository maintains the reverse-reference index: for every
// entity, which other entities point at it.
type ReferenceRepository interface {
	// Replace sets the outgoing edges of from to exactly targets.
	Replace(ctx context.Context, from entity.Ref, name string, state entity.DeletionState, targets []entity.Ref) error
	// SetState records a new deletion state for every edge leaving from.
	SetState(ctx context.Context, from entity.Ref, state entity.DeletionState) error
	// Dependents lists the referrers of to whose deletion state is one of
	// states, ordered by kind then id.
	Dependents(ctx context.Context, to entity.Ref, states ...entity.DeletionState) ([]entity.Dependent, error)
}

type referenceRepositoryImpl struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepositoryImpl{db: db}
}

func (r *referenceRepositoryImpl) Replace(ctx context.Context, from entity.Ref, name string, state entity.DeletionState, targets []entity.Ref) error {
	db := conn(ctx, r.db)
	if _, err := gorm.G[Reference](db).
		Where("from_kind = ? AND from_id = ?", string(from.Kind), idOf(from.ID)).
		Delete(ctx); err != nil {
		return err
	}
	targets = lo.Uniq(lo.Filter(targets, func(t entity.Ref, _ int) bool { return !t.ID.IsZero() }))
	if len(targets) == 0 {
		return nil
	}
	for _, t := range targets {
		if err := t.ID.Validate(string(t.Kind)); err != nil {
			return err
		}
	}
	if state == "" {
		state = entity.DeletionLive
	}
	edges := lo.Map(targets, func(t entity.Ref, _ int) Reference {
		return Reference{
			FromKind:     string(from.Kind),
			FromID:       idOf(from.ID),
			FromName:     name,
			FromDeletion: string(state),
			ToKind:       string(t.Kind),
			ToID:         idOf(t.ID),
		}
	})
	return gorm.G[Reference](db).CreateInBatches(ctx, &edges, 100)
}

func (r *referenceRepositoryImpl) SetState(ctx context.Context, from entity.Ref, state entity.DeletionState) error {
	return conn(ctx, r.db).WithContext(ctx).Model(&Reference{}).
		Where("from_kind = ? AND from_id = ?", string(from.Kind), idOf(from.ID)).
		Update("from_deletion", string(state)).Error
}

func (r *referenceRepositoryImpl) Dependents(ctx context.Context, to entity.Ref, states ...entity.DeletionState) ([]entity.Dependent, error) {
	q := gorm.G[Reference](conn(ctx, r.db)).Where("to_kind = ? AND to_id = ?", string(to.Kind), idOf(to.ID))
	if len(states) > 0 {
		q = q.Where("from_deletion IN ?", lo.Map(states, func(s entity.DeletionState, _ int) string { return string(s) }))
	}
	edges, err := q.Order("from_kind").Order("from_id").Find(ctx)
	if err != nil {
		return nil, err
	}
	deps := lo.Map(edges, func(e Reference, _ int) entity.Dependent {
		return entity.Dependent{
			Type:     entity.Kind(e.FromKind),
			Name:     e.FromName,
			ID:       entity.NewID(e.FromID),
			Deletion: entity.DeletionState(e.FromDeletion),
		}
	})
	return lo.UniqBy(deps, func(d entity.Dependent) entity.Ref { return entity.Ref{Kind: d.Type, ID: d.ID} }), nil
}
