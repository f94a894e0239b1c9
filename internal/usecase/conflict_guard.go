package usecase

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/metrics"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

// ConflictGuard tracks who refers to whom and refuses deletes that would
// leave a referrer dangling.
type ConflictGuard interface {
	// DependentsOf lists every non-hard-deleted referrer of ref.
	DependentsOf(ctx context.Context, ref entity.Ref) ([]entity.Dependent, error)
	// GuardDelete runs fn in a transaction while holding ref exclusively.
	// fn is not called when ref still has referrers that block the delete:
	// live ones for a soft delete, any non-hard-deleted one for a hard delete.
	GuardDelete(ctx context.Context, ref entity.Ref, hard bool, fn func(ctx context.Context) error) error
	// Reference runs fn in a transaction while holding every target in shared
	// mode. Writers that add references to targets go through here.
	Reference(ctx context.Context, targets []entity.Ref, fn func(ctx context.Context) error) error
}

type conflictGuardImpl struct {
	locks      *keyedRWMutex
	tx         repository.Transactor
	references repository.ReferenceRepository
}

func NewConflictGuard(i *do.Injector) (ConflictGuard, error) {
	return &conflictGuardImpl{
		locks:      newKeyedRWMutex(),
		tx:         do.MustInvoke[repository.Transactor](i),
		references: do.MustInvoke[repository.ReferenceRepository](i),
	}, nil
}

func (g *conflictGuardImpl) DependentsOf(ctx context.Context, ref entity.Ref) ([]entity.Dependent, error) {
	return g.references.Dependents(ctx, ref, entity.DeletionLive, entity.DeletionSoftDeleted)
}

func (g *conflictGuardImpl) GuardDelete(ctx context.Context, ref entity.Ref, hard bool, fn func(ctx context.Context) error) error {
	unlock := g.locks.Lock(ref)
	defer unlock()

	blocking := []entity.DeletionState{entity.DeletionLive}
	if hard {
		blocking = append(blocking, entity.DeletionSoftDeleted)
	}
	return g.tx.Transaction(ctx, func(ctx context.Context) error {
		deps, err := g.references.Dependents(ctx, ref, blocking...)
		if err != nil {
			return err
		}
		if len(deps) > 0 {
			metrics.DeleteConflicts.WithLabelValues(string(ref.Kind)).Inc()
			zerolog.Ctx(ctx).Info().
				Str("ref", ref.String()).
				Bool("hard", hard).
				Int("dependents", len(deps)).
				Msg("delete blocked by dependents")
			return &entity.ConflictError{Dependents: deps}
		}
		return fn(ctx)
	})
}

func (g *conflictGuardImpl) Reference(ctx context.Context, targets []entity.Ref, fn func(ctx context.Context) error) error {
	unlock := g.locks.RLock(targets...)
	defer unlock()
	return g.tx.Transaction(ctx, fn)
}
