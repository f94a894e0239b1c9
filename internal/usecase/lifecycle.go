package usecase

import (
	"context"
	"errors"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/metrics"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/rs/zerolog"
	k8svalidation "k8s.io/apimachinery/pkg/util/validation"
)

type metaEntity interface {
	GetMeta() *entity.Meta
}

type lifecycleRepository[E metaEntity] interface {
	GetByID(ctx context.Context, id entity.ID) (E, error)
	GetByName(ctx context.Context, namespace, name string) (E, error)
	SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error
}

// lifecycle implements lookup, two-phase delete and restore for one kind of
// composable entity.
type lifecycle[E metaEntity] struct {
	kind       entity.Kind
	repo       lifecycleRepository[E]
	guard      ConflictGuard
	references repository.ReferenceRepository
	// targets lists the entities e refers to.
	targets func(e E) []entity.Ref
	// restored runs inside the restore transaction.
	restored func(ctx context.Context, e E) error
}

// get hides hard-deleted records.
func (l *lifecycle[E]) get(ctx context.Context, id entity.ID) (E, error) {
	var zero E
	if id.IsZero() {
		return zero, entity.Invalid("id", "is required")
	}
	if err := id.Validate("id"); err != nil {
		return zero, err
	}
	e, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if e.GetMeta().Deletion.HardDeleted() {
		return zero, &entity.NotFoundError{Kind: l.kind, ID: id}
	}
	return e, nil
}

func (l *lifecycle[E]) getByName(ctx context.Context, namespace, name string) (E, error) {
	var zero E
	if namespace == "" || name == "" {
		return zero, entity.Invalid("name", "namespace and name are required")
	}
	return l.repo.GetByName(ctx, namespace, name)
}

// checkName fails when another non-hard-deleted record already uses name.
func (l *lifecycle[E]) checkName(ctx context.Context, namespace, name string, self entity.ID) error {
	found, err := l.repo.GetByName(ctx, namespace, name)
	if errors.Is(err, entity.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if found.GetMeta().ID == self {
		return nil
	}
	return entity.Invalid("name", "%s %q already exists in namespace %q", l.kind, name, namespace)
}

func (l *lifecycle[E]) delete(ctx context.Context, id entity.ID, confirm bool) (E, error) {
	var zero E
	cur, err := l.get(ctx, id)
	if err != nil {
		return zero, err
	}
	meta := cur.GetMeta()
	next, err := meta.Deletion.NextDelete(confirm)
	if err != nil {
		return zero, err
	}
	ref := meta.Ref(l.kind)
	err = l.guard.GuardDelete(ctx, ref, next.HardDeleted(), func(ctx context.Context) error {
		if err := l.unchanged(ctx, id, meta.Deletion); err != nil {
			return err
		}
		if err := l.repo.SetDeletion(ctx, id, next); err != nil {
			return err
		}
		return l.references.SetState(ctx, ref, next)
	})
	if err != nil {
		return zero, err
	}
	metrics.Deletions.WithLabelValues(string(l.kind), string(next)).Inc()
	zerolog.Ctx(ctx).Info().Str("ref", ref.String()).Str("state", string(next)).Msg("deleted")
	return l.repo.GetByID(ctx, id)
}

func (l *lifecycle[E]) deleteByName(ctx context.Context, namespace, name string, confirm bool) (E, error) {
	found, err := l.getByName(ctx, namespace, name)
	if err != nil {
		var zero E
		return zero, err
	}
	return l.delete(ctx, found.GetMeta().ID, confirm)
}

func (l *lifecycle[E]) restore(ctx context.Context, id entity.ID) (E, error) {
	var zero E
	cur, err := l.get(ctx, id)
	if err != nil {
		return zero, err
	}
	meta := cur.GetMeta()
	next, err := meta.Deletion.Restore()
	if err != nil {
		return zero, err
	}
	ref := meta.Ref(l.kind)
	var targets []entity.Ref
	if l.targets != nil {
		targets = l.targets(cur)
	}
	err = l.guard.Reference(ctx, targets, func(ctx context.Context) error {
		if err := l.checkName(ctx, meta.Namespace, meta.Name, id); err != nil {
			return err
		}
		if err := l.unchanged(ctx, id, meta.Deletion); err != nil {
			return err
		}
		if err := l.repo.SetDeletion(ctx, id, next); err != nil {
			return err
		}
		if err := l.references.SetState(ctx, ref, next); err != nil {
			return err
		}
		if l.restored != nil {
			return l.restored(ctx, cur)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	metrics.Deletions.WithLabelValues(string(l.kind), string(next)).Inc()
	zerolog.Ctx(ctx).Info().Str("ref", ref.String()).Msg("restored")
	return l.repo.GetByID(ctx, id)
}

func (l *lifecycle[E]) unchanged(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	fresh, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if fresh.GetMeta().Deletion != state {
		return entity.Invalid("deletion_state", "%s %s changed concurrently, retry", l.kind, id)
	}
	return nil
}

// validateMeta checks namespace and name. Container names are DNS labels,
// every other name a DNS subdomain.
func validateMeta(kind entity.Kind, m *entity.Meta) error {
	if m.Namespace == "" {
		return entity.Invalid("namespace", "is required")
	}
	if errs := k8svalidation.IsDNS1123Label(m.Namespace); len(errs) > 0 {
		return entity.Invalid("namespace", "%s", errs[0])
	}
	if m.Name == "" {
		return entity.Invalid("name", "is required")
	}
	check := k8svalidation.IsDNS1123Subdomain
	if kind == entity.KindContainer {
		check = k8svalidation.IsDNS1123Label
	}
	if errs := check(m.Name); len(errs) > 0 {
		return entity.Invalid("name", "%s", errs[0])
	}
	return nil
}

// sameNamespace rejects attempts to move a record between namespaces.
func sameNamespace(cur, next *entity.Meta) error {
	if next.Namespace == "" {
		next.Namespace = cur.Namespace
	}
	if next.Namespace != cur.Namespace {
		return entity.Invalid("namespace", "cannot be changed")
	}
	return nil
}
