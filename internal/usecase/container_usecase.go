package usecase

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
)

type ContainerUsecase interface {
	Create(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error)
	Get(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.ContainerSpec, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*entity.ContainerSpec, error)
	Update(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error)
	Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.ContainerSpec, error)
	DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.ContainerSpec, error)
	Restore(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error)
	// Resolve merges the referenced profiles into a container definition.
	// Nothing is cached; every call reads the current profiles.
	Resolve(ctx context.Context, id entity.ID) (*compose.ResolvedContainer, error)
	Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error)
}

type containerUsecaseImpl struct {
	containers repository.ContainerRepository
	references repository.ReferenceRepository
	guard      ConflictGuard
	resolver   *resolver
	lifecycle  *lifecycle[*entity.ContainerSpec]
}

func NewContainerUsecase(i *do.Injector) (ContainerUsecase, error) {
	containers := do.MustInvoke[repository.ContainerRepository](i)
	references := do.MustInvoke[repository.ReferenceRepository](i)
	guard := do.MustInvoke[ConflictGuard](i)
	return &containerUsecaseImpl{
		containers: containers,
		references: references,
		guard:      guard,
		resolver:   newResolver(i),
		lifecycle: &lifecycle[*entity.ContainerSpec]{
			kind:       entity.KindContainer,
			repo:       containers,
			guard:      guard,
			references: references,
			targets:    containerTargets,
		},
	}, nil
}

func profileRefs(attr entity.DynamicAttr) []entity.Ref {
	return lo.MapToSlice(attr, func(_ string, id entity.ID) entity.Ref {
		return entity.Ref{Kind: entity.KindProfile, ID: id}
	})
}

func containerTargets(c *entity.ContainerSpec) []entity.Ref {
	return profileRefs(c.DynamicAttr)
}

var pullPolicies = []string{"", string(corev1.PullAlways), string(corev1.PullIfNotPresent), string(corev1.PullNever)}

func validateContainer(c *entity.ContainerSpec) error {
	if err := validateMeta(entity.KindContainer, &c.Meta); err != nil {
		return err
	}
	if !lo.Contains(pullPolicies, c.ImagePullPolicy) {
		return entity.Invalid("image_pull_policy", "must be one of %v", pullPolicies[1:])
	}
	attr, err := compose.NormalizeAttr(compose.ContainerSlots, c.DynamicAttr)
	if err != nil {
		return err
	}
	c.DynamicAttr = attr
	return nil
}

// save validates references and writes c in one transaction. create selects
// between insert and update.
func (u *containerUsecaseImpl) save(ctx context.Context, c *entity.ContainerSpec, create bool) (*entity.ContainerSpec, error) {
	var saved *entity.ContainerSpec
	err := u.guard.Reference(ctx, containerTargets(c), func(ctx context.Context) error {
		if err := u.lifecycle.checkName(ctx, c.Namespace, c.Name, c.ID); err != nil {
			return err
		}
		if _, err := u.resolver.container(ctx, c); err != nil {
			return err
		}
		var err error
		if create {
			saved, err = u.containers.Create(ctx, c)
		} else {
			saved, err = u.containers.Update(ctx, c)
		}
		if err != nil {
			return err
		}
		return u.references.Replace(ctx, saved.Ref(entity.KindContainer), saved.Name, saved.Deletion, containerTargets(saved))
	})
	return saved, err
}

// Create implements ContainerUsecase.
func (u *containerUsecaseImpl) Create(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error) {
	if err := validateContainer(c); err != nil {
		return nil, err
	}
	c.ID = ""
	c.Deletion = entity.DeletionLive
	created, err := u.save(ctx, c, true)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", created.ID.String()).Str("name", created.Name).Msg("created container")
	return created, nil
}

func (u *containerUsecaseImpl) Get(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error) {
	return u.lifecycle.get(ctx, id)
}

func (u *containerUsecaseImpl) GetByName(ctx context.Context, namespace, name string) (*entity.ContainerSpec, error) {
	return u.lifecycle.getByName(ctx, namespace, name)
}

func (u *containerUsecaseImpl) List(ctx context.Context, opts repository.ListOptions) ([]*entity.ContainerSpec, error) {
	return u.containers.List(ctx, opts)
}

// Update implements ContainerUsecase.
func (u *containerUsecaseImpl) Update(ctx context.Context, c *entity.ContainerSpec) (*entity.ContainerSpec, error) {
	cur, err := u.lifecycle.get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if err := sameNamespace(&cur.Meta, &c.Meta); err != nil {
		return nil, err
	}
	if err := validateContainer(c); err != nil {
		return nil, err
	}
	c.Deletion = cur.Deletion
	updated, err := u.save(ctx, c, false)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", updated.ID.String()).Msg("updated container")
	return updated, nil
}

func (u *containerUsecaseImpl) Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.ContainerSpec, error) {
	return u.lifecycle.delete(ctx, id, confirm)
}

func (u *containerUsecaseImpl) DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.ContainerSpec, error) {
	return u.lifecycle.deleteByName(ctx, namespace, name, confirm)
}

func (u *containerUsecaseImpl) Restore(ctx context.Context, id entity.ID) (*entity.ContainerSpec, error) {
	return u.lifecycle.restore(ctx, id)
}

// Resolve implements ContainerUsecase.
func (u *containerUsecaseImpl) Resolve(ctx context.Context, id entity.ID) (*compose.ResolvedContainer, error) {
	c, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.resolver.container(ctx, c)
}

func (u *containerUsecaseImpl) Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error) {
	c, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.guard.DependentsOf(ctx, c.Ref(entity.KindContainer))
}
