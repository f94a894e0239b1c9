package usecase

import (
	"context"
	"errors"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/samber/do"
)

// CheckNameUsecase reports whether a name is still free in a namespace.
type CheckNameUsecase interface {
	Execute(ctx context.Context, kind entity.Kind, namespace, name string) (bool, error)
}

type checkNameUsecaseImpl struct {
	lookups map[entity.Kind]func(ctx context.Context, namespace, name string) error
}

func NewCheckNameUsecase(i *do.Injector) (CheckNameUsecase, error) {
	profiles := do.MustInvoke[repository.ProfileRepository](i)
	containers := do.MustInvoke[repository.ContainerRepository](i)
	pods := do.MustInvoke[repository.PodRepository](i)
	releases := do.MustInvoke[repository.ReleaseRepository](i)
	return &checkNameUsecaseImpl{
		lookups: map[entity.Kind]func(ctx context.Context, namespace, name string) error{
			entity.KindProfile: func(ctx context.Context, ns, name string) error {
				_, err := profiles.GetByName(ctx, ns, name)
				return err
			},
			entity.KindContainer: func(ctx context.Context, ns, name string) error {
				_, err := containers.GetByName(ctx, ns, name)
				return err
			},
			entity.KindPod: func(ctx context.Context, ns, name string) error {
				_, err := pods.GetByName(ctx, ns, name)
				return err
			},
			entity.KindRelease: func(ctx context.Context, ns, name string) error {
				_, err := releases.GetByName(ctx, ns, name)
				return err
			},
		},
	}, nil
}

func (c *checkNameUsecaseImpl) Execute(ctx context.Context, kind entity.Kind, namespace, name string) (bool, error) {
	lookup, ok := c.lookups[kind]
	if !ok {
		return false, entity.Invalid("kind", "unknown kind %q", kind)
	}
	if namespace == "" || name == "" {
		return false, entity.Invalid("name", "namespace and name are required")
	}
	err := lookup(ctx, namespace, name)
	if errors.Is(err, entity.ErrNotFound) {
		return true, nil
	}
	return false, err
}
