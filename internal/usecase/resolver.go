package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// resolver loads what a composition needs and hands it to package compose.
type resolver struct {
	profiles   repository.ProfileRepository
	containers repository.ContainerRepository
	defaults   compose.PodDefaults
}

func newResolver(i *do.Injector) *resolver {
	return &resolver{
		profiles:   do.MustInvoke[repository.ProfileRepository](i),
		containers: do.MustInvoke[repository.ContainerRepository](i),
		defaults:   do.MustInvoke[compose.PodDefaults](i),
	}
}

func (r *resolver) profilesOf(ctx context.Context, attr entity.DynamicAttr) (compose.Profiles, error) {
	return r.profiles.GetMany(ctx, lo.Values(attr))
}

func (r *resolver) container(ctx context.Context, spec *entity.ContainerSpec) (*compose.ResolvedContainer, error) {
	profiles, err := r.profilesOf(ctx, spec.DynamicAttr)
	if err != nil {
		return nil, err
	}
	return compose.ResolveContainer(spec, profiles)
}

// podContainers loads the containers of pod in declared order.
func (r *resolver) podContainers(ctx context.Context, pod *entity.PodSpec) ([]*entity.ContainerSpec, error) {
	if len(pod.Containers) == 0 {
		return nil, entity.Invalid("containers", "at least one container is required")
	}
	seen := map[entity.ID]bool{}
	specs := make([]*entity.ContainerSpec, 0, len(pod.Containers))
	for i, id := range pod.Containers {
		field := fmt.Sprintf("containers[%d]", i)
		if id.IsZero() {
			return nil, entity.Invalid(field, "container id is required")
		}
		if seen[id] {
			return nil, entity.Invalid(field, "container %s is listed more than once", id)
		}
		seen[id] = true
		spec, err := r.containers.GetByID(ctx, id)
		if errors.Is(err, entity.ErrNotFound) || (err == nil && spec.Deletion.HardDeleted()) {
			return nil, entity.Invalid(field, "container %s does not exist", id)
		}
		if err != nil {
			return nil, err
		}
		if spec.Namespace != pod.Namespace {
			return nil, entity.Invalid(field, "container %s belongs to namespace %q", id, spec.Namespace)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (r *resolver) pod(ctx context.Context, pod *entity.PodSpec) (*compose.ResolvedPod, error) {
	specs, err := r.podContainers(ctx, pod)
	if err != nil {
		return nil, err
	}
	resolved := make([]*compose.ResolvedContainer, len(specs))
	for i, spec := range specs {
		if resolved[i], err = r.container(ctx, spec); err != nil {
			var verr *entity.ValidationError
			if errors.As(err, &verr) {
				verr.Field = fmt.Sprintf("containers[%d].%s", i, verr.Field)
			}
			return nil, err
		}
	}
	profiles, err := r.profilesOf(ctx, pod.DynamicAttr)
	if err != nil {
		return nil, err
	}
	return compose.ResolvePod(pod, resolved, profiles, r.defaults)
}
