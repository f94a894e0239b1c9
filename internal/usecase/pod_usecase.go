package usecase

import (
	"context"
	"fmt"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
	k8svalidation "k8s.io/apimachinery/pkg/util/validation"
)

type PodUsecase interface {
	Create(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error)
	Get(ctx context.Context, id entity.ID) (*entity.PodSpec, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.PodSpec, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*entity.PodSpec, error)
	Update(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error)
	Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.PodSpec, error)
	DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.PodSpec, error)
	Restore(ctx context.Context, id entity.ID) (*entity.PodSpec, error)
	// Resolve resolves every container in declared order and merges the
	// pod-level profiles. Nothing is cached.
	Resolve(ctx context.Context, id entity.ID) (*compose.ResolvedPod, error)
	Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error)
}

type podUsecaseImpl struct {
	pods       repository.PodRepository
	references repository.ReferenceRepository
	guard      ConflictGuard
	resolver   *resolver
	lifecycle  *lifecycle[*entity.PodSpec]
}

func NewPodUsecase(i *do.Injector) (PodUsecase, error) {
	pods := do.MustInvoke[repository.PodRepository](i)
	references := do.MustInvoke[repository.ReferenceRepository](i)
	guard := do.MustInvoke[ConflictGuard](i)
	return &podUsecaseImpl{
		pods:       pods,
		references: references,
		guard:      guard,
		resolver:   newResolver(i),
		lifecycle: &lifecycle[*entity.PodSpec]{
			kind:       entity.KindPod,
			repo:       pods,
			guard:      guard,
			references: references,
			targets:    podTargets,
		},
	}, nil
}

func podTargets(p *entity.PodSpec) []entity.Ref {
	refs := lo.Map(p.Containers, func(id entity.ID, _ int) entity.Ref {
		return entity.Ref{Kind: entity.KindContainer, ID: id}
	})
	return append(refs, profileRefs(p.DynamicAttr)...)
}

var dnsPolicies = []string{
	"",
	string(corev1.DNSClusterFirst),
	string(corev1.DNSClusterFirstWithHostNet),
	string(corev1.DNSDefault),
	string(corev1.DNSNone),
}

func validatePod(p *entity.PodSpec) error {
	if err := validateMeta(entity.KindPod, &p.Meta); err != nil {
		return err
	}
	if len(p.Containers) == 0 {
		return entity.Invalid("containers", "at least one container is required")
	}
	for i, id := range p.Containers {
		if id.IsZero() {
			return entity.Invalid(fmt.Sprintf("containers[%d]", i), "is required")
		}
		if err := id.Validate(fmt.Sprintf("containers[%d]", i)); err != nil {
			return err
		}
	}
	if !lo.Contains(dnsPolicies, p.DNSPolicy) {
		return entity.Invalid("dns_policy", "must be one of %v", dnsPolicies[1:])
	}
	if p.ServiceAccountName != "" {
		if errs := k8svalidation.IsDNS1123Subdomain(p.ServiceAccountName); len(errs) > 0 {
			return entity.Invalid("service_account_name", "%s", errs[0])
		}
	}
	for i := range p.Tolerations {
		if err := profile.Struct(fmt.Sprintf("tolerations[%d]", i), &p.Tolerations[i]); err != nil {
			return err
		}
	}
	for i, name := range p.ImagePullSecrets {
		if name == "" {
			return entity.Invalid(fmt.Sprintf("image_pull_secrets[%d]", i), "is required")
		}
	}
	attr, err := compose.NormalizeAttr(compose.PodSlots, p.DynamicAttr)
	if err != nil {
		return err
	}
	p.DynamicAttr = attr
	return nil
}

func (u *podUsecaseImpl) save(ctx context.Context, p *entity.PodSpec, create bool) (*entity.PodSpec, error) {
	var saved *entity.PodSpec
	err := u.guard.Reference(ctx, podTargets(p), func(ctx context.Context) error {
		if err := u.lifecycle.checkName(ctx, p.Namespace, p.Name, p.ID); err != nil {
			return err
		}
		if _, err := u.resolver.pod(ctx, p); err != nil {
			return err
		}
		var err error
		if create {
			saved, err = u.pods.Create(ctx, p)
		} else {
			saved, err = u.pods.Update(ctx, p)
		}
		if err != nil {
			return err
		}
		return u.references.Replace(ctx, saved.Ref(entity.KindPod), saved.Name, saved.Deletion, podTargets(saved))
	})
	return saved, err
}

// Create implements PodUsecase.
func (u *podUsecaseImpl) Create(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error) {
	if err := validatePod(p); err != nil {
		return nil, err
	}
	p.ID = ""
	p.Deletion = entity.DeletionLive
	created, err := u.save(ctx, p, true)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("id", created.ID.String()).
		Str("name", created.Name).
		Int("containers", len(created.Containers)).
		Msg("created pod")
	return created, nil
}

func (u *podUsecaseImpl) Get(ctx context.Context, id entity.ID) (*entity.PodSpec, error) {
	return u.lifecycle.get(ctx, id)
}

func (u *podUsecaseImpl) GetByName(ctx context.Context, namespace, name string) (*entity.PodSpec, error) {
	return u.lifecycle.getByName(ctx, namespace, name)
}

func (u *podUsecaseImpl) List(ctx context.Context, opts repository.ListOptions) ([]*entity.PodSpec, error) {
	return u.pods.List(ctx, opts)
}

// Update implements PodUsecase.
func (u *podUsecaseImpl) Update(ctx context.Context, p *entity.PodSpec) (*entity.PodSpec, error) {
	cur, err := u.lifecycle.get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := sameNamespace(&cur.Meta, &p.Meta); err != nil {
		return nil, err
	}
	if err := validatePod(p); err != nil {
		return nil, err
	}
	p.Deletion = cur.Deletion
	updated, err := u.save(ctx, p, false)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", updated.ID.String()).Msg("updated pod")
	return updated, nil
}

func (u *podUsecaseImpl) Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.PodSpec, error) {
	return u.lifecycle.delete(ctx, id, confirm)
}

func (u *podUsecaseImpl) DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.PodSpec, error) {
	return u.lifecycle.deleteByName(ctx, namespace, name, confirm)
}

func (u *podUsecaseImpl) Restore(ctx context.Context, id entity.ID) (*entity.PodSpec, error) {
	return u.lifecycle.restore(ctx, id)
}

// Resolve implements PodUsecase.
func (u *podUsecaseImpl) Resolve(ctx context.Context, id entity.ID) (*compose.ResolvedPod, error) {
	p, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.resolver.pod(ctx, p)
}

func (u *podUsecaseImpl) Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error) {
	p, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.guard.DependentsOf(ctx, p.Ref(entity.KindPod))
}
