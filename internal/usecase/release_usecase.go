package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/py-react/cloud-ops-sub002/internal/utils"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// maxCloneAttempts bounds the search for a free "-copy-N" name.
const maxCloneAttempts = 1000

type ReleaseUsecase interface {
	Create(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error)
	Get(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.ReleaseConfig, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*entity.ReleaseConfig, error)
	Update(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error)
	// Clone copies a release under a free "-copy" name. The copy is live.
	Clone(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error)
	Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.ReleaseConfig, error)
	DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.ReleaseConfig, error)
	// Restore brings back a soft-deleted release and reactivates it.
	Restore(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error)
	ToggleStatus(ctx context.Context, id entity.ID, status entity.ReleaseStatus) (*entity.ReleaseConfig, error)
	// Render builds the workload manifest. An empty image selects the
	// release's default image.
	Render(ctx context.Context, id entity.ID, image string) (*compose.Manifest, error)
}

type releaseUsecaseImpl struct {
	releases      repository.ReleaseRepository
	pods          repository.PodRepository
	references    repository.ReferenceRepository
	sourceControl scm.SourceControl
	guard         ConflictGuard
	resolver      *resolver
	lifecycle     *lifecycle[*entity.ReleaseConfig]
}

func NewReleaseUsecase(i *do.Injector) (ReleaseUsecase, error) {
	releases := do.MustInvoke[repository.ReleaseRepository](i)
	references := do.MustInvoke[repository.ReferenceRepository](i)
	guard := do.MustInvoke[ConflictGuard](i)
	u := &releaseUsecaseImpl{
		releases:      releases,
		pods:          do.MustInvoke[repository.PodRepository](i),
		references:    references,
		sourceControl: do.MustInvoke[scm.SourceControl](i),
		guard:         guard,
		resolver:      newResolver(i),
	}
	u.lifecycle = &lifecycle[*entity.ReleaseConfig]{
		kind:       entity.KindRelease,
		repo:       releases,
		guard:      guard,
		references: references,
		targets:    releaseTargets,
		restored: func(ctx context.Context, r *entity.ReleaseConfig) error {
			return releases.SetStatus(ctx, r.ID, entity.ReleaseStatusActive)
		},
	}
	return u, nil
}

func releaseTargets(r *entity.ReleaseConfig) []entity.Ref {
	return []entity.Ref{{Kind: entity.KindPod, ID: r.DerivedDeploymentID}}
}

func validateRelease(r *entity.ReleaseConfig) error {
	if err := validateMeta(entity.KindRelease, &r.Meta); err != nil {
		return err
	}
	if !r.Kind.Valid() {
		return entity.Invalid("kind", "must be one of Deployment, StatefulSet, ReplicaSet")
	}
	if r.Replicas < 0 {
		return entity.Invalid("replicas", "must not be negative")
	}
	if r.Status == "" {
		r.Status = entity.ReleaseStatusActive
	}
	if !r.Status.Valid() {
		return entity.Invalid("status", "must be active or inactive")
	}
	if r.DerivedDeploymentID.IsZero() {
		return entity.Invalid("derived_deployment_id", "is required")
	}
	if err := r.DerivedDeploymentID.Validate("derived_deployment_id"); err != nil {
		return err
	}
	if r.RequiredSourceControl {
		if r.CodeSourceControlName == "" {
			return entity.Invalid("code_source_control_name", "is required when source control is required")
		}
		if r.SourceControlBranch == "" {
			return entity.Invalid("source_control_branch", "is required when source control is required")
		}
	}
	return nil
}

func (u *releaseUsecaseImpl) checkSourceControl(ctx context.Context, r *entity.ReleaseConfig) error {
	if !r.RequiredSourceControl {
		return nil
	}
	allowed, err := u.sourceControl.AllowedBranches(ctx)
	if err != nil {
		return fmt.Errorf("load allowed branches: %w", err)
	}
	branches, ok := allowed[r.CodeSourceControlName]
	if !ok {
		return entity.Invalid("code_source_control_name", "unknown source control %q", r.CodeSourceControlName)
	}
	if !lo.Contains(branches, r.SourceControlBranch) {
		return entity.Invalid("source_control_branch", "branch %q is not allowed for %q", r.SourceControlBranch, r.CodeSourceControlName)
	}
	return nil
}

// derivedPod loads and fully resolves the pod a release deploys.
func (u *releaseUsecaseImpl) derivedPod(ctx context.Context, r *entity.ReleaseConfig) (*compose.ResolvedPod, error) {
	pod, err := u.pods.GetByID(ctx, r.DerivedDeploymentID)
	if errors.Is(err, entity.ErrNotFound) || (err == nil && pod.Deletion.HardDeleted()) {
		return nil, entity.Invalid("derived_deployment_id", "pod %s does not exist", r.DerivedDeploymentID)
	}
	if err != nil {
		return nil, err
	}
	if pod.Namespace != r.Namespace {
		return nil, entity.Invalid("derived_deployment_id", "pod %s belongs to namespace %q", pod.ID, pod.Namespace)
	}
	resolved, err := u.resolver.pod(ctx, pod)
	if err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			verr.Field = "derived_deployment_id." + verr.Field
		}
		return nil, err
	}
	return resolved, nil
}

func (u *releaseUsecaseImpl) save(ctx context.Context, r *entity.ReleaseConfig, create bool) (*entity.ReleaseConfig, error) {
	if err := u.checkSourceControl(ctx, r); err != nil {
		return nil, err
	}
	var saved *entity.ReleaseConfig
	err := u.guard.Reference(ctx, releaseTargets(r), func(ctx context.Context) error {
		if err := u.lifecycle.checkName(ctx, r.Namespace, r.Name, r.ID); err != nil {
			return err
		}
		if _, err := u.derivedPod(ctx, r); err != nil {
			return err
		}
		var err error
		if create {
			saved, err = u.releases.Create(ctx, r)
		} else {
			saved, err = u.releases.Update(ctx, r)
		}
		if err != nil {
			return err
		}
		return u.references.Replace(ctx, saved.Ref(entity.KindRelease), saved.Name, saved.Deletion, releaseTargets(saved))
	})
	return saved, err
}

// Create implements ReleaseUsecase.
func (u *releaseUsecaseImpl) Create(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error) {
	if err := validateRelease(r); err != nil {
		return nil, err
	}
	r.ID = ""
	r.Deletion = entity.DeletionLive
	created, err := u.save(ctx, r, true)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("id", created.ID.String()).
		Str("deployment", created.DeploymentName()).
		Str("kind", string(created.Kind)).
		Msg("created release")
	return created, nil
}

func (u *releaseUsecaseImpl) Get(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error) {
	return u.lifecycle.get(ctx, id)
}

func (u *releaseUsecaseImpl) GetByName(ctx context.Context, namespace, name string) (*entity.ReleaseConfig, error) {
	return u.lifecycle.getByName(ctx, namespace, name)
}

func (u *releaseUsecaseImpl) List(ctx context.Context, opts repository.ListOptions) ([]*entity.ReleaseConfig, error) {
	return u.releases.List(ctx, opts)
}

// Update implements ReleaseUsecase.
func (u *releaseUsecaseImpl) Update(ctx context.Context, r *entity.ReleaseConfig) (*entity.ReleaseConfig, error) {
	cur, err := u.lifecycle.get(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if err := sameNamespace(&cur.Meta, &r.Meta); err != nil {
		return nil, err
	}
	if r.Status == "" {
		r.Status = cur.Status
	}
	if err := validateRelease(r); err != nil {
		return nil, err
	}
	r.Deletion = cur.Deletion
	updated, err := u.save(ctx, r, false)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", updated.ID.String()).Msg("updated release")
	return updated, nil
}

// Clone implements ReleaseUsecase.
func (u *releaseUsecaseImpl) Clone(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error) {
	src, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	clone := *src
	clone.ID = ""
	clone.Deletion = entity.DeletionLive

	var created *entity.ReleaseConfig
	err = u.guard.Reference(ctx, releaseTargets(&clone), func(ctx context.Context) error {
		name, err := u.freeCopyName(ctx, src.Namespace, src.Name)
		if err != nil {
			return err
		}
		clone.Name = name
		created, err = u.releases.Create(ctx, &clone)
		if err != nil {
			return err
		}
		return u.references.Replace(ctx, created.Ref(entity.KindRelease), created.Name, created.Deletion, releaseTargets(created))
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("source", src.ID.String()).Str("id", created.ID.String()).Str("name", created.Name).Msg("cloned release")
	return created, nil
}

func (u *releaseUsecaseImpl) freeCopyName(ctx context.Context, namespace, name string) (string, error) {
	for n := 1; n <= maxCloneAttempts; n++ {
		candidate := utils.CopyName(name, n)
		_, err := u.releases.GetByName(ctx, namespace, candidate)
		if errors.Is(err, entity.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", entity.Invalid("name", "no free copy name for %q", name)
}

func (u *releaseUsecaseImpl) Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.ReleaseConfig, error) {
	return u.lifecycle.delete(ctx, id, confirm)
}

func (u *releaseUsecaseImpl) DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.ReleaseConfig, error) {
	return u.lifecycle.deleteByName(ctx, namespace, name, confirm)
}

func (u *releaseUsecaseImpl) Restore(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error) {
	return u.lifecycle.restore(ctx, id)
}

// ToggleStatus implements ReleaseUsecase. Soft-deleted releases can be
// toggled too.
func (u *releaseUsecaseImpl) ToggleStatus(ctx context.Context, id entity.ID, status entity.ReleaseStatus) (*entity.ReleaseConfig, error) {
	if !status.Valid() {
		return nil, entity.Invalid("status", "must be active or inactive")
	}
	if _, err := u.lifecycle.get(ctx, id); err != nil {
		return nil, err
	}
	if err := u.releases.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", id.String()).Str("status", string(status)).Msg("toggled release status")
	return u.releases.GetByID(ctx, id)
}

// Render implements ReleaseUsecase.
func (u *releaseUsecaseImpl) Render(ctx context.Context, id entity.ID, image string) (*compose.Manifest, error) {
	r, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	pod, err := u.derivedPod(ctx, r)
	if err != nil {
		return nil, err
	}
	return compose.RenderManifest(r, pod, image)
}
