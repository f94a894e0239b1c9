package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/metrics"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/runner"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

type ReleaseRunUsecase interface {
	// CreateRun appends a pending run. An empty image selects the release's
	// default image.
	CreateRun(ctx context.Context, releaseID entity.ID, image, prURL, jira string) (*entity.ReleaseRun, error)
	// ListRuns returns the runs of a release in creation order. Runs of
	// deleted releases stay listed.
	ListRuns(ctx context.Context, releaseID entity.ID) ([]*entity.ReleaseRun, error)
	GetRun(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error)
	UpdateRunStatus(ctx context.Context, id entity.ID, status entity.RunStatus) (*entity.ReleaseRun, error)
	// TriggerPush appends a run with image to every live, active release
	// bound to repo and branch.
	TriggerPush(ctx context.Context, repo, branch, image string) ([]*entity.ReleaseRun, error)
	// Execute deploys a pending run and records the outcome.
	Execute(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error)
}

type releaseRunUsecaseImpl struct {
	runs     repository.ReleaseRunRepository
	releases repository.ReleaseRepository
	tx       repository.Transactor
	render   ReleaseUsecase
	runner   runner.Runner
}

func NewReleaseRunUsecase(i *do.Injector) (ReleaseRunUsecase, error) {
	u := &releaseRunUsecaseImpl{
		runs:     do.MustInvoke[repository.ReleaseRunRepository](i),
		releases: do.MustInvoke[repository.ReleaseRepository](i),
		tx:       do.MustInvoke[repository.Transactor](i),
		render:   do.MustInvoke[ReleaseUsecase](i),
	}
	// execution is optional
	if r, err := do.Invoke[runner.Runner](i); err == nil {
		u.runner = r
	}
	return u, nil
}

func (u *releaseRunUsecaseImpl) release(ctx context.Context, id entity.ID) (*entity.ReleaseConfig, error) {
	if id.IsZero() {
		return nil, entity.Invalid("release_config_id", "is required")
	}
	rel, err := u.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel.Deletion.HardDeleted() {
		return nil, &entity.NotFoundError{Kind: entity.KindRelease, ID: id}
	}
	return rel, nil
}

// CreateRun implements ReleaseRunUsecase.
func (u *releaseRunUsecaseImpl) CreateRun(ctx context.Context, releaseID entity.ID, image, prURL, jira string) (*entity.ReleaseRun, error) {
	rel, err := u.release(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if image == "" {
		image = compose.ImageFor(rel)
	}
	run, err := u.runs.Create(ctx, &entity.ReleaseRun{
		ReleaseConfigID: rel.ID,
		ImageName:       image,
		PRURL:           prURL,
		Jira:            jira,
		Status:          entity.RunStatusPending,
	})
	if err != nil {
		return nil, err
	}
	metrics.ReleaseRuns.WithLabelValues(string(run.Status)).Inc()
	zerolog.Ctx(ctx).Info().Str("run", run.ID.String()).Str("release", rel.ID.String()).Str("image", image).Msg("created release run")
	return run, nil
}

func (u *releaseRunUsecaseImpl) ListRuns(ctx context.Context, releaseID entity.ID) ([]*entity.ReleaseRun, error) {
	if releaseID.IsZero() {
		return nil, entity.Invalid("release_config_id", "is required")
	}
	if _, err := u.releases.GetByID(ctx, releaseID); err != nil {
		return nil, err
	}
	return u.runs.ListByRelease(ctx, releaseID)
}

func (u *releaseRunUsecaseImpl) GetRun(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error) {
	if id.IsZero() {
		return nil, entity.Invalid("id", "is required")
	}
	return u.runs.GetByID(ctx, id)
}

// UpdateRunStatus implements ReleaseRunUsecase.
func (u *releaseRunUsecaseImpl) UpdateRunStatus(ctx context.Context, id entity.ID, status entity.RunStatus) (*entity.ReleaseRun, error) {
	var updated *entity.ReleaseRun
	err := u.tx.Transaction(ctx, func(ctx context.Context) error {
		run, err := u.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if err := run.Transition(status); err != nil {
			return err
		}
		updated, err = u.runs.Update(ctx, run)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ReleaseRuns.WithLabelValues(string(status)).Inc()
	zerolog.Ctx(ctx).Info().Str("run", id.String()).Str("status", string(status)).Msg("updated release run")
	return updated, nil
}

// TriggerPush implements ReleaseRunUsecase.
func (u *releaseRunUsecaseImpl) TriggerPush(ctx context.Context, repo, branch, image string) ([]*entity.ReleaseRun, error) {
	releases, err := u.releases.ListBySourceControl(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	runs := make([]*entity.ReleaseRun, 0, len(releases))
	for _, rel := range releases {
		run, err := u.CreateRun(ctx, rel.ID, image, "", "")
		if err != nil {
			return runs, err
		}
		runs = append(runs, run)
	}
	zerolog.Ctx(ctx).Info().Str("repo", repo).Str("branch", branch).Int("runs", len(runs)).Msg("triggered release runs")
	return runs, nil
}

// Execute implements ReleaseRunUsecase. A failed deployment marks the run
// failed; a manifest that cannot be rendered marks it error.
func (u *releaseRunUsecaseImpl) Execute(ctx context.Context, id entity.ID) (*entity.ReleaseRun, error) {
	if u.runner == nil {
		return nil, fmt.Errorf("%w: release execution is disabled", entity.ErrForbidden)
	}
	run, err := u.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != entity.RunStatusPending {
		return nil, entity.Invalid("status", "run %s is %s, only pending runs can be executed", id, run.Status)
	}
	log := zerolog.Ctx(ctx).With().Str("run", id.String()).Logger()

	rel, err := u.release(ctx, run.ReleaseConfigID)
	if err != nil {
		return nil, err
	}
	manifest, err := u.render.Render(ctx, rel.ID, run.ImageName)
	if err != nil {
		log.Error().Err(err).Msg("render manifest")
		return u.UpdateRunStatus(ctx, id, entity.RunStatusError)
	}
	if run, err = u.UpdateRunStatus(ctx, id, entity.RunStatusRunning); err != nil {
		return nil, err
	}

	start := time.Now()
	err = u.runner.Execute(log.WithContext(ctx), rel, run, manifest)
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Msg("release run failed")
		return u.UpdateRunStatus(ctx, id, entity.RunStatusFailed)
	}
	return u.UpdateRunStatus(ctx, id, entity.RunStatusSuccess)
}
