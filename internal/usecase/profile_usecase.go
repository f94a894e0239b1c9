package usecase

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

type ProfileUsecase interface {
	Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	Get(ctx context.Context, id entity.ID) (*entity.Profile, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.Profile, error)
	List(ctx context.Context, opts repository.ProfileListOptions) ([]*entity.Profile, error)
	// Update replaces name and config. The type of a profile never changes.
	Update(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.Profile, error)
	DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.Profile, error)
	Restore(ctx context.Context, id entity.ID) (*entity.Profile, error)
	Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error)
}

type profileUsecaseImpl struct {
	profiles  repository.ProfileRepository
	guard     ConflictGuard
	tx        repository.Transactor
	lifecycle *lifecycle[*entity.Profile]
}

func NewProfileUsecase(i *do.Injector) (ProfileUsecase, error) {
	profiles := do.MustInvoke[repository.ProfileRepository](i)
	guard := do.MustInvoke[ConflictGuard](i)
	return &profileUsecaseImpl{
		profiles: profiles,
		guard:    guard,
		tx:       do.MustInvoke[repository.Transactor](i),
		lifecycle: &lifecycle[*entity.Profile]{
			kind:       entity.KindProfile,
			repo:       profiles,
			guard:      guard,
			references: do.MustInvoke[repository.ReferenceRepository](i),
		},
	}, nil
}

func validateProfile(p *entity.Profile) error {
	if err := validateMeta(entity.KindProfile, &p.Meta); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return entity.Invalid("type", "must be one of %v", entity.ProfileTypes)
	}
	_, err := profile.Decode(p.Type, p.Config)
	return err
}

// Create implements ProfileUsecase.
func (u *profileUsecaseImpl) Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	p.ID = ""
	p.Deletion = entity.DeletionLive

	var created *entity.Profile
	err := u.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := u.lifecycle.checkName(ctx, p.Namespace, p.Name, ""); err != nil {
			return err
		}
		var err error
		created, err = u.profiles.Create(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", created.ID.String()).Str("type", string(created.Type)).Msg("created profile")
	return created, nil
}

func (u *profileUsecaseImpl) Get(ctx context.Context, id entity.ID) (*entity.Profile, error) {
	return u.lifecycle.get(ctx, id)
}

func (u *profileUsecaseImpl) GetByName(ctx context.Context, namespace, name string) (*entity.Profile, error) {
	return u.lifecycle.getByName(ctx, namespace, name)
}

func (u *profileUsecaseImpl) List(ctx context.Context, opts repository.ProfileListOptions) ([]*entity.Profile, error) {
	if opts.Type != "" && !opts.Type.Valid() {
		return nil, entity.Invalid("type", "must be one of %v", entity.ProfileTypes)
	}
	return u.profiles.List(ctx, opts)
}

// Update implements ProfileUsecase.
func (u *profileUsecaseImpl) Update(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	cur, err := u.lifecycle.get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = cur.Type
	}
	if p.Type != cur.Type {
		return nil, entity.Invalid("type", "cannot change from %s to %s", cur.Type, p.Type)
	}
	if err := sameNamespace(&cur.Meta, &p.Meta); err != nil {
		return nil, err
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	p.Deletion = cur.Deletion

	var updated *entity.Profile
	err = u.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := u.lifecycle.checkName(ctx, p.Namespace, p.Name, p.ID); err != nil {
			return err
		}
		var err error
		updated, err = u.profiles.Update(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("id", updated.ID.String()).Msg("updated profile")
	return updated, nil
}

func (u *profileUsecaseImpl) Delete(ctx context.Context, id entity.ID, confirm bool) (*entity.Profile, error) {
	return u.lifecycle.delete(ctx, id, confirm)
}

func (u *profileUsecaseImpl) DeleteByName(ctx context.Context, namespace, name string, confirm bool) (*entity.Profile, error) {
	return u.lifecycle.deleteByName(ctx, namespace, name, confirm)
}

func (u *profileUsecaseImpl) Restore(ctx context.Context, id entity.ID) (*entity.Profile, error) {
	return u.lifecycle.restore(ctx, id)
}

func (u *profileUsecaseImpl) Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error) {
	p, err := u.lifecycle.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.guard.DependentsOf(ctx, p.Ref(entity.KindProfile))
}
