package repository

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

type ProfileListOptions struct {
	ListOptions
	Type entity.ProfileType
}

type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.Profile, error)
	GetByName(ctx context.Context, namespace, name string) (*entity.Profile, error)
	GetMany(ctx context.Context, ids []entity.ID) (map[entity.ID]*entity.Profile, error)
	List(ctx context.Context, opts ProfileListOptions) ([]*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error
}

type profileRepositoryImpl struct {
	store[Profile, *entity.Profile, *Profile]
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepositoryImpl{store[Profile, *entity.Profile, *Profile]{db: db, kind: entity.KindProfile}}
}

// Create a new profile.
func (r *profileRepositoryImpl) Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	return r.create(ctx, p)
}

// GetByID finds a profile by id, whatever its deletion state.
func (r *profileRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.Profile, error) {
	return r.getByID(ctx, id)
}

// GetByName finds a non-hard-deleted profile by namespace and name.
func (r *profileRepositoryImpl) GetByName(ctx context.Context, namespace, name string) (*entity.Profile, error) {
	return r.getByName(ctx, namespace, name)
}

// GetMany loads the given profiles. Unknown ids are absent from the result.
func (r *profileRepositoryImpl) GetMany(ctx context.Context, ids []entity.ID) (map[entity.ID]*entity.Profile, error) {
	res := make(map[entity.ID]*entity.Profile, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	keys := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		key, err := id.Uint()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	founds, err := gorm.G[Profile](conn(ctx, r.db)).Where("id IN ?", keys).Find(ctx)
	if err != nil {
		return nil, err
	}
	for i := range founds {
		p := founds[i].ToEntity()
		res[p.ID] = p
	}
	return res, nil
}

// List profiles, optionally of a single type.
func (r *profileRepositoryImpl) List(ctx context.Context, opts ProfileListOptions) ([]*entity.Profile, error) {
	return r.list(ctx, opts.ListOptions, func(q *gorm.DB) *gorm.DB {
		if opts.Type != "" {
			q = q.Where("type = ?", opts.Type)
		}
		return q
	})
}

// Update the name and config of a profile. The type column is never changed.
func (r *profileRepositoryImpl) Update(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	return r.update(ctx, p.ID, p)
}

func (r *profileRepositoryImpl) SetDeletion(ctx context.Context, id entity.ID, state entity.DeletionState) error {
	return r.setDeletion(ctx, id, state)
}
