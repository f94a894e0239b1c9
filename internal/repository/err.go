package repository

import (
	"errors"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = gorm.ErrRecordNotFound
	ErrDuplicate = gorm.ErrDuplicatedKey
)

// translate maps storage errors onto the entity error taxonomy.
func translate(kind entity.Kind, id entity.ID, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return &entity.NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, ErrDuplicate):
		return entity.Invalid("", "duplicate %s", kind)
	}
	return err
}
