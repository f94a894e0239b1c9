package repository

import (
	"github.com/samber/do"
	"gorm.io/gorm"
)

// Provide registers the SQLite database at path, the transactor and every
// repository on i. The database is opened on first use.
func Provide(i *do.Injector, path string) {
	do.Provide(i, func(i *do.Injector) (*gorm.DB, error) {
		return NewSQLiteDB(path)
	})
	provide(i, NewTransactor)
	provide(i, NewProfileRepository)
	provide(i, NewContainerRepository)
	provide(i, NewPodRepository)
	provide(i, NewReleaseRepository)
	provide(i, NewReleaseRunRepository)
	provide(i, NewReferenceRepository)
}

func provide[T any](i *do.Injector, newRepo func(*gorm.DB) T) {
	do.Provide(i, func(i *do.Injector) (T, error) {
		return newRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
}
