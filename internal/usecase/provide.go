package usecase

import "github.com/samber/do"

// Provide registers every usecase. Repositories, the transactor, the source
// control, the pod defaults and optionally a runner.Runner must be provided
// on the same injector.
func Provide(i *do.Injector) {
	do.Provide(i, NewConflictGuard)
	do.Provide(i, NewProfileUsecase)
	do.Provide(i, NewContainerUsecase)
	do.Provide(i, NewPodUsecase)
	do.Provide(i, NewReleaseUsecase)
	do.Provide(i, NewReleaseRunUsecase)
	do.Provide(i, NewCheckNameUsecase)
}
