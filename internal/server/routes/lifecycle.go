package routes

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
)

// lifecycleUsecase is the surface every composable entity shares.
type lifecycleUsecase[E any] interface {
	Create(ctx context.Context, e E) (E, error)
	Get(ctx context.Context, id entity.ID) (E, error)
	Update(ctx context.Context, e E) (E, error)
	Delete(ctx context.Context, id entity.ID, confirm bool) (E, error)
	DeleteByName(ctx context.Context, namespace, name string, confirm bool) (E, error)
	Restore(ctx context.Context, id entity.ID) (E, error)
}

type dependentsUsecase interface {
	Dependents(ctx context.Context, id entity.ID) ([]entity.Dependent, error)
}

// registerLifecycle mounts get, create, update, delete and restore on g.
// T is the entity struct; the usecase works on *T.
func registerLifecycle[T any](g *echo.Group, usecase func() lifecycleUsecase[*T], idOf func(*T) entity.ID) {
	g.GET("/:id", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		found, err := usecase().Get(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, found)
	})
	g.POST("", func(c echo.Context) error {
		req := new(T)
		if err := bind(c, req); err != nil {
			return fail(c, err)
		}
		created, err := usecase().Create(c.Request().Context(), req)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusCreated, created)
	})
	g.PUT("", func(c echo.Context) error {
		req := new(T)
		if err := bind(c, req); err != nil {
			return fail(c, err)
		}
		if idOf(req).IsZero() {
			return fail(c, entity.Invalid("id", "is required"))
		}
		updated, err := usecase().Update(c.Request().Context(), req)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, updated)
	})
	g.DELETE("/:id", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		confirm, err := queryBool(c, "confirm")
		if err != nil {
			return fail(c, err)
		}
		deleted, err := usecase().Delete(c.Request().Context(), id, confirm)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, deleted)
	})
	g.DELETE("", func(c echo.Context) error {
		confirm, err := queryBool(c, "confirm")
		if err != nil {
			return fail(c, err)
		}
		deleted, err := usecase().DeleteByName(c.Request().Context(), c.QueryParam("namespace"), c.QueryParam("name"), confirm)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, deleted)
	})
	g.POST("/:id/restore", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		restored, err := usecase().Restore(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, restored)
	})
}

func registerDependents(g *echo.Group, usecase func() dependentsUsecase) {
	g.GET("/:id/dependents", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		dependents, err := usecase().Dependents(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, dependents)
	})
}

func listOptions(c echo.Context) (repository.ListOptions, error) {
	includeDeleted, err := queryBool(c, "include_deleted")
	if err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{
		Namespace:      c.QueryParam("namespace"),
		IncludeDeleted: includeDeleted,
	}, nil
}
