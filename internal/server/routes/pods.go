package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/samber/do"
)

func RegisterPods(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api/pods")

	pods := func() usecase.PodUsecase {
		return do.MustInvoke[usecase.PodUsecase](injector)
	}

	g.GET("", func(c echo.Context) error {
		opts, err := listOptions(c)
		if err != nil {
			return fail(c, err)
		}
		found, err := pods().List(c.Request().Context(), opts)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, found)
	})
	g.GET("/:id/resolved", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		resolved, err := pods().Resolve(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, resolved)
	})
	registerLifecycle(g,
		func() lifecycleUsecase[*entity.PodSpec] { return pods() },
		func(p *entity.PodSpec) entity.ID { return p.ID })
	registerDependents(g, func() dependentsUsecase { return pods() })
}
