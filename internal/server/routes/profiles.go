package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/samber/do"
)

func RegisterProfiles(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api/profiles")

	profiles := func() usecase.ProfileUsecase {
		return do.MustInvoke[usecase.ProfileUsecase](injector)
	}

	g.GET("", func(c echo.Context) error {
		opts, err := listOptions(c)
		if err != nil {
			return fail(c, err)
		}
		typ := entity.ProfileType(c.QueryParam("type"))
		if typ != "" && !typ.Valid() {
			return fail(c, entity.Invalid("type", "must be one of %v", entity.ProfileTypes))
		}
		found, err := profiles().List(c.Request().Context(), repository.ProfileListOptions{ListOptions: opts, Type: typ})
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, found)
	})
	registerLifecycle(g,
		func() lifecycleUsecase[*entity.Profile] { return profiles() },
		func(p *entity.Profile) entity.ID { return p.ID })
	registerDependents(g, func() dependentsUsecase { return profiles() })
}
