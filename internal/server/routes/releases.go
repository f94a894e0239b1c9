package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/samber/do"
)

func RegisterReleases(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api/releases")

	releases := func() usecase.ReleaseUsecase {
		return do.MustInvoke[usecase.ReleaseUsecase](injector)
	}
	runs := func() usecase.ReleaseRunUsecase {
		return do.MustInvoke[usecase.ReleaseRunUsecase](injector)
	}

	g.GET("", func(c echo.Context) error {
		opts, err := listOptions(c)
		if err != nil {
			return fail(c, err)
		}
		found, err := releases().List(c.Request().Context(), opts)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, found)
	})
	registerLifecycle(g,
		func() lifecycleUsecase[*entity.ReleaseConfig] { return releases() },
		func(r *entity.ReleaseConfig) entity.ID { return r.ID })

	g.POST("/:id/clone", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		cloned, err := releases().Clone(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusCreated, cloned)
	})
	g.PUT("/:id/status", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		type request struct {
			Status entity.ReleaseStatus `json:"status"`
		}
		var req request
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		updated, err := releases().ToggleStatus(c.Request().Context(), id, req.Status)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, updated)
	})
	g.GET("/:id/manifest", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		manifest, err := releases().Render(c.Request().Context(), id, c.QueryParam("image"))
		if err != nil {
			return fail(c, err)
		}
		if c.QueryParam("format") == "yaml" {
			return c.Blob(http.StatusOK, "application/yaml", []byte(manifest.YAML))
		}
		return ok(c, http.StatusOK, manifest)
	})

	g.GET("/:id/runs", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		found, err := runs().ListRuns(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, found)
	})
	g.POST("/:id/runs", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		type request struct {
			ImageName string `json:"image_name"`
			PRURL     string `json:"pr_url"`
			Jira      string `json:"jira"`
		}
		var req request
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		run, err := runs().CreateRun(c.Request().Context(), id, req.ImageName, req.PRURL, req.Jira)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusCreated, run)
	})
}
