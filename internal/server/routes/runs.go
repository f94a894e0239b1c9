package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/samber/do"
)

func RegisterRuns(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api/runs")

	runs := func() usecase.ReleaseRunUsecase {
		return do.MustInvoke[usecase.ReleaseRunUsecase](injector)
	}

	g.GET("/:id", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		run, err := runs().GetRun(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, run)
	})
	g.PUT("/:id/status", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		type request struct {
			Status entity.RunStatus `json:"status"`
		}
		var req request
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		run, err := runs().UpdateRunStatus(c.Request().Context(), id, req.Status)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, run)
	})
	g.POST("/:id/execute", func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, err)
		}
		run, err := runs().Execute(c.Request().Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, run)
	})
}
