package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/py-react/cloud-ops-sub002/internal/utils"
	"github.com/samber/do"
)

func RegisterMisc(injector *do.Injector, e *echo.Echo) {
	e.GET("/api/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/api/source-controls", func(c echo.Context) error {
		sourceControl := do.MustInvoke[scm.SourceControl](injector)
		allowed, err := sourceControl.AllowedBranches(c.Request().Context())
		if err != nil {
			return fail(c, err)
		}
		type response struct {
			AllowedBranches map[string][]string `json:"allowed_branches"`
		}
		return ok(c, http.StatusOK, &response{AllowedBranches: allowed})
	})

	e.POST("/api/check-name", func(c echo.Context) error {
		type request struct {
			Kind      entity.Kind `json:"kind"`
			Namespace string      `json:"namespace"`
			Name      string      `json:"name"`
		}
		var req request
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		name := utils.SanitizeName(req.Name)
		checkName := do.MustInvoke[usecase.CheckNameUsecase](injector)
		available, err := checkName.Execute(c.Request().Context(), req.Kind, req.Namespace, name)
		if err != nil {
			return fail(c, err)
		}

		type response struct {
			Name      string `json:"name"`
			Available bool   `json:"available"`
		}
		return ok(c, http.StatusOK, &response{Name: name, Available: available})
	})
}
