package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/metrics"
	"github.com/py-react/cloud-ops-sub002/internal/status"
	"github.com/samber/do"
)

func RegisterStatus(injector *do.Injector, e *echo.Echo) {
	e.POST("/api/status/classify", func(c echo.Context) error {
		type request struct {
			Kind   string         `json:"kind"`
			Status map[string]any `json:"status"`
		}
		var req request
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		if req.Kind == "" {
			return fail(c, entity.Invalid("kind", "is required"))
		}
		state := status.Classify(req.Kind, req.Status)

		kind, known := status.ParseKind(req.Kind)
		if !known {
			kind = "other"
		}
		metrics.Classifications.WithLabelValues(string(kind), string(state)).Inc()

		type response struct {
			State status.LifecycleState `json:"state"`
		}
		return ok(c, http.StatusOK, &response{State: state})
	})
}
