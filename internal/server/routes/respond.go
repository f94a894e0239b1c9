package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/rs/zerolog"
)

type successResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type conflictResponse struct {
	Detail struct {
		Dependents []entity.Dependent `json:"dependents"`
	} `json:"detail"`
}

func ok(c echo.Context, code int, data any) error {
	return c.JSON(code, &successResponse{Status: "success", Data: data})
}

// fail writes err with the status its type maps to.
func fail(c echo.Context, err error) error {
	var (
		invalid  *entity.ValidationError
		conflict *entity.ConflictError
	)
	switch {
	case errors.As(err, &conflict):
		var res conflictResponse
		res.Detail.Dependents = conflict.Dependents
		return c.JSON(http.StatusConflict, &res)
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, &errorResponse{Status: "error", Message: invalid.Message, Field: invalid.Field})
	case errors.Is(err, entity.ErrInvalid):
		return c.JSON(http.StatusBadRequest, &errorResponse{Status: "error", Message: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		return c.JSON(http.StatusNotFound, &errorResponse{Status: "error", Message: err.Error()})
	case errors.Is(err, entity.ErrForbidden):
		return c.JSON(http.StatusForbidden, &errorResponse{Status: "error", Message: err.Error()})
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, &errorResponse{Status: "error", Message: "internal error"})
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		var invalid *entity.ValidationError
		if errors.As(err, &invalid) {
			return invalid
		}
		return entity.Invalid("", "malformed request body")
	}
	return nil
}

func pathID(c echo.Context) (entity.ID, error) {
	return entity.ParseID(c.Param("id"))
}

func queryBool(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, entity.Invalid(name, "must be a boolean")
	}
	return v, nil
}
