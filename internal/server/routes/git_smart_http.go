package routes

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/samber/do"
)

// RegisterGitSmartHTTP serves the bare repositories of the git source
// control under /scm. Nothing is mounted for other drivers.
func RegisterGitSmartHTTP(injector *do.Injector, e *echo.Echo) {
	git, err := do.Invoke[*scm.GitSourceControl](injector)
	if err != nil {
		return
	}
	g := e.Group("/scm/:reponame")

	reReponame := regexp.MustCompile(`^[a-z0-9_.-]+\.git$`)
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().UserAgent(), "git/") {
				return c.NoContent(http.StatusBadRequest)
			}
			if !reReponame.MatchString(c.Param("reponame")) {
				return c.NoContent(http.StatusNotFound)
			}
			return next(c)
		}
	})

	gitStatus := func(c echo.Context, err error) error {
		switch {
		case errors.Is(err, entity.ErrNotFound):
			return c.NoContent(http.StatusNotFound)
		case errors.Is(err, entity.ErrInvalid):
			return c.NoContent(http.StatusForbidden)
		}
		return c.NoContent(http.StatusInternalServerError)
	}

	g.GET("/info/refs", func(c echo.Context) error {
		req, res := c.Request(), c.Response()
		reponame := strings.TrimSuffix(c.Param("reponame"), ".git")
		service := scm.Service(c.QueryParam("service"))
		if !service.Valid() {
			return c.NoContent(http.StatusForbidden)
		}

		res.Header().Set("Content-Type", "application/x-"+string(service)+"-advertisement")
		res.Header().Set("Cache-Control", "no-cache")
		if err := git.AdvertiseRefs(req.Context(), service, reponame, res); err != nil && !res.Committed {
			return gitStatus(c, err)
		}
		return nil
	})

	smartHandler := func(service scm.Service) echo.HandlerFunc {
		return func(c echo.Context) error {
			req, res := c.Request(), c.Response()
			reponame := strings.TrimSuffix(c.Param("reponame"), ".git")

			res.Header().Set("Content-Type", "application/x-"+string(service)+"-result")
			res.Header().Set("Cache-Control", "no-cache")
			if err := git.StatelessRPC(req.Context(), service, reponame, req.Body, res); err != nil && !res.Committed {
				return gitStatus(c, err)
			}
			return nil
		}
	}

	g.POST("/git-upload-pack", smartHandler(scm.ServiceUploadPack))
	g.POST("/git-receive-pack", smartHandler(scm.ServiceReceivePack))
}
