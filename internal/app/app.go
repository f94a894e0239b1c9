// Package app turns a loaded configuration into the collaborators the
// server and the git hook share.
package app

import (
	"fmt"
	"os"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/config"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/runner"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

func PodDefaults(cfg *config.Config) compose.PodDefaults {
	return compose.PodDefaults{
		ServiceAccountName: cfg.Cluster.ServiceAccountName,
		DNSPolicy:          cfg.Cluster.DNSPolicy,
	}
}

// SourceControl builds the configured driver. Repositories created by the
// git driver call back into the running binary with the same database.
func SourceControl(cfg *config.Config, log zerolog.Logger) (scm.SourceControl, error) {
	switch cfg.SourceControl.Driver {
	case config.DriverStatic:
		return scm.NewStatic(cfg.SourceControl.AllowedBranches), nil
	case config.DriverGit:
		return Git(cfg, log)
	}
	return nil, fmt.Errorf("unknown source control driver %q", cfg.SourceControl.Driver)
}

func Git(cfg *config.Config, log zerolog.Logger) (*scm.GitSourceControl, error) {
	binary, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return scm.NewGit(cfg.SourceControl.Root, log,
		scm.WithHookBinary(binary),
		scm.WithHookEnv(
			"CLOUDOPS_DATABASE_PATH="+cfg.DatabasePath,
			"CLOUDOPS_SOURCE_CONTROL_DRIVER="+config.DriverGit,
			"CLOUDOPS_SOURCE_CONTROL_ROOT="+cfg.SourceControl.Root,
			fmt.Sprintf("CLOUDOPS_RUNNER_ENABLED=%t", cfg.Runner.Enabled),
		),
	), nil
}

// Runner returns nil when execution is disabled.
func Runner(cfg *config.Config) (*runner.DockerRunner, error) {
	if !cfg.Runner.Enabled {
		return nil, nil
	}
	return runner.NewDockerRunner()
}

// Injector wires the database, the repositories, the usecases and their
// collaborators. dockerRunner may be nil.
func Injector(cfg *config.Config, sourceControl scm.SourceControl, dockerRunner *runner.DockerRunner) *do.Injector {
	i := do.New()
	repository.Provide(i, cfg.DatabasePath)
	do.ProvideValue(i, PodDefaults(cfg))
	do.ProvideValue(i, sourceControl)
	if dockerRunner != nil {
		do.ProvideValue[runner.Runner](i, dockerRunner)
	}
	usecase.Provide(i)
	return i
}
