// Package runner executes release runs on a container engine.
package runner

import (
	"context"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
)

const (
	LabelEnabled   = "cloudops.enabled"
	LabelRelease   = "cloudops.release"
	LabelRun       = "cloudops.run"
	LabelContainer = "cloudops.container"
)

// Runner deploys the manifest rendered for a run.
type Runner interface {
	Execute(ctx context.Context, rel *entity.ReleaseConfig, run *entity.ReleaseRun, manifest *compose.Manifest) error
}
