package runner

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
)

// DockerRunner runs every container of a release's pod template as one
// docker container on the local engine. Containers of earlier runs of the
// same release are replaced.
type DockerRunner struct {
	cli *client.Client
}

func NewDockerRunner() (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerRunner{cli: cli}, nil
}

func (d *DockerRunner) Close() error {
	return d.cli.Close()
}

// Client exposes the engine client for image builds.
func (d *DockerRunner) Client() *client.Client { return d.cli }

// Execute implements Runner.
func (d *DockerRunner) Execute(ctx context.Context, rel *entity.ReleaseConfig, run *entity.ReleaseRun, manifest *compose.Manifest) error {
	log := zerolog.Ctx(ctx).With().Str("release", rel.ID.String()).Str("run", run.ID.String()).Logger()

	template := manifest.PodTemplate()
	if template == nil {
		return fmt.Errorf("manifest of release %s has no pod template", rel.ID)
	}

	if err := d.removePrevious(ctx, rel, &log); err != nil {
		return err
	}

	for _, c := range template.Spec.Containers {
		name := containerName(rel, run, c.Name)
		resp, err := d.cli.ContainerCreate(ctx,
			containerConfig(rel, run, c),
			&container.HostConfig{
				RestartPolicy: container.RestartPolicy{
					Name: container.RestartPolicyUnlessStopped,
				},
				NetworkMode: lo.Ternary(template.Spec.HostNetwork, container.NetworkMode("host"), ""),
			}, nil, nil, name)
		if err != nil {
			return fmt.Errorf("failed to create container %s: %w", name, err)
		}
		if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start container %s: %w", name, err)
		}
		log.Info().Str("container", resp.ID).Str("name", name).Msg("started container")
	}
	return nil
}

func (d *DockerRunner) removePrevious(ctx context.Context, rel *entity.ReleaseConfig, log *zerolog.Logger) error {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", LabelEnabled+"=true"),
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelRelease, rel.ID)),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range containers {
		log.Info().Str("container", c.ID).Msg("removing existing container")
		if err := d.cli.ContainerStop(ctx, c.ID, container.StopOptions{}); err != nil {
			return fmt.Errorf("failed to stop container %s: %w", c.ID, err)
		}
		if err := d.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID, err)
		}
	}
	return nil
}

func containerName(rel *entity.ReleaseConfig, run *entity.ReleaseRun, name string) string {
	return fmt.Sprintf("%s-%s-%s", rel.DeploymentName(), name, run.ID)
}

// containerConfig maps a pod template container onto a docker container.
// Only literal env values are carried over.
func containerConfig(rel *entity.ReleaseConfig, run *entity.ReleaseRun, c corev1.Container) *container.Config {
	env := lo.FilterMap(c.Env, func(e corev1.EnvVar, _ int) (string, bool) {
		return e.Name + "=" + e.Value, e.ValueFrom == nil
	})
	image := c.Image
	if image == "" {
		image = run.ImageName
	}
	return &container.Config{
		Image:      image,
		Entrypoint: c.Command,
		Cmd:        c.Args,
		Env:        env,
		WorkingDir: c.WorkingDir,
		Labels: map[string]string{
			LabelEnabled:   "true",
			LabelRelease:   rel.ID.String(),
			LabelRun:       run.ID.String(),
			LabelContainer: c.Name,
		},
	}
}
