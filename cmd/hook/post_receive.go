package hook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/py-react/cloud-ops-sub002/internal/app"
	"github.com/py-react/cloud-ops-sub002/internal/config"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/runner"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

const zeroSHA = "0000000000000000000000000000000000000000"

type refUpdate struct {
	OldSHA string
	NewSHA string
	Branch string
}

// parseUpdates reads "<old> <new> <ref>" lines and keeps pushed branches.
// Deleted branches and other refs are skipped.
func parseUpdates(r io.Reader, log *zerolog.Logger) ([]refUpdate, error) {
	var updates []refUpdate
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		parts := strings.Fields(line)
		if len(parts) != 3 {
			log.Error().Str("line", line).Msg("invalid input line")
			continue
		}
		oldsha, newsha, refName := parts[0], parts[1], parts[2]
		branch, ok := strings.CutPrefix(refName, "refs/heads/")
		if !ok || newsha == zeroSHA {
			continue
		}
		updates = append(updates, refUpdate{OldSHA: oldsha, NewSHA: newsha, Branch: branch})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return updates, nil
}

var postReceiveCmd = &cobra.Command{
	Use:           "post-receive",
	Short:         "Handle post-receive git hook. Not intended to be run manually.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		gitDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
		reponame := strings.TrimSuffix(filepath.Base(gitDir), ".git")
		logger := log.With().Str("repo", reponame).Logger()
		ctx = logger.WithContext(ctx)

		updates, err := parseUpdates(os.Stdin, &logger)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			logger.Info().Msg("no branch pushed")
			return nil
		}

		sourceControl, err := app.SourceControl(cfg, logger)
		if err != nil {
			return err
		}
		dockerRunner, err := app.Runner(cfg)
		if err != nil {
			return err
		}
		if dockerRunner != nil {
			defer dockerRunner.Close()
		}
		injector := app.Injector(cfg, sourceControl, dockerRunner)

		for _, u := range updates {
			if err := handleUpdate(ctx, injector, dockerRunner, gitDir, reponame, u); err != nil {
				logger.Error().Err(err).Str("branch", u.Branch).Msg("failed to handle push")
				return err
			}
		}
		return nil
	},
}

func handleUpdate(ctx context.Context, injector *do.Injector, dockerRunner *runner.DockerRunner, gitDir, reponame string, u refUpdate) error {
	log := zerolog.Ctx(ctx).With().Str("branch", u.Branch).Str("new_sha", u.NewSHA).Logger()
	ctx = log.WithContext(ctx)

	releases, err := do.MustInvoke[repository.ReleaseRepository](injector).ListBySourceControl(ctx, reponame, u.Branch)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		log.Info().Msg("no release bound to branch")
		return nil
	}

	image := ""
	if dockerRunner != nil {
		if image, err = buildImage(ctx, dockerRunner, gitDir, reponame, u); err != nil {
			return err
		}
	}

	runs := do.MustInvoke[usecase.ReleaseRunUsecase](injector)
	created, err := runs.TriggerPush(ctx, reponame, u.Branch, image)
	if err != nil {
		return err
	}
	if dockerRunner == nil {
		return nil
	}
	for _, run := range created {
		done, err := runs.Execute(ctx, run.ID)
		if err != nil {
			return err
		}
		log.Info().Str("run", done.ID.String()).Str("status", string(done.Status)).Msg("release run finished")
	}
	return nil
}

// buildImage builds the pushed commit when it carries a Dockerfile and
// returns the image reference. An empty result keeps the release default.
func buildImage(ctx context.Context, dockerRunner *runner.DockerRunner, gitDir, reponame string, u refUpdate) (string, error) {
	log := zerolog.Ctx(ctx)

	tmpDir, err := os.MkdirTemp("", fmt.Sprintf("cloudops-build-%s-*", u.NewSHA))
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := exec.CommandContext(ctx, "git", "clone", "--depth=1", "--branch="+u.Branch, gitDir, tmpDir).Run(); err != nil {
		return "", fmt.Errorf("git clone: %w", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "Dockerfile")); os.IsNotExist(err) {
		log.Warn().Msg("no Dockerfile found, using the release default image")
		return "", nil
	}

	log.Info().Msg("building image")
	if _, err := runner.BuildImage(ctx, dockerRunner.Client(), tmpDir, reponame, u.NewSHA); err != nil {
		return "", err
	}
	return runner.ImageTags(reponame, u.NewSHA)[0], nil
}
