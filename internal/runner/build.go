package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/go-archive"
	"github.com/rs/zerolog"
)

// ImageTags returns the tags an image built from commitSHA of repo gets.
func ImageTags(repo, commitSHA string) []string {
	return []string{fmt.Sprintf("%s:%s", repo, commitSHA), fmt.Sprintf("%s:latest", repo)}
}

// BuildImage builds the Dockerfile at the root of dir and returns the image
// id.
func BuildImage(ctx context.Context, cli *client.Client, dir, repo, commitSHA string) (string, error) {
	log := zerolog.Ctx(ctx)

	buildContext, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create tar archive: %w", err)
	}
	defer buildContext.Close()

	resp, err := cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags: ImageTags(repo, commitSHA),
		Labels: map[string]string{
			LabelEnabled:      "true",
			"cloudops.repo":   repo,
			"cloudops.commit": commitSHA,
		},
		Dockerfile: "Dockerfile",
		Remove:     true,
		NoCache:    true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	imageID, err := readBuildOutput(resp.Body, log)
	if err != nil {
		return "", err
	}
	log.Info().Str("image", imageID).Msg("built image successfully")
	return imageID, nil
}

// readBuildOutput follows the JSON message stream of an image build and
// returns the id of the resulting image.
func readBuildOutput(r io.Reader, log *zerolog.Logger) (string, error) {
	imageID := ""
	dec := json.NewDecoder(r)
	for {
		var jm jsonmessage.JSONMessage
		if err := dec.Decode(&jm); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("failed to decode json message: %w", err)
		}
		if jm.Error != nil {
			return "", fmt.Errorf("build failed: %s", jm.Error.Message)
		}
		if stream := strings.TrimSpace(jm.Stream); stream != "" {
			log.Info().Msg(stream)
		}
		if jm.Aux != nil {
			var result build.Result
			if err := json.Unmarshal(*jm.Aux, &result); err != nil {
				return "", fmt.Errorf("failed to unmarshal json message: %w", err)
			}
			imageID = result.ID
		}
	}
	if imageID == "" {
		return "", fmt.Errorf("failed to get image ID")
	}
	return imageID, nil
}
