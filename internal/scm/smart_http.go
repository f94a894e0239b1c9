package scm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/rs/zerolog"
)

// Service is a git smart HTTP service.
type Service string

const (
	ServiceUploadPack  Service = "git-upload-pack"
	ServiceReceivePack Service = "git-receive-pack"
)

func (s Service) Valid() bool {
	return s == ServiceUploadPack || s == ServiceReceivePack
}

// serviceAnnouncement is the pkt-line header of a ref advertisement,
// terminated by a flush packet.
func serviceAnnouncement(service Service) []byte {
	headerLine := fmt.Sprintf("# service=%s\n", service)
	// length is 4 hex digits including those 4 bytes plus payload
	sizeHex := strconv.FormatInt(int64(len(headerLine)+4), 16)
	if len(sizeHex) < 4 {
		sizeHex = strings.Repeat("0", 4-len(sizeHex)) + sizeHex
	}
	var buf bytes.Buffer
	buf.WriteString(sizeHex)
	buf.WriteString(headerLine)
	buf.WriteString("0000")
	return buf.Bytes()
}

func (g *GitSourceControl) existingRepo(repo string) (string, error) {
	repodir := g.RepoDir(repo)
	if _, err := os.Stat(repodir); os.IsNotExist(err) {
		return "", &entity.NotFoundError{Kind: "source_control", ID: entity.ID(repo)}
	}
	return repodir, nil
}

// AdvertiseRefs writes the ref advertisement of repo for service. Unknown
// repositories are not created.
func (g *GitSourceControl) AdvertiseRefs(ctx context.Context, service Service, repo string, w io.Writer) error {
	if !service.Valid() {
		return entity.Invalid("service", "unsupported service %q", service)
	}
	repodir, err := g.existingRepo(repo)
	if err != nil {
		return err
	}
	if _, err := w.Write(serviceAnnouncement(service)); err != nil {
		return fmt.Errorf("write announcement: %w", err)
	}
	return g.runService(ctx, exec.CommandContext(ctx, "git", strings.TrimPrefix(string(service), "git-"), "--stateless-rpc", "--advertise-refs", repodir), nil, w)
}

// StatelessRPC runs one request of service against repo. Pushes run the
// repository's post-receive hook.
func (g *GitSourceControl) StatelessRPC(ctx context.Context, service Service, repo string, in io.Reader, w io.Writer) error {
	if !service.Valid() {
		return entity.Invalid("service", "unsupported service %q", service)
	}
	repodir, err := g.existingRepo(repo)
	if err != nil {
		return err
	}
	return g.runService(ctx, exec.CommandContext(ctx, "git", strings.TrimPrefix(string(service), "git-"), "--stateless-rpc", repodir), in, w)
}

func (g *GitSourceControl) runService(ctx context.Context, cmd *exec.Cmd, in io.Reader, w io.Writer) error {
	log := zerolog.Ctx(ctx)
	var stderr bytes.Buffer
	cmd.Stdin = in
	cmd.Stdout = w
	cmd.Stderr = &stderr
	log.Debug().Strs("command", cmd.Args).Msg("executing git command")
	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Str("stderr", stderr.String()).Msg("git command failed")
		return fmt.Errorf("%s: %w", cmd.Args[1], err)
	}
	return nil
}
