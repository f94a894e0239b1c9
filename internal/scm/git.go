package scm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/utils"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// GitSourceControl serves the bare repositories found under a root
// directory. Repositories it creates run `<binary> hook post-receive` on
// every push.
type GitSourceControl struct {
	rootDir string
	binary  string
	hookEnv []string
	log     zerolog.Logger
}

type GitOption func(*GitSourceControl)

// WithHookBinary sets the executable the post-receive hook calls.
func WithHookBinary(path string) GitOption {
	return func(g *GitSourceControl) { g.binary = path }
}

// WithHookEnv adds KEY=VALUE pairs exported by the post-receive hook.
func WithHookEnv(env ...string) GitOption {
	return func(g *GitSourceControl) { g.hookEnv = append(g.hookEnv, env...) }
}

func NewGit(root string, log zerolog.Logger, opts ...GitOption) *GitSourceControl {
	g := &GitSourceControl{rootDir: root, binary: os.Args[0], log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// InitBare creates the bare repository reponame and installs the
// post-receive hook.
func (g *GitSourceControl) InitBare(ctx context.Context, reponame string) error {
	repodir := g.RepoDir(reponame)
	if err := os.MkdirAll(repodir, os.ModePerm); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}
	if err := exec.CommandContext(ctx, "git", "init", "--bare", repodir).Run(); err != nil {
		return fmt.Errorf("init bare repo: %w", err)
	}

	hooksDir := filepath.Join(repodir, "hooks")
	if err := os.MkdirAll(hooksDir, os.ModePerm); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}

	lines := lo.Map(g.hookEnv, func(kv string, _ int) string { return "export " + shellQuote(kv) })
	lines = append(lines, fmt.Sprintf("exec %s hook post-receive", shellQuote(g.binary)))
	scriptPath := filepath.Join(hooksDir, "post-receive")
	if err := os.WriteFile(scriptPath, []byte(shellScript(lines...)), 0o755); err != nil {
		return fmt.Errorf("write post-receive hook: %w", err)
	}

	g.log.Info().Str("repo", reponame).Str("dir", repodir).Msg("initialized bare repository")
	return nil
}

// AllowedBranches implements SourceControl. Every branch of every repository
// under the root is allowed.
func (g *GitSourceControl) AllowedBranches(ctx context.Context) (map[string][]string, error) {
	entries, err := os.ReadDir(g.rootDir)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read source control root: %w", err)
	}
	out := map[string][]string{}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".git") {
			continue
		}
		repo := strings.TrimSuffix(e.Name(), ".git")
		branches, err := g.Branches(ctx, repo)
		if err != nil {
			return nil, err
		}
		out[repo] = branches
	}
	return out, nil
}

// Branches implements SourceControl.
func (g *GitSourceControl) Branches(ctx context.Context, repo string) ([]string, error) {
	repodir := g.RepoDir(repo)
	if _, err := os.Stat(repodir); os.IsNotExist(err) {
		return nil, &entity.NotFoundError{Kind: "source_control", ID: entity.ID(repo)}
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "--git-dir", repodir, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list branches of %s: %w: %s", repo, err, strings.TrimSpace(stderr.String()))
	}
	branches := lo.Compact(strings.Split(strings.TrimSpace(stdout.String()), "\n"))
	slices.Sort(branches)
	return branches, nil
}

func (g *GitSourceControl) RepoDir(reponame string) string {
	return lo.Must(filepath.Abs(filepath.Join(g.rootDir, utils.EnsureSuffix(reponame, ".git"))))
}

func shellScript(lines ...string) string {
	return "#!/bin/sh\n" + strings.Join(lines, "\n") + "\n"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
