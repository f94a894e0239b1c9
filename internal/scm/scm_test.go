package scm

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSourceControl(t *testing.T) {
	ctx := context.Background()
	allowed := map[string][]string{"api": {"main", "release"}}
	sc := NewStatic(allowed)
	allowed["api"][0] = "mutated"

	got, err := sc.AllowedBranches(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"api": {"main", "release"}}, got)

	branches, err := sc.Branches(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "release"}, branches)

	_, err = sc.Branches(ctx, "web")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGitSourceControl(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	root := t.TempDir()
	sc := NewGit(root, zerolog.Nop(), WithHookBinary("/usr/local/bin/cloudops"), WithHookEnv("CLOUDOPS_DATABASE_PATH=/var/lib/cloudops.db"))

	require.NoError(t, sc.InitBare(ctx, "api"))
	hook, err := os.ReadFile(filepath.Join(root, "api.git", "hooks", "post-receive"))
	require.NoError(t, err)
	assert.Contains(t, string(hook), "export 'CLOUDOPS_DATABASE_PATH=/var/lib/cloudops.db'")
	assert.Contains(t, string(hook), "exec '/usr/local/bin/cloudops' hook post-receive")

	allowed, err := sc.AllowedBranches(ctx)
	require.NoError(t, err)
	require.Contains(t, allowed, "api")
	assert.Empty(t, allowed["api"])

	// push two branches without running the hook
	require.NoError(t, os.Remove(filepath.Join(root, "api.git", "hooks", "post-receive")))
	work := t.TempDir()
	git(t, work, "init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(work, "README"), []byte("hi"), 0o644))
	git(t, work, "add", ".")
	git(t, work, "commit", "-m", "init")
	git(t, work, "branch", "dev")
	git(t, work, "push", sc.RepoDir("api"), "main", "dev")

	branches, err := sc.Branches(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "main"}, branches)

	_, err = sc.Branches(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	var adv bytes.Buffer
	require.NoError(t, sc.AdvertiseRefs(ctx, ServiceUploadPack, "api", &adv))
	assert.True(t, bytes.HasPrefix(adv.Bytes(), []byte("001e# service=git-upload-pack\n0000")))
	assert.Contains(t, adv.String(), "refs/heads/main")

	assert.ErrorIs(t, sc.AdvertiseRefs(ctx, ServiceUploadPack, "missing", &adv), entity.ErrNotFound)
	assert.ErrorIs(t, sc.AdvertiseRefs(ctx, "git-archive", "api", &adv), entity.ErrInvalid)
}

func TestServiceAnnouncement(t *testing.T) {
	assert.Equal(t, "001e# service=git-upload-pack\n0000", string(serviceAnnouncement(ServiceUploadPack)))
	assert.Equal(t, "001f# service=git-receive-pack\n0000", string(serviceAnnouncement(ServiceReceivePack)))
}
