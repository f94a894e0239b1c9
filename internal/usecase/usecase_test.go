package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/runner"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
)

const ns = "team"

type fixture struct {
	profiles   ProfileUsecase
	containers ContainerUsecase
	pods       PodUsecase
	releases   ReleaseUsecase
	runs       ReleaseRunUsecase
	names      CheckNameUsecase
}

func newFixture(t *testing.T, opts ...func(*do.Injector)) *fixture {
	t.Helper()
	db, err := repository.NewSQLiteDB("")
	require.NoError(t, err)

	i := do.New()
	do.ProvideValue(i, repository.NewTransactor(db))
	do.ProvideValue(i, repository.NewProfileRepository(db))
	do.ProvideValue(i, repository.NewContainerRepository(db))
	do.ProvideValue(i, repository.NewPodRepository(db))
	do.ProvideValue(i, repository.NewReleaseRepository(db))
	do.ProvideValue(i, repository.NewReleaseRunRepository(db))
	do.ProvideValue(i, repository.NewReferenceRepository(db))
	do.ProvideValue(i, compose.PodDefaults{})
	do.ProvideValue(i, scm.NewStatic(map[string][]string{"api": {"main", "release"}}))
	for _, opt := range opts {
		opt(i)
	}
	Provide(i)

	return &fixture{
		profiles:   do.MustInvoke[ProfileUsecase](i),
		containers: do.MustInvoke[ContainerUsecase](i),
		pods:       do.MustInvoke[PodUsecase](i),
		releases:   do.MustInvoke[ReleaseUsecase](i),
		runs:       do.MustInvoke[ReleaseRunUsecase](i),
		names:      do.MustInvoke[CheckNameUsecase](i),
	}
}

func (f *fixture) profile(t *testing.T, name string, typ entity.ProfileType, cfg map[string]any) *entity.Profile {
	t.Helper()
	p, err := f.profiles.Create(context.Background(), &entity.Profile{
		Meta: entity.Meta{Namespace: ns, Name: name}, Type: typ, Config: cfg,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) container(t *testing.T, name string, attr entity.DynamicAttr) *entity.ContainerSpec {
	t.Helper()
	c, err := f.containers.Create(context.Background(), &entity.ContainerSpec{
		Meta: entity.Meta{Namespace: ns, Name: name}, DynamicAttr: attr,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) pod(t *testing.T, name string, containers ...entity.ID) *entity.PodSpec {
	t.Helper()
	p, err := f.pods.Create(context.Background(), &entity.PodSpec{
		Meta: entity.Meta{Namespace: ns, Name: name}, Containers: containers,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) release(t *testing.T, name string, pod entity.ID) *entity.ReleaseConfig {
	t.Helper()
	r, err := f.releases.Create(context.Background(), &entity.ReleaseConfig{
		Meta:                entity.Meta{Namespace: ns, Name: name},
		Kind:                entity.ReleaseKindDeployment,
		Replicas:            2,
		Tag:                 "v1",
		DerivedDeploymentID: pod,
	})
	require.NoError(t, err)
	return r
}

var cpuLimit = map[string]any{"limits": map[string]any{"cpu": "250m"}}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *entity.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, field, verr.Field)
}

func requireDependents(t *testing.T, err error, want ...entity.Dependent) {
	t.Helper()
	var cerr *entity.ConflictError
	require.True(t, errors.As(err, &cerr), "expected ConflictError, got %v", err)
	assert.Equal(t, want, cerr.Dependents)
}

func TestProfileValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.profiles.Create(ctx, &entity.Profile{Meta: entity.Meta{Namespace: ns, Name: "x"}, Type: "gpu", Config: map[string]any{}})
	requireField(t, err, "type")

	_, err = f.profiles.Create(ctx, &entity.Profile{
		Meta: entity.Meta{Namespace: ns, Name: "x"}, Type: entity.ProfileTypeResource,
		Config: map[string]any{"limits": map[string]any{"cpu": "lots"}},
	})
	require.ErrorIs(t, err, entity.ErrInvalid)

	p := f.profile(t, "small", entity.ProfileTypeResource, cpuLimit)
	_, err = f.profiles.Create(ctx, &entity.Profile{Meta: entity.Meta{Namespace: ns, Name: "small"}, Type: entity.ProfileTypeResource, Config: cpuLimit})
	requireField(t, err, "name")

	// type is immutable
	_, err = f.profiles.Update(ctx, &entity.Profile{Meta: entity.Meta{ID: p.ID, Name: "small"}, Type: entity.ProfileTypeEnv, Config: cpuLimit})
	requireField(t, err, "type")

	updated, err := f.profiles.Update(ctx, &entity.Profile{Meta: entity.Meta{ID: p.ID, Name: "tiny"}, Config: map[string]any{"limits": map[string]any{"cpu": "100m"}}})
	require.NoError(t, err)
	assert.Equal(t, "tiny", updated.Name)
	assert.Equal(t, entity.ProfileTypeResource, updated.Type)
	assert.Equal(t, ns, updated.Namespace)
}

func TestCheckName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.profile(t, "small", entity.ProfileTypeResource, cpuLimit)

	free, err := f.names.Execute(ctx, entity.KindProfile, ns, "small")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = f.names.Execute(ctx, entity.KindContainer, ns, "small")
	require.NoError(t, err)
	assert.True(t, free)

	// soft-deleted records keep their name
	_, err = f.profiles.Delete(ctx, p.ID, false)
	require.NoError(t, err)
	free, err = f.names.Execute(ctx, entity.KindProfile, ns, "small")
	require.NoError(t, err)
	assert.False(t, free)

	_, err = f.profiles.Delete(ctx, p.ID, true)
	require.NoError(t, err)
	free, err = f.names.Execute(ctx, entity.KindProfile, ns, "small")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = f.names.Execute(ctx, "job", ns, "small")
	requireField(t, err, "kind")
}

func TestDanglingReferenceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	env := f.profile(t, "env", entity.ProfileTypeEnv, map[string]any{"vars": []any{map[string]any{"name": "A", "value": "1"}}})

	tests := []struct {
		name  string
		attr  entity.DynamicAttr
		field string
	}{
		{"missing profile", entity.DynamicAttr{"resources": "404"}, "dynamic_attr.resources"},
		{"wrong type", entity.DynamicAttr{"resources": env.ID}, "dynamic_attr.resources"},
		{"unknown slot", entity.DynamicAttr{"sidecar": env.ID}, "dynamic_attr.sidecar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.containers.Create(ctx, &entity.ContainerSpec{Meta: entity.Meta{Namespace: ns, Name: "web"}, DynamicAttr: tt.attr})
			requireField(t, err, tt.field)
		})
	}

	list, err := f.containers.List(ctx, repository.ListOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProfileInOtherNamespaceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.profiles.Create(ctx, &entity.Profile{Meta: entity.Meta{Namespace: "other", Name: "res"}, Type: entity.ProfileTypeResource, Config: cpuLimit})
	require.NoError(t, err)

	_, err = f.containers.Create(ctx, &entity.ContainerSpec{
		Meta: entity.Meta{Namespace: ns, Name: "web"}, DynamicAttr: entity.DynamicAttr{"resources": other.ID},
	})
	requireField(t, err, "dynamic_attr.resources")
}

func TestResolveIsIdempotentAndUncached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.profile(t, "res", entity.ProfileTypeResource, cpuLimit)
	c := f.container(t, "web", entity.DynamicAttr{"Resources": res.ID})
	assert.Equal(t, entity.DynamicAttr{"resources": res.ID}, c.DynamicAttr)

	a, err := f.containers.Resolve(ctx, c.ID)
	require.NoError(t, err)
	b, err := f.containers.Resolve(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "250m", a.Container.Resources.Limits.Cpu().String())

	_, err = f.profiles.Update(ctx, &entity.Profile{Meta: entity.Meta{ID: res.ID, Name: "res"}, Config: map[string]any{"limits": map[string]any{"cpu": "1"}}})
	require.NoError(t, err)
	after, err := f.containers.Resolve(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", after.Container.Resources.Limits.Cpu().String())
}

func TestPodResolveKeepsContainerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.container(t, "a", nil)
	b := f.container(t, "b", nil)
	p := f.pod(t, "web", b.ID, a.ID)

	resolved, err := f.pods.Resolve(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, resolved.Spec.Containers, 2)
	assert.Equal(t, "b", resolved.Spec.Containers[0].Name)
	assert.Equal(t, "a", resolved.Spec.Containers[1].Name)
	assert.Equal(t, compose.DefaultServiceAccountName, resolved.Spec.ServiceAccountName)
	assert.EqualValues(t, compose.DefaultDNSPolicy, resolved.Spec.DNSPolicy)

	_, err = f.pods.Create(ctx, &entity.PodSpec{Meta: entity.Meta{Namespace: ns, Name: "empty"}})
	requireField(t, err, "containers")

	_, err = f.pods.Create(ctx, &entity.PodSpec{Meta: entity.Meta{Namespace: ns, Name: "dup"}, Containers: []entity.ID{a.ID, a.ID}})
	requireField(t, err, "containers[1]")
}

func TestConflictGuardedDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.profile(t, "res", entity.ProfileTypeResource, cpuLimit)
	web := f.container(t, "web", entity.DynamicAttr{"resources": res.ID})
	worker := f.container(t, "worker", entity.DynamicAttr{"resources": res.ID})

	_, err := f.profiles.Delete(ctx, res.ID, false)
	requireDependents(t, err,
		entity.Dependent{Type: entity.KindContainer, Name: "web", ID: web.ID, Deletion: entity.DeletionLive},
		entity.Dependent{Type: entity.KindContainer, Name: "worker", ID: worker.ID, Deletion: entity.DeletionLive},
	)
	got, err := f.profiles.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeletionLive, got.Deletion)

	deps, err := f.profiles.Dependents(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, deps, 2)

	_, err = f.containers.Delete(ctx, web.ID, false)
	require.NoError(t, err)
	_, err = f.containers.Delete(ctx, worker.ID, false)
	require.NoError(t, err)

	// soft-deleted referrers no longer block a soft delete
	soft, err := f.profiles.Delete(ctx, res.ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.DeletionSoftDeleted, soft.Deletion)

	// but they still block the hard delete
	_, err = f.profiles.Delete(ctx, res.ID, true)
	require.ErrorIs(t, err, entity.ErrConflict)
}

func TestDependentsIncludeSoftDeletedReferrers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	env := f.profile(t, "env", entity.ProfileTypeEnv, map[string]any{"vars": []any{map[string]any{"name": "A", "value": "1"}}})
	web := f.container(t, "web", entity.DynamicAttr{"env": env.ID})

	_, err := f.containers.Delete(ctx, web.ID, false)
	require.NoError(t, err)

	deps, err := f.profiles.Dependents(ctx, env.ID)
	require.NoError(t, err)
	want := entity.Dependent{Type: entity.KindContainer, Name: "web", ID: web.ID, Deletion: entity.DeletionSoftDeleted}
	assert.Equal(t, []entity.Dependent{want}, deps)

	_, err = f.profiles.Delete(ctx, env.ID, false)
	require.NoError(t, err)
	_, err = f.profiles.Delete(ctx, env.ID, true)
	requireDependents(t, err, want)

	_, err = f.containers.Delete(ctx, web.ID, true)
	require.NoError(t, err)
	deps, err = f.profiles.Dependents(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestMalformedReferenceIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)

	_, err := f.containers.Create(ctx, &entity.ContainerSpec{
		Meta: entity.Meta{Namespace: ns, Name: "bad"}, DynamicAttr: entity.DynamicAttr{"resources": "abc"},
	})
	requireField(t, err, "dynamic_attr.resources")

	_, err = f.pods.Create(ctx, &entity.PodSpec{
		Meta: entity.Meta{Namespace: ns, Name: "bad"}, Containers: []entity.ID{c.ID, "x1"},
	})
	requireField(t, err, "containers[1]")

	_, err = f.releases.Create(ctx, &entity.ReleaseConfig{
		Meta: entity.Meta{Namespace: ns, Name: "bad"}, Kind: entity.ReleaseKindDeployment, DerivedDeploymentID: "pod-1",
	})
	requireField(t, err, "derived_deployment_id")

	_, err = f.pods.Update(ctx, &entity.PodSpec{
		Meta: entity.Meta{ID: "abc", Namespace: ns, Name: "web"}, Containers: []entity.ID{c.ID},
	})
	requireField(t, err, "id")

	// nothing was written
	pods, err := f.pods.List(ctx, repository.ListOptions{Namespace: ns})
	require.NoError(t, err)
	require.Len(t, pods, 1)
	assert.Equal(t, p.ID, pods[0].ID)
	deps, err := f.containers.Dependents(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, deps, 1)
}

func TestTwoPhaseDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)

	_, err := f.containers.Delete(ctx, c.ID, true)
	requireDependents(t, err, entity.Dependent{Type: entity.KindPod, Name: "web", ID: p.ID, Deletion: entity.DeletionLive})

	soft, err := f.pods.Delete(ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, soft.Deletion.SoftDeleted())
	assert.False(t, soft.Deletion.HardDeleted())

	_, err = f.pods.Delete(ctx, p.ID, false)
	requireField(t, err, "confirm")

	// soft-deleted pods stay visible only on request
	live, err := f.pods.List(ctx, repository.ListOptions{Namespace: ns})
	require.NoError(t, err)
	assert.Empty(t, live)
	all, err := f.pods.List(ctx, repository.ListOptions{Namespace: ns, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.containers.Delete(ctx, c.ID, false)
	require.NoError(t, err)
	_, err = f.containers.Delete(ctx, c.ID, true)
	require.ErrorIs(t, err, entity.ErrConflict, "soft-deleted pod still blocks the hard delete")

	hard, err := f.pods.Delete(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, hard.Deletion.HardDeleted())
	_, err = f.pods.Get(ctx, p.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)
	_, err = f.pods.Restore(ctx, p.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.containers.Delete(ctx, c.ID, true)
	require.NoError(t, err)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)

	_, err := f.containers.Restore(ctx, c.ID)
	requireField(t, err, "deletion_state")

	_, err = f.containers.DeleteByName(ctx, ns, "web", false)
	require.NoError(t, err)
	restored, err := f.containers.Restore(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeletionLive, restored.Deletion)

	// a restored referrer blocks deletes again
	p := f.pod(t, "web", c.ID)
	_, err = f.pods.Delete(ctx, p.ID, false)
	require.NoError(t, err)
	_, err = f.containers.Delete(ctx, c.ID, false)
	require.NoError(t, err)
	_, err = f.pods.Restore(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.containers.Restore(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.containers.Delete(ctx, c.ID, false)
	require.ErrorIs(t, err, entity.ErrConflict)
}

func TestUpdateKeepsDeletionState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	_, err := f.containers.Delete(ctx, c.ID, false)
	require.NoError(t, err)

	updated, err := f.containers.Update(ctx, &entity.ContainerSpec{
		Meta: entity.Meta{ID: c.ID, Name: "web", Deletion: entity.DeletionLive}, WorkingDir: "/srv",
	})
	require.NoError(t, err)
	assert.Equal(t, "/srv", updated.WorkingDir)
	assert.Equal(t, entity.DeletionSoftDeleted, updated.Deletion)

	_, err = f.containers.Update(ctx, &entity.ContainerSpec{Meta: entity.Meta{ID: c.ID, Namespace: "other", Name: "web"}})
	requireField(t, err, "namespace")
}

func TestReleaseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	r := f.release(t, "api", p.ID)
	assert.Equal(t, entity.ReleaseStatusActive, r.Status)

	_, err := f.releases.Create(ctx, &entity.ReleaseConfig{
		Meta: entity.Meta{Namespace: ns, Name: "api"}, Kind: entity.ReleaseKindDeployment, DerivedDeploymentID: p.ID,
	})
	requireField(t, err, "name")

	_, err = f.pods.Delete(ctx, p.ID, false)
	requireDependents(t, err, entity.Dependent{Type: entity.KindRelease, Name: "api", ID: r.ID, Deletion: entity.DeletionLive})

	inactive, err := f.releases.ToggleStatus(ctx, r.ID, entity.ReleaseStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, entity.ReleaseStatusInactive, inactive.Status)

	_, err = f.releases.Delete(ctx, r.ID, false)
	require.NoError(t, err)
	toggled, err := f.releases.ToggleStatus(ctx, r.ID, entity.ReleaseStatusInactive)
	require.NoError(t, err, "status is independent of deletion")
	assert.Equal(t, entity.DeletionSoftDeleted, toggled.Deletion)

	restored, err := f.releases.Restore(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeletionLive, restored.Deletion)
	assert.Equal(t, entity.ReleaseStatusActive, restored.Status)

	_, err = f.releases.Delete(ctx, r.ID, false)
	require.NoError(t, err)
	_, err = f.releases.Delete(ctx, r.ID, true)
	require.NoError(t, err)
	_, err = f.releases.ToggleStatus(ctx, r.ID, entity.ReleaseStatusActive)
	require.ErrorIs(t, err, entity.ErrNotFound)

	// the name is free again once the old record is gone
	again := f.release(t, "api", p.ID)
	assert.NotEqual(t, r.ID, again.ID)
}

func TestReleaseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	base := func() *entity.ReleaseConfig {
		return &entity.ReleaseConfig{
			Meta: entity.Meta{Namespace: ns, Name: "api"}, Kind: entity.ReleaseKindStatefulSet, DerivedDeploymentID: p.ID,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *entity.ReleaseConfig)
		field  string
	}{
		{"kind", func(r *entity.ReleaseConfig) { r.Kind = "DaemonSet" }, "kind"},
		{"replicas", func(r *entity.ReleaseConfig) { r.Replicas = -1 }, "replicas"},
		{"missing pod", func(r *entity.ReleaseConfig) { r.DerivedDeploymentID = "404" }, "derived_deployment_id"},
		{"repo required", func(r *entity.ReleaseConfig) { r.RequiredSourceControl = true }, "code_source_control_name"},
		{"unknown repo", func(r *entity.ReleaseConfig) {
			r.RequiredSourceControl, r.CodeSourceControlName, r.SourceControlBranch = true, "web", "main"
		}, "code_source_control_name"},
		{"branch not allowed", func(r *entity.ReleaseConfig) {
			r.RequiredSourceControl, r.CodeSourceControlName, r.SourceControlBranch = true, "api", "feature"
		}, "source_control_branch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(r)
			_, err := f.releases.Create(ctx, r)
			requireField(t, err, tt.field)
		})
	}

	r := base()
	r.RequiredSourceControl, r.CodeSourceControlName, r.SourceControlBranch = true, "api", "release"
	created, err := f.releases.Create(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, entity.ReleaseKindStatefulSet, created.Kind)
}

func TestCloneIsIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	src := f.release(t, "api", p.ID)

	first, err := f.releases.Clone(ctx, src.ID)
	require.NoError(t, err)
	second, err := f.releases.Clone(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "api-copy", first.Name)
	assert.Equal(t, "api-copy-2", second.Name)
	assert.NotEqual(t, src.ID, first.ID)
	assert.Equal(t, src.Tag, first.Tag)
	assert.Equal(t, src.Replicas, first.Replicas)
	assert.Equal(t, src.DerivedDeploymentID, first.DerivedDeploymentID)

	first.Tag = "v2"
	first.Replicas = 5
	_, err = f.releases.Update(ctx, first)
	require.NoError(t, err)
	got, err := f.releases.Get(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Tag)
	assert.Equal(t, int32(2), got.Replicas)

	_, err = f.releases.Delete(ctx, src.ID, false)
	require.NoError(t, err)
	third, err := f.releases.Clone(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeletionLive, third.Deletion)
	assert.Equal(t, "api-copy-3", third.Name)

	_, err = f.pods.Delete(ctx, p.ID, false)
	require.ErrorIs(t, err, entity.ErrConflict, "the clone references the pod too")
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	r := f.release(t, "api", p.ID)

	m, err := f.releases.Render(ctx, r.ID, "")
	require.NoError(t, err)
	dep, ok := m.Object.(*appsv1.Deployment)
	require.True(t, ok)
	assert.Equal(t, int32(2), *dep.Spec.Replicas)
	assert.Equal(t, "api:v1", dep.Spec.Template.Spec.Containers[0].Image)
	assert.Contains(t, m.YAML, "kind: Deployment")

	m, err = f.releases.Render(ctx, r.ID, "registry/api:abc")
	require.NoError(t, err)
	assert.Equal(t, "registry/api:abc", m.PodTemplate().Spec.Containers[0].Image)
}

func TestReleaseRunLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	r := f.release(t, "api", p.ID)

	first, err := f.runs.CreateRun(ctx, r.ID, "", "https://example.com/pr/1", "OPS-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusPending, first.Status)
	assert.Equal(t, "api:v1", first.ImageName)
	second, err := f.runs.CreateRun(ctx, r.ID, "api:abc", "", "")
	require.NoError(t, err)

	_, err = f.runs.UpdateRunStatus(ctx, first.ID, entity.RunStatusSuccess)
	requireField(t, err, "status")
	running, err := f.runs.UpdateRunStatus(ctx, first.ID, entity.RunStatusRunning)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusRunning, running.Status)
	_, err = f.runs.UpdateRunStatus(ctx, first.ID, entity.RunStatusSuccess)
	require.NoError(t, err)
	_, err = f.runs.UpdateRunStatus(ctx, first.ID, entity.RunStatusFailed)
	requireField(t, err, "status")

	// runs never block release mutations and survive the release
	_, err = f.releases.Delete(ctx, r.ID, false)
	require.NoError(t, err)
	_, err = f.runs.CreateRun(ctx, r.ID, "", "", "")
	require.NoError(t, err)
	_, err = f.releases.Delete(ctx, r.ID, true)
	require.NoError(t, err)
	_, err = f.runs.CreateRun(ctx, r.ID, "", "", "")
	require.ErrorIs(t, err, entity.ErrNotFound)

	runs, err := f.runs.ListRuns(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.Equal(t, "OPS-1", runs[0].Jira)
}

func TestTriggerPush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	bound, err := f.releases.Create(ctx, &entity.ReleaseConfig{
		Meta: entity.Meta{Namespace: ns, Name: "api"}, Kind: entity.ReleaseKindDeployment, DerivedDeploymentID: p.ID,
		RequiredSourceControl: true, CodeSourceControlName: "api", SourceControlBranch: "main",
	})
	require.NoError(t, err)
	f.release(t, "unbound", p.ID)

	runs, err := f.runs.TriggerPush(ctx, "api", "main", "api:0123abc")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, bound.ID, runs[0].ReleaseConfigID)
	assert.Equal(t, "api:0123abc", runs[0].ImageName)

	_, err = f.releases.ToggleStatus(ctx, bound.ID, entity.ReleaseStatusInactive)
	require.NoError(t, err)
	runs, err = f.runs.TriggerPush(ctx, "api", "main", "api:4567def")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

type fakeRunner struct {
	err   error
	calls int
}

func (r *fakeRunner) Execute(ctx context.Context, rel *entity.ReleaseConfig, run *entity.ReleaseRun, manifest *compose.Manifest) error {
	r.calls++
	if manifest.PodTemplate().Spec.Containers[0].Image != run.ImageName {
		return errors.New("wrong image")
	}
	return r.err
}

func TestExecute(t *testing.T) {
	fake := &fakeRunner{}
	f := newFixture(t, func(i *do.Injector) {
		do.ProvideValue[runner.Runner](i, fake)
	})
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	r := f.release(t, "api", p.ID)

	run, err := f.runs.CreateRun(ctx, r.ID, "api:abc", "", "")
	require.NoError(t, err)
	done, err := f.runs.Execute(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusSuccess, done.Status)
	assert.Equal(t, 1, fake.calls)

	_, err = f.runs.Execute(ctx, run.ID)
	requireField(t, err, "status")

	fake.err = errors.New("engine down")
	run, err = f.runs.CreateRun(ctx, r.ID, "api:def", "", "")
	require.NoError(t, err)
	failed, err := f.runs.Execute(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, failed.Status)
}

func TestExecuteDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.container(t, "web", nil)
	p := f.pod(t, "web", c.ID)
	r := f.release(t, "api", p.ID)
	run, err := f.runs.CreateRun(ctx, r.ID, "", "", "")
	require.NoError(t, err)

	_, err = f.runs.Execute(ctx, run.ID)
	require.ErrorIs(t, err, entity.ErrForbidden)
}

// A hard delete racing a new reference must never leave the new referrer
// pointing at a hard-deleted profile.
func TestConcurrentDeleteAndReference(t *testing.T) {
	for n := range 10 {
		f := newFixture(t)
		ctx := context.Background()
		res := f.profile(t, "res", entity.ProfileTypeResource, cpuLimit)
		_, err := f.profiles.Delete(ctx, res.ID, false)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			deleteErr error
			createErr error
			created   *entity.ContainerSpec
		)
		wg.Go(func() {
			_, deleteErr = f.profiles.Delete(ctx, res.ID, true)
		})
		wg.Go(func() {
			created, createErr = f.containers.Create(ctx, &entity.ContainerSpec{
				Meta: entity.Meta{Namespace: ns, Name: "web"}, DynamicAttr: entity.DynamicAttr{"resources": res.ID},
			})
		})
		wg.Wait()

		if createErr == nil {
			require.ErrorIs(t, deleteErr, entity.ErrConflict, "round %d", n)
			_, err := f.containers.Resolve(ctx, created.ID)
			require.NoError(t, err)
		} else {
			require.NoError(t, deleteErr, "round %d", n)
			requireField(t, createErr, "dynamic_attr.resources")
		}
	}
}
