package profile

import (
	"testing"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		typ       entity.ProfileType
		raw       map[string]any
		wantField string
	}{
		{"resource ok", entity.ProfileTypeResource, map[string]any{"limits": map[string]any{"cpu": "500m", "memory": "128Mi"}}, ""},
		{"resource bad quantity", entity.ProfileTypeResource, map[string]any{"limits": map[string]any{"cpu": "lots"}}, "config.limits[cpu]"},
		{"resource bad name", entity.ProfileTypeResource, map[string]any{"requests": map[string]any{"gpu": "1"}}, "config.requests[gpu]"},
		{"resource unknown field", entity.ProfileTypeResource, map[string]any{"limit": map[string]any{}}, "config.limit"},
		{"probe http ok", entity.ProfileTypeProbe, map[string]any{"handler": "http", "path": "/healthz", "port": 8080}, ""},
		{"probe http without path", entity.ProfileTypeProbe, map[string]any{"handler": "http", "port": 8080}, "config.path"},
		{"probe exec ok", entity.ProfileTypeProbe, map[string]any{"handler": "exec", "command": []any{"true"}}, ""},
		{"probe tcp without port", entity.ProfileTypeProbe, map[string]any{"handler": "tcp"}, "config.port"},
		{"probe bad handler", entity.ProfileTypeProbe, map[string]any{"handler": "grpc", "port": 1}, "config.handler"},
		{"probe wrong type", entity.ProfileTypeProbe, map[string]any{"handler": "tcp", "port": "eighty"}, "config.port"},
		{"env ok", entity.ProfileTypeEnv, map[string]any{"vars": []any{map[string]any{"name": "LOG_LEVEL", "value": "debug"}}}, ""},
		{"env bad name", entity.ProfileTypeEnv, map[string]any{"vars": []any{map[string]any{"name": "1BAD"}}}, "config.vars[0].name"},
		{"env empty", entity.ProfileTypeEnv, map[string]any{"vars": []any{}}, "config.vars"},
		{"scheduling ok", entity.ProfileTypeScheduling, map[string]any{"node_selector": map[string]any{"disktype": "ssd"}}, ""},
		{"scheduling bad effect", entity.ProfileTypeScheduling, map[string]any{"tolerations": []any{map[string]any{"key": "k", "effect": "Never"}}}, "config.tolerations[0].effect"},
		{"lifecycle ok", entity.ProfileTypeLifecycle, map[string]any{"pre_stop": []any{"sleep", "5"}}, ""},
		{"lifecycle negative grace", entity.ProfileTypeLifecycle, map[string]any{"termination_grace_period_seconds": -1}, "config.termination_grace_period_seconds"},
		{"metadata ok", entity.ProfileTypeMetadata, map[string]any{"labels": map[string]any{"app.kubernetes.io/name": "web"}}, ""},
		{"metadata bad label", entity.ProfileTypeMetadata, map[string]any{"labels": map[string]any{"bad key!": "x"}}, "config.labels[bad key!]"},
		{"missing config", entity.ProfileTypeMetadata, nil, "config"},
		{"unknown type", entity.ProfileType("volume"), map[string]any{}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.typ, tt.raw)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.typ, cfg.Type())
				return
			}
			var verr *entity.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestProbeConversion(t *testing.T) {
	cfg, err := Decode(entity.ProfileTypeProbe, map[string]any{"handler": "http", "path": "/ready", "port": 8080, "period_seconds": 5})
	require.NoError(t, err)
	probe := cfg.(*ProbeConfig).Probe()
	require.NotNil(t, probe.HTTPGet)
	assert.Equal(t, "/ready", probe.HTTPGet.Path)
	assert.Equal(t, int32(8080), probe.HTTPGet.Port.IntVal)
	assert.Equal(t, int32(5), probe.PeriodSeconds)
}

func TestResourceConversion(t *testing.T) {
	cfg, err := Decode(entity.ProfileTypeResource, map[string]any{"limits": map[string]any{"memory": "256Mi"}})
	require.NoError(t, err)
	req, err := cfg.(*ResourceConfig).ResourceRequirements()
	require.NoError(t, err)
	assert.Equal(t, "256Mi", req.Limits.Memory().String())
	assert.Nil(t, req.Requests)
}
