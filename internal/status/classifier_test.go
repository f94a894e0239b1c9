package status

import (
	"encoding/json"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func cond(condType, status string) map[string]any {
	return map[string]any{"type": condType, "status": status}
}

func conds(items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return map[string]any{"conditions": list}
}

func TestClassifyDeployment(t *testing.T) {
	tests := []struct {
		name   string
		status map[string]any
		want   LifecycleState
	}{
		{"failed beats available", conds(cond("Failed", "True"), cond("Available", "True")), Failed},
		{"available", conds(cond("Available", "True"), cond("Progressing", "True")), Running},
		{"ready", conds(cond("Ready", "True")), Running},
		{"progressing", conds(cond("Progressing", "True"), cond("Available", "False")), Pending},
		{"unavailable", conds(cond("Available", "False"), cond("Progressing", "False")), Failed},
		{"not ready", conds(cond("Ready", "False")), Failed},
		{"unrelated conditions", conds(cond("ReplicaFailure", "True")), Pending},
		{"failed false is ignored", conds(cond("Failed", "False"), cond("Available", "True")), Running},
		{"lowercase status", conds(cond("Available", "true")), Running},
		{"no conditions", map[string]any{"replicas": 3}, Unknown},
		{"empty conditions", map[string]any{"conditions": []any{}}, Unknown},
		{"nil status", nil, Unknown},
		{"conditions not a list", map[string]any{"conditions": "Available"}, Unknown},
		{"typed condition slice", map[string]any{"conditions": []map[string]any{cond("Available", "True")}}, Running},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("deployment", tt.status))
		})
	}
}

func TestClassifyStatefulSet(t *testing.T) {
	tests := []struct {
		name   string
		status map[string]any
		want   LifecycleState
	}{
		{"all ready", map[string]any{"replicas": 3, "readyReplicas": 3, "currentReplicas": 3}, Running},
		{"scaling", map[string]any{"replicas": 3, "readyReplicas": 1, "currentReplicas": 1}, Scaling},
		{"nothing ready", map[string]any{"replicas": 3}, Pending},
		{"ready but not current", map[string]any{"replicas": 3, "readyReplicas": 3, "currentReplicas": 2}, Pending},
		{"failed condition", func() map[string]any {
			s := conds(cond("Failed", "True"))
			s["replicas"], s["readyReplicas"], s["currentReplicas"] = 3, 3, 2
			return s
		}(), Failed},
		{"scaled to zero", map[string]any{"replicas": 0}, Running},
		{"float counters", map[string]any{"replicas": 2.0, "readyReplicas": 2.0, "currentReplicas": 2.0}, Running},
		{"string counters", map[string]any{"replicas": "2", "readyReplicas": "1"}, Scaling},
		{"empty", map[string]any{}, Pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("statefulset", tt.status))
		})
	}
}

func TestClassifyDaemonSet(t *testing.T) {
	assert.Equal(t, Pending, Classify("daemonset", map[string]any{"desiredNumberScheduled": 5, "numberReady": 0}))
	assert.Equal(t, Running, Classify("DaemonSet", map[string]any{"desiredNumberScheduled": 2, "numberReady": 2, "numberAvailable": 2}))
	assert.Equal(t, Scaling, Classify("daemonset", map[string]any{"desiredNumberScheduled": 4, "numberReady": 3, "numberAvailable": 3}))

	failed := conds(cond("Failed", "True"))
	failed["desiredNumberScheduled"], failed["numberReady"], failed["numberAvailable"] = 2, 2, 1
	assert.Equal(t, Failed, Classify("daemonset", failed))
}

func TestClassifyReplicaSet(t *testing.T) {
	assert.Equal(t, Pending, Classify("replicaset", map[string]any{}))
	assert.Equal(t, Running, Classify("replicaset", map[string]any{"replicas": 2, "readyReplicas": 2, "availableReplicas": 2}))
	assert.Equal(t, Scaling, Classify("replicaset", map[string]any{"replicas": 2, "readyReplicas": 1}))
	assert.Equal(t, Pending, Classify("replicaset", map[string]any{"replicas": 2}))

	// no failure path, even when a Failed condition is present
	failed := conds(cond("Failed", "True"))
	failed["replicas"], failed["readyReplicas"], failed["availableReplicas"] = 2, 2, 1
	assert.Equal(t, Pending, Classify("replicaset", failed))
}

func TestClassifyUnknownKind(t *testing.T) {
	for _, kind := range []string{"", "job", "pod", "cronjob", "deployments"} {
		assert.Equal(t, Unknown, Classify(kind, conds(cond("Available", "True"))), kind)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	payloads := []map[string]any{
		nil,
		{},
		{"conditions": nil},
		{"conditions": []any{"garbage", 42, nil}},
		{"conditions": []any{map[string]any{"type": 7, "status": []any{}}}},
		{"replicas": map[string]any{"nested": true}},
		{"replicas": -1, "readyReplicas": 5},
		{"replicas": "three"},
		{"desiredNumberScheduled": json.Number("4"), "numberReady": json.Number("x")},
	}
	kinds := []string{"deployment", "statefulset", "daemonset", "replicaset", "other", "DEPLOYMENT"}
	for _, kind := range kinds {
		for _, payload := range payloads {
			got := assert.NotPanics(t, func() { Classify(kind, payload) })
			if got {
				assert.True(t, lo.Contains(States, Classify(kind, payload)))
			}
		}
	}
}

func TestClassifyObject(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "StatefulSet",
		"status": map[string]any{
			"replicas":        int64(3),
			"readyReplicas":   int64(1),
			"currentReplicas": int64(1),
		},
	}}
	assert.Equal(t, Scaling, ClassifyObject(obj))
	assert.Equal(t, Unknown, ClassifyObject(nil))

	obj = &unstructured.Unstructured{Object: map[string]any{"kind": "Deployment"}}
	assert.Equal(t, Unknown, ClassifyObject(obj))
}
