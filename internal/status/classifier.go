package status

import (
	"strings"

	"github.com/spf13/cast"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Classify maps the status document of a workload of the given kind to a
// lifecycle state.
func Classify(kind string, status map[string]any) LifecycleState {
	k, ok := ParseKind(kind)
	if !ok {
		return Unknown
	}
	switch k {
	case KindDeployment:
		return classifyConditions(readConditions(status))
	case KindStatefulSet:
		return classifyReplicas(
			desiredCount(status, "replicas"),
			counter(status, "readyReplicas"),
			counter(status, "currentReplicas"),
			readConditions(status),
		)
	case KindDaemonSet:
		return classifyReplicas(
			desiredCount(status, "desiredNumberScheduled"),
			counter(status, "numberReady"),
			counter(status, "numberAvailable"),
			readConditions(status),
		)
	case KindReplicaSet:
		// ReplicaSets carry no failure condition; never report Failed.
		return classifyReplicas(
			desiredCount(status, "replicas"),
			counter(status, "readyReplicas"),
			counter(status, "availableReplicas"),
			nil,
		)
	}
	return Unknown
}

// ClassifyObject classifies a whole object using its kind and status stanza.
func ClassifyObject(object *unstructured.Unstructured) LifecycleState {
	if object == nil {
		return Unknown
	}
	raw, found, err := unstructured.NestedFieldNoCopy(object.Object, "status")
	if err != nil || !found {
		return Classify(object.GetKind(), nil)
	}
	status, _ := raw.(map[string]any)
	return Classify(object.GetKind(), status)
}

func classifyConditions(conds conditions) LifecycleState {
	if len(conds) == 0 {
		return Unknown
	}
	switch {
	case conds.is(conditionFailed, "True"):
		return Failed
	case conds.is(conditionAvailable, "True") || conds.is(conditionReady, "True"):
		return Running
	case conds.is(conditionProgressing, "True"):
		return Pending
	case conds.is(conditionAvailable, "False") || conds.is(conditionReady, "False"):
		return Failed
	}
	return Pending
}

// classifyReplicas compares the desired replica count with the ready count and
// a second settled counter (current or available, depending on the kind).
// A document that does not report the desired count is never Running.
// conds may be nil for kinds without a failure path.
func classifyReplicas(desired replicaCount, ready, settled int64, conds conditions) LifecycleState {
	switch {
	case desired.reported && ready == desired.n && settled == desired.n:
		return Running
	case ready > 0 && ready < desired.n:
		return Scaling
	case ready == 0 && desired.n > 0:
		return Pending
	case conds.is(conditionFailed, "True"):
		return Failed
	}
	return Pending
}

// conditions maps a condition type to its status.
type conditions map[string]string

func (c conditions) is(condType, status string) bool {
	v, ok := c[condType]
	return ok && strings.EqualFold(v, status)
}

func readConditions(status map[string]any) conditions {
	if status == nil {
		return nil
	}
	raw, found, err := unstructured.NestedFieldNoCopy(status, "conditions")
	if err != nil || !found {
		return nil
	}
	var items []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case []map[string]any:
		items = v
	default:
		return nil
	}
	res := make(conditions, len(items))
	for _, item := range items {
		condType, err := cast.ToStringE(item["type"])
		if err != nil || condType == "" {
			continue
		}
		condStatus, err := cast.ToStringE(item["status"])
		if err != nil {
			continue
		}
		// bools stringify as "true"/"false"; comparisons are case-insensitive
		res[condType] = condStatus
	}
	return res
}

type replicaCount struct {
	n        int64
	reported bool
}

func desiredCount(status map[string]any, field string) replicaCount {
	n, ok := readInt(status, field)
	return replicaCount{n: n, reported: ok}
}

// counter reads an integer field. Missing or malformed values count as zero.
func counter(status map[string]any, field string) int64 {
	n, _ := readInt(status, field)
	return n
}

func readInt(status map[string]any, field string) (int64, bool) {
	if status == nil {
		return 0, false
	}
	raw, found, err := unstructured.NestedFieldNoCopy(status, field)
	if err != nil || !found || raw == nil {
		return 0, false
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
