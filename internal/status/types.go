package status

import "strings"

type LifecycleState string

const (
	Running LifecycleState = "Running"
	Scaling LifecycleState = "Scaling"
	Pending LifecycleState = "Pending"
	Failed  LifecycleState = "Failed"
	Unknown LifecycleState = "Unknown"
)

var States = []LifecycleState{Running, Scaling, Pending, Failed, Unknown}

type Kind string

const (
	KindDeployment  Kind = "deployment"
	KindStatefulSet Kind = "statefulset"
	KindDaemonSet   Kind = "daemonset"
	KindReplicaSet  Kind = "replicaset"
)

// ParseKind folds kind to its canonical form. The second result is false for
// kinds without a normalizer.
func ParseKind(kind string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case KindDeployment, KindStatefulSet, KindDaemonSet, KindReplicaSet:
		return k, true
	}
	return k, false
}

const (
	conditionProgressing = "Progressing"
	conditionAvailable   = "Available"
	conditionReady       = "Ready"
	conditionFailed      = "Failed"
)
