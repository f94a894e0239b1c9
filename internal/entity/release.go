package entity

import "time"

type ReleaseKind string

const (
	ReleaseKindDeployment  ReleaseKind = "Deployment"
	ReleaseKindStatefulSet ReleaseKind = "StatefulSet"
	ReleaseKindReplicaSet  ReleaseKind = "ReplicaSet"
)

func (k ReleaseKind) Valid() bool {
	switch k {
	case ReleaseKindDeployment, ReleaseKindStatefulSet, ReleaseKindReplicaSet:
		return true
	}
	return false
}

type ReleaseStatus string

const (
	ReleaseStatusActive   ReleaseStatus = "active"
	ReleaseStatusInactive ReleaseStatus = "inactive"
)

func (s ReleaseStatus) Valid() bool {
	return s == ReleaseStatusActive || s == ReleaseStatusInactive
}

// ReleaseConfig binds a derived pod to deployment metadata. Meta.Name is the
// deployment name and is unique per namespace among non-hard-deleted records.
type ReleaseConfig struct {
	Meta
	Type                  string        `json:"type"`
	Tag                   string        `json:"tag"`
	Kind                  ReleaseKind   `json:"kind"`
	Replicas              int32         `json:"replicas"`
	RequiredSourceControl bool          `json:"required_source_control"`
	CodeSourceControlName string        `json:"code_source_control_name,omitempty"`
	SourceControlBranch   string        `json:"source_control_branch,omitempty"`
	DerivedDeploymentID   ID            `json:"derived_deployment_id"`
	Status                ReleaseStatus `json:"status"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// DeploymentName is the name the release is deployed under.
func (r *ReleaseConfig) DeploymentName() string { return r.Name }
