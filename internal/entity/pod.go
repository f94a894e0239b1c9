package entity

import "time"

type Toleration struct {
	Key               string `json:"key,omitempty"`
	Operator          string `json:"operator,omitempty" validate:"omitempty,oneof=Exists Equal"`
	Value             string `json:"value,omitempty"`
	Effect            string `json:"effect,omitempty" validate:"omitempty,oneof=NoSchedule PreferNoSchedule NoExecute"`
	TolerationSeconds *int64 `json:"toleration_seconds,omitempty"`
}

type PodSpec struct {
	Meta
	Containers         []ID              `json:"containers"`
	DynamicAttr        DynamicAttr       `json:"dynamic_attr"`
	ServiceAccountName string            `json:"service_account_name"`
	HostNetwork        bool              `json:"host_network"`
	DNSPolicy          string            `json:"dns_policy"`
	Tolerations        []Toleration      `json:"tolerations"`
	NodeSelector       map[string]string `json:"node_selector"`
	ImagePullSecrets   []string          `json:"image_pull_secrets"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
