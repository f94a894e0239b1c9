package entity

import "time"

// DynamicAttr maps a slot name declared by the template to a Profile id.
type DynamicAttr map[string]ID

type ContainerSpec struct {
	Meta
	ImagePullPolicy string      `json:"image_pull_policy"`
	Command         []string    `json:"command"`
	Args            []string    `json:"args"`
	WorkingDir      string      `json:"working_dir"`
	DynamicAttr     DynamicAttr `json:"dynamic_attr"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
