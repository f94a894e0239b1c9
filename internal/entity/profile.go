package entity

import "time"

type ProfileType string

const (
	ProfileTypeResource   ProfileType = "resource"
	ProfileTypeProbe      ProfileType = "probe"
	ProfileTypeScheduling ProfileType = "scheduling"
	ProfileTypeEnv        ProfileType = "env"
	ProfileTypeLifecycle  ProfileType = "lifecycle"
	ProfileTypeMetadata   ProfileType = "metadata"
)

var ProfileTypes = []ProfileType{
	ProfileTypeResource,
	ProfileTypeProbe,
	ProfileTypeScheduling,
	ProfileTypeEnv,
	ProfileTypeLifecycle,
	ProfileTypeMetadata,
}

func (t ProfileType) Valid() bool {
	for _, v := range ProfileTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Profile is a reusable, typed bundle of configuration. Its type never
// changes after creation.
type Profile struct {
	Meta
	Type      ProfileType    `json:"type"`
	Config    map[string]any `json:"config"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
