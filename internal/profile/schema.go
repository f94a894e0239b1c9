package profile

import (
	"github.com/py-react/cloud-ops-sub002/internal/entity"
)

// Config is the typed, validated form of a profile document.
type Config interface {
	Type() entity.ProfileType
}

type ResourceConfig struct {
	Requests map[string]string `json:"requests,omitempty" validate:"omitempty,dive,keys,oneof=cpu memory ephemeral-storage,endkeys,quantity"`
	Limits   map[string]string `json:"limits,omitempty" validate:"omitempty,dive,keys,oneof=cpu memory ephemeral-storage,endkeys,quantity"`
}

type ProbeConfig struct {
	Handler             string   `json:"handler" validate:"required,oneof=http tcp exec"`
	Path                string   `json:"path,omitempty" validate:"required_if=Handler http"`
	Port                int32    `json:"port,omitempty" validate:"required_unless=Handler exec,gte=0,lte=65535"`
	Command             []string `json:"command,omitempty" validate:"required_if=Handler exec"`
	InitialDelaySeconds int32    `json:"initial_delay_seconds,omitempty" validate:"gte=0"`
	PeriodSeconds       int32    `json:"period_seconds,omitempty" validate:"gte=0"`
	TimeoutSeconds      int32    `json:"timeout_seconds,omitempty" validate:"gte=0"`
	SuccessThreshold    int32    `json:"success_threshold,omitempty" validate:"gte=0"`
	FailureThreshold    int32    `json:"failure_threshold,omitempty" validate:"gte=0"`
}

type SchedulingConfig struct {
	NodeSelector      map[string]string   `json:"node_selector,omitempty" validate:"omitempty,dive,keys,labelkey,endkeys,labelvalue"`
	Tolerations       []entity.Toleration `json:"tolerations,omitempty" validate:"omitempty,dive"`
	PriorityClassName string              `json:"priority_class_name,omitempty"`
}

type EnvVar struct {
	Name  string `json:"name" validate:"required,envname"`
	Value string `json:"value"`
}

type EnvConfig struct {
	Vars []EnvVar `json:"vars" validate:"required,min=1,dive"`
}

type LifecycleConfig struct {
	PostStart                     []string `json:"post_start,omitempty"`
	PreStop                       []string `json:"pre_stop,omitempty"`
	TerminationGracePeriodSeconds *int64   `json:"termination_grace_period_seconds,omitempty" validate:"omitempty,gte=0"`
}

type MetadataConfig struct {
	Labels      map[string]string `json:"labels,omitempty" validate:"omitempty,dive,keys,labelkey,endkeys,labelvalue"`
	Annotations map[string]string `json:"annotations,omitempty" validate:"omitempty,dive,keys,labelkey,endkeys"`
}

func (*ResourceConfig) Type() entity.ProfileType   { return entity.ProfileTypeResource }
func (*ProbeConfig) Type() entity.ProfileType      { return entity.ProfileTypeProbe }
func (*SchedulingConfig) Type() entity.ProfileType { return entity.ProfileTypeScheduling }
func (*EnvConfig) Type() entity.ProfileType        { return entity.ProfileTypeEnv }
func (*LifecycleConfig) Type() entity.ProfileType  { return entity.ProfileTypeLifecycle }
func (*MetadataConfig) Type() entity.ProfileType   { return entity.ProfileTypeMetadata }

// New returns an empty config of the given type.
func New(t entity.ProfileType) (Config, bool) {
	switch t {
	case entity.ProfileTypeResource:
		return &ResourceConfig{}, true
	case entity.ProfileTypeProbe:
		return &ProbeConfig{}, true
	case entity.ProfileTypeScheduling:
		return &SchedulingConfig{}, true
	case entity.ProfileTypeEnv:
		return &EnvConfig{}, true
	case entity.ProfileTypeLifecycle:
		return &LifecycleConfig{}, true
	case entity.ProfileTypeMetadata:
		return &MetadataConfig{}, true
	}
	return nil, false
}
