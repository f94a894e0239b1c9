package compose

import (
	"github.com/iancoleman/strcase"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
)

// Slot is a typed placeholder a template exposes to profiles.
type Slot struct {
	Key     string
	Type    entity.ProfileType
	Default func() profile.Config
}

const (
	SlotResources      = "resources"
	SlotLivenessProbe  = "liveness_probe"
	SlotReadinessProbe = "readiness_probe"
	SlotStartupProbe   = "startup_probe"
	SlotEnv            = "env"
	SlotLifecycle      = "lifecycle"
	SlotScheduling     = "scheduling"
	SlotMetadata       = "metadata"
)

func defaultProbe() profile.Config {
	return &profile.ProbeConfig{PeriodSeconds: 10, TimeoutSeconds: 1, SuccessThreshold: 1, FailureThreshold: 3}
}

// ContainerSlots are resolved in this order.
var ContainerSlots = []Slot{
	{Key: SlotResources, Type: entity.ProfileTypeResource, Default: func() profile.Config { return &profile.ResourceConfig{} }},
	{Key: SlotLivenessProbe, Type: entity.ProfileTypeProbe, Default: defaultProbe},
	{Key: SlotReadinessProbe, Type: entity.ProfileTypeProbe, Default: defaultProbe},
	{Key: SlotStartupProbe, Type: entity.ProfileTypeProbe, Default: defaultProbe},
	{Key: SlotEnv, Type: entity.ProfileTypeEnv, Default: func() profile.Config { return &profile.EnvConfig{} }},
	{Key: SlotLifecycle, Type: entity.ProfileTypeLifecycle, Default: func() profile.Config { return &profile.LifecycleConfig{} }},
}

// PodSlots are resolved in this order. The scheduling default is built from
// the pod's inline fields at resolve time.
var PodSlots = []Slot{
	{Key: SlotScheduling, Type: entity.ProfileTypeScheduling, Default: func() profile.Config { return &profile.SchedulingConfig{} }},
	{Key: SlotMetadata, Type: entity.ProfileTypeMetadata, Default: func() profile.Config { return &profile.MetadataConfig{} }},
}

// NormalizeKey folds client supplied slot names ("readinessProbe",
// "Readiness-Probe") to their canonical snake_case form.
func NormalizeKey(key string) string {
	return strcase.ToSnake(key)
}

func findSlot(slots []Slot, key string) (Slot, bool) {
	for _, s := range slots {
		if s.Key == key {
			return s, true
		}
	}
	return Slot{}, false
}

// NormalizeAttr canonicalizes the keys of attr and rejects keys that are not
// declared slots. The returned map is a copy.
func NormalizeAttr(slots []Slot, attr entity.DynamicAttr) (entity.DynamicAttr, error) {
	out := make(entity.DynamicAttr, len(attr))
	for key, id := range attr {
		norm := NormalizeKey(key)
		if _, ok := findSlot(slots, norm); !ok {
			return nil, entity.Invalid("dynamic_attr."+key, "unknown slot")
		}
		if _, dup := out[norm]; dup {
			return nil, entity.Invalid("dynamic_attr."+key, "slot %q given more than once", norm)
		}
		if id.IsZero() {
			return nil, entity.Invalid("dynamic_attr."+norm, "profile id is required")
		}
		if err := id.Validate("dynamic_attr." + norm); err != nil {
			return nil, err
		}
		out[norm] = id
	}
	return out, nil
}
