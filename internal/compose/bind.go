package compose

import (
	"errors"

	"dario.cat/mergo"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
)

// Profiles holds already fetched profiles keyed by id.
type Profiles map[entity.ID]*entity.Profile

// CheckBindings verifies every entry of attr references a live or
// soft-deleted profile of the slot's type in namespace.
func CheckBindings(slots []Slot, namespace string, attr entity.DynamicAttr, profiles Profiles) error {
	for _, slot := range slots {
		id, ok := attr[slot.Key]
		if !ok {
			continue
		}
		if _, err := bound(slot, namespace, id, profiles); err != nil {
			return err
		}
	}
	return nil
}

func bound(slot Slot, namespace string, id entity.ID, profiles Profiles) (*entity.Profile, error) {
	field := "dynamic_attr." + slot.Key
	p, ok := profiles[id]
	if !ok || p == nil || p.Deletion.HardDeleted() {
		return nil, entity.Invalid(field, "profile %s does not exist", id)
	}
	if p.Namespace != namespace {
		return nil, entity.Invalid(field, "profile %s belongs to namespace %q", id, p.Namespace)
	}
	if p.Type != slot.Type {
		return nil, entity.Invalid(field, "profile %s has type %s, slot expects %s", id, p.Type, slot.Type)
	}
	return p, nil
}

// overlay merges the profile bound to slot over base. Only fields the profile
// sets replace the base values.
func overlay(slot Slot, base profile.Config, namespace string, id entity.ID, profiles Profiles) (profile.Config, error) {
	p, err := bound(slot, namespace, id, profiles)
	if err != nil {
		return nil, err
	}
	cfg, err := profile.Decode(p.Type, p.Config)
	if err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			verr.Field = "dynamic_attr." + slot.Key + "." + verr.Field
		}
		return nil, err
	}
	if err := mergo.Merge(base, cfg, mergo.WithOverride); err != nil {
		return nil, err
	}
	return base, nil
}
