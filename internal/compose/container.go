package compose

import (
	"fmt"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
	corev1 "k8s.io/api/core/v1"
)

// ResolvedContainer is a container template with all of its profiles merged
// in.
type ResolvedContainer struct {
	ID        entity.ID        `json:"id"`
	Namespace string           `json:"namespace"`
	Name      string           `json:"name"`
	Container corev1.Container `json:"container"`
	// TerminationGracePeriodSeconds comes from a lifecycle profile and is
	// lifted to the pod.
	TerminationGracePeriodSeconds *int64 `json:"termination_grace_period_seconds,omitempty"`
}

// ResolveContainer merges the profiles referenced by spec into a container
// definition. It reads only spec and profiles and has no side effects.
func ResolveContainer(spec *entity.ContainerSpec, profiles Profiles) (*ResolvedContainer, error) {
	res := &ResolvedContainer{
		ID:        spec.ID,
		Namespace: spec.Namespace,
		Name:      spec.Name,
		Container: corev1.Container{
			Name:            spec.Name,
			ImagePullPolicy: corev1.PullPolicy(spec.ImagePullPolicy),
			Command:         append([]string(nil), spec.Command...),
			Args:            append([]string(nil), spec.Args...),
			WorkingDir:      spec.WorkingDir,
		},
	}
	for _, slot := range ContainerSlots {
		id, ok := spec.DynamicAttr[slot.Key]
		if !ok {
			continue
		}
		cfg, err := overlay(slot, slot.Default(), spec.Namespace, id, profiles)
		if err != nil {
			return nil, err
		}
		if err := res.apply(slot, cfg); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *ResolvedContainer) apply(slot Slot, cfg profile.Config) error {
	c := &r.Container
	switch cfg := cfg.(type) {
	case *profile.ResourceConfig:
		req, err := cfg.ResourceRequirements()
		if err != nil {
			return err
		}
		c.Resources = req
	case *profile.ProbeConfig:
		switch slot.Key {
		case SlotLivenessProbe:
			c.LivenessProbe = cfg.Probe()
		case SlotReadinessProbe:
			c.ReadinessProbe = cfg.Probe()
		case SlotStartupProbe:
			c.StartupProbe = cfg.Probe()
		}
	case *profile.EnvConfig:
		c.Env = cfg.EnvVars()
	case *profile.LifecycleConfig:
		c.Lifecycle = cfg.Lifecycle()
		r.TerminationGracePeriodSeconds = cfg.TerminationGracePeriodSeconds
	default:
		return fmt.Errorf("slot %s: unsupported container profile type %s", slot.Key, cfg.Type())
	}
	return nil
}
