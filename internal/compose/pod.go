package compose

import (
	"fmt"
	"maps"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/py-react/cloud-ops-sub002/internal/profile"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	DefaultServiceAccountName = "default"
	DefaultDNSPolicy          = string(corev1.DNSClusterFirst)
)

// PodDefaults fills pod-level fields a pod leaves empty.
type PodDefaults struct {
	ServiceAccountName string
	DNSPolicy          string
}

func (d PodDefaults) withFallbacks() PodDefaults {
	if d.ServiceAccountName == "" {
		d.ServiceAccountName = DefaultServiceAccountName
	}
	if d.DNSPolicy == "" {
		d.DNSPolicy = DefaultDNSPolicy
	}
	return d
}

type ResolvedPod struct {
	ID        entity.ID         `json:"id"`
	Namespace string            `json:"namespace"`
	Name      string            `json:"name"`
	Metadata  metav1.ObjectMeta `json:"metadata"`
	Spec      corev1.PodSpec    `json:"spec"`
}

// ResolvePod assembles a pod from its already resolved containers, given in
// the order the pod declares them, and its pod-level profiles.
func ResolvePod(pod *entity.PodSpec, containers []*ResolvedContainer, profiles Profiles, defaults PodDefaults) (*ResolvedPod, error) {
	if len(pod.Containers) == 0 {
		return nil, entity.Invalid("containers", "at least one container is required")
	}
	if len(containers) != len(pod.Containers) {
		return nil, fmt.Errorf("pod %s: expected %d resolved containers, got %d", pod.ID, len(pod.Containers), len(containers))
	}
	defaults = defaults.withFallbacks()

	res := &ResolvedPod{
		ID:        pod.ID,
		Namespace: pod.Namespace,
		Name:      pod.Name,
		Spec: corev1.PodSpec{
			ServiceAccountName: pod.ServiceAccountName,
			HostNetwork:        pod.HostNetwork,
			DNSPolicy:          corev1.DNSPolicy(pod.DNSPolicy),
		},
	}
	for i, c := range containers {
		if c.ID != pod.Containers[i] {
			return nil, fmt.Errorf("pod %s: container %d is %s, expected %s", pod.ID, i, c.ID, pod.Containers[i])
		}
		res.Spec.Containers = append(res.Spec.Containers, *c.Container.DeepCopy())
		if g := c.TerminationGracePeriodSeconds; g != nil {
			if cur := res.Spec.TerminationGracePeriodSeconds; cur == nil || *g > *cur {
				res.Spec.TerminationGracePeriodSeconds = g
			}
		}
	}
	for _, name := range pod.ImagePullSecrets {
		res.Spec.ImagePullSecrets = append(res.Spec.ImagePullSecrets, corev1.LocalObjectReference{Name: name})
	}
	if res.Spec.ServiceAccountName == "" {
		res.Spec.ServiceAccountName = defaults.ServiceAccountName
	}
	if res.Spec.DNSPolicy == "" {
		res.Spec.DNSPolicy = corev1.DNSPolicy(defaults.DNSPolicy)
	}

	sched := &profile.SchedulingConfig{
		NodeSelector: maps.Clone(pod.NodeSelector),
		Tolerations:  append([]entity.Toleration(nil), pod.Tolerations...),
	}
	meta := &profile.MetadataConfig{}
	for _, slot := range PodSlots {
		id, ok := pod.DynamicAttr[slot.Key]
		if !ok {
			continue
		}
		var base profile.Config
		switch slot.Key {
		case SlotScheduling:
			base = sched
		case SlotMetadata:
			base = meta
		default:
			base = slot.Default()
		}
		if _, err := overlay(slot, base, pod.Namespace, id, profiles); err != nil {
			return nil, err
		}
	}

	res.Spec.NodeSelector = sched.NodeSelector
	res.Spec.Tolerations = profile.Tolerations(sched.Tolerations)
	res.Spec.PriorityClassName = sched.PriorityClassName
	res.Metadata.Labels = meta.Labels
	res.Metadata.Annotations = meta.Annotations
	return res, nil
}
