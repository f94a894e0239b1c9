package profile

import (
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func (c *ResourceConfig) ResourceRequirements() (corev1.ResourceRequirements, error) {
	var res corev1.ResourceRequirements
	var err error
	if res.Requests, err = resourceList("config.requests", c.Requests); err != nil {
		return res, err
	}
	if res.Limits, err = resourceList("config.limits", c.Limits); err != nil {
		return res, err
	}
	return res, nil
}

func resourceList(field string, in map[string]string) (corev1.ResourceList, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(corev1.ResourceList, len(in))
	for name, value := range in {
		q, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, entity.Invalid(field+"."+name, "invalid quantity %q", value)
		}
		out[corev1.ResourceName(name)] = q
	}
	return out, nil
}

func (c *ProbeConfig) Probe() *corev1.Probe {
	p := &corev1.Probe{
		InitialDelaySeconds: c.InitialDelaySeconds,
		PeriodSeconds:       c.PeriodSeconds,
		TimeoutSeconds:      c.TimeoutSeconds,
		SuccessThreshold:    c.SuccessThreshold,
		FailureThreshold:    c.FailureThreshold,
	}
	switch c.Handler {
	case "http":
		p.HTTPGet = &corev1.HTTPGetAction{Path: c.Path, Port: intstr.FromInt32(c.Port)}
	case "tcp":
		p.TCPSocket = &corev1.TCPSocketAction{Port: intstr.FromInt32(c.Port)}
	case "exec":
		p.Exec = &corev1.ExecAction{Command: c.Command}
	}
	return p
}

func (c *EnvConfig) EnvVars() []corev1.EnvVar {
	return lo.Map(c.Vars, func(v EnvVar, _ int) corev1.EnvVar {
		return corev1.EnvVar{Name: v.Name, Value: v.Value}
	})
}

func (c *LifecycleConfig) Lifecycle() *corev1.Lifecycle {
	if len(c.PostStart) == 0 && len(c.PreStop) == 0 {
		return nil
	}
	l := &corev1.Lifecycle{}
	if len(c.PostStart) > 0 {
		l.PostStart = &corev1.LifecycleHandler{Exec: &corev1.ExecAction{Command: c.PostStart}}
	}
	if len(c.PreStop) > 0 {
		l.PreStop = &corev1.LifecycleHandler{Exec: &corev1.ExecAction{Command: c.PreStop}}
	}
	return l
}

// Tolerations converts entity tolerations into their Kubernetes form.
func Tolerations(in []entity.Toleration) []corev1.Toleration {
	if len(in) == 0 {
		return nil
	}
	return lo.Map(in, func(t entity.Toleration, _ int) corev1.Toleration {
		return corev1.Toleration{
			Key:               t.Key,
			Operator:          corev1.TolerationOperator(t.Operator),
			Value:             t.Value,
			Effect:            corev1.TaintEffect(t.Effect),
			TolerationSeconds: t.TolerationSeconds,
		}
	})
}
