package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8svalidation "k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

const (
	LabelName      = "app.kubernetes.io/name"
	LabelManagedBy = "app.kubernetes.io/managed-by"
	LabelRelease   = "cloudops.io/release"

	AnnotationReleaseType = "cloudops.io/release-type"
	AnnotationTag         = "cloudops.io/tag"

	managedBy = "cloudops"
)

// Manifest is the rendered workload object of a release.
type Manifest struct {
	Object runtime.Object `json:"object"`
	YAML   string         `json:"yaml"`
}

// ImageFor returns the image a release deploys when no explicit image is
// given.
func ImageFor(rel *entity.ReleaseConfig) string {
	tag := rel.Tag
	if tag == "" {
		tag = "latest"
	}
	return rel.DeploymentName() + ":" + tag
}

// labelValue fits s into a label value. Longer values keep a prefix and
// end in a short hash of the full value.
func labelValue(s string) string {
	if len(s) <= k8svalidation.LabelValueMaxLength {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	suffix := hex.EncodeToString(sum[:])[:8]
	return s[:k8svalidation.LabelValueMaxLength-len(suffix)-1] + "-" + suffix
}

// RenderManifest builds the apps/v1 workload for rel around the resolved pod.
// Every container runs image, or ImageFor(rel) when image is empty.
func RenderManifest(rel *entity.ReleaseConfig, pod *ResolvedPod, image string) (*Manifest, error) {
	if image == "" {
		image = ImageFor(rel)
	}
	selector := map[string]string{
		LabelName:    labelValue(rel.DeploymentName()),
		LabelRelease: rel.ID.String(),
	}
	labels := maps.Clone(selector)
	labels[LabelManagedBy] = managedBy

	template := corev1.PodTemplateSpec{
		ObjectMeta: *pod.Metadata.DeepCopy(),
		Spec:       *pod.Spec.DeepCopy(),
	}
	if template.Labels == nil {
		template.Labels = map[string]string{}
	}
	maps.Copy(template.Labels, labels)
	for i := range template.Spec.Containers {
		template.Spec.Containers[i].Image = image
	}

	meta := metav1.ObjectMeta{
		Name:      rel.DeploymentName(),
		Namespace: rel.Namespace,
		Labels:    labels,
		Annotations: map[string]string{
			AnnotationReleaseType: rel.Type,
			AnnotationTag:         rel.Tag,
		},
	}
	replicas := rel.Replicas
	sel := &metav1.LabelSelector{MatchLabels: selector}

	var obj runtime.Object
	switch rel.Kind {
	case entity.ReleaseKindDeployment:
		obj = &appsv1.Deployment{
			TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
			ObjectMeta: meta,
			Spec:       appsv1.DeploymentSpec{Replicas: &replicas, Selector: sel, Template: template},
		}
	case entity.ReleaseKindStatefulSet:
		obj = &appsv1.StatefulSet{
			TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "StatefulSet"},
			ObjectMeta: meta,
			Spec:       appsv1.StatefulSetSpec{Replicas: &replicas, Selector: sel, Template: template, ServiceName: rel.DeploymentName()},
		}
	case entity.ReleaseKindReplicaSet:
		obj = &appsv1.ReplicaSet{
			TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "ReplicaSet"},
			ObjectMeta: meta,
			Spec:       appsv1.ReplicaSetSpec{Replicas: &replicas, Selector: sel, Template: template},
		}
	default:
		return nil, entity.Invalid("kind", "unsupported release kind %q", rel.Kind)
	}

	b, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return &Manifest{Object: obj, YAML: string(b)}, nil
}

// PodTemplate extracts the pod template from a rendered manifest.
func (m *Manifest) PodTemplate() *corev1.PodTemplateSpec {
	switch obj := m.Object.(type) {
	case *appsv1.Deployment:
		return &obj.Spec.Template
	case *appsv1.StatefulSet:
		return &obj.Spec.Template
	case *appsv1.ReplicaSet:
		return &obj.Spec.Template
	}
	return nil
}
