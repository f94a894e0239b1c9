package repository

import (
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"gorm.io/gorm"
)

// Meta holds the columns shared by every composable entity.
type Meta struct {
	Namespace string `gorm:"index"`
	Name      string `gorm:"index"`
	Deletion  string `gorm:"index"`
}

func (m *Meta) toEntity(id uint) entity.Meta {
	return entity.Meta{
		ID:        entity.NewID(id),
		Namespace: m.Namespace,
		Name:      m.Name,
		Deletion:  entity.DeletionState(m.Deletion),
	}
}

func (m *Meta) fromEntity(e *entity.Meta) {
	m.Namespace = e.Namespace
	m.Name = e.Name
	m.Deletion = string(e.Deletion)
	if m.Deletion == "" {
		m.Deletion = string(entity.DeletionLive)
	}
}

func (m *Meta) deletionColumn() *string { return &m.Deletion }

// idOf maps id to its primary key. Empty and malformed ids map to 0, which
// no row carries, so lookups by them report not found.
func idOf(id entity.ID) uint {
	n, err := id.Uint()
	if err != nil {
		return 0
	}
	return n
}

type Profile struct {
	gorm.Model
	Meta
	Type   string         `gorm:"index"`
	Config map[string]any `gorm:"serializer:json"`
}

func (p *Profile) ToEntity() *entity.Profile {
	return &entity.Profile{
		Meta:      p.Meta.toEntity(p.ID),
		Type:      entity.ProfileType(p.Type),
		Config:    p.Config,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (p *Profile) FromEntity(e *entity.Profile) {
	p.ID = idOf(e.ID)
	p.Meta.fromEntity(&e.Meta)
	p.Type = string(e.Type)
	p.Config = e.Config
}

type Container struct {
	gorm.Model
	Meta
	ImagePullPolicy string
	Command         []string `gorm:"serializer:json"`
	Args            []string `gorm:"serializer:json"`
	WorkingDir      string
	DynamicAttr     entity.DynamicAttr `gorm:"serializer:json"`
}

func (c *Container) ToEntity() *entity.ContainerSpec {
	return &entity.ContainerSpec{
		Meta:            c.Meta.toEntity(c.ID),
		ImagePullPolicy: c.ImagePullPolicy,
		Command:         c.Command,
		Args:            c.Args,
		WorkingDir:      c.WorkingDir,
		DynamicAttr:     c.DynamicAttr,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (c *Container) FromEntity(e *entity.ContainerSpec) {
	c.ID = idOf(e.ID)
	c.Meta.fromEntity(&e.Meta)
	c.ImagePullPolicy = e.ImagePullPolicy
	c.Command = e.Command
	c.Args = e.Args
	c.WorkingDir = e.WorkingDir
	c.DynamicAttr = e.DynamicAttr
}

type Pod struct {
	gorm.Model
	Meta
	Containers         []entity.ID        `gorm:"serializer:json"`
	DynamicAttr        entity.DynamicAttr `gorm:"serializer:json"`
	ServiceAccountName string
	HostNetwork        bool
	DNSPolicy          string
	Tolerations        []entity.Toleration `gorm:"serializer:json"`
	NodeSelector       map[string]string   `gorm:"serializer:json"`
	ImagePullSecrets   []string            `gorm:"serializer:json"`
}

func (p *Pod) ToEntity() *entity.PodSpec {
	return &entity.PodSpec{
		Meta:               p.Meta.toEntity(p.ID),
		Containers:         p.Containers,
		DynamicAttr:        p.DynamicAttr,
		ServiceAccountName: p.ServiceAccountName,
		HostNetwork:        p.HostNetwork,
		DNSPolicy:          p.DNSPolicy,
		Tolerations:        p.Tolerations,
		NodeSelector:       p.NodeSelector,
		ImagePullSecrets:   p.ImagePullSecrets,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func (p *Pod) FromEntity(e *entity.PodSpec) {
	p.ID = idOf(e.ID)
	p.Meta.fromEntity(&e.Meta)
	p.Containers = e.Containers
	p.DynamicAttr = e.DynamicAttr
	p.ServiceAccountName = e.ServiceAccountName
	p.HostNetwork = e.HostNetwork
	p.DNSPolicy = e.DNSPolicy
	p.Tolerations = e.Tolerations
	p.NodeSelector = e.NodeSelector
	p.ImagePullSecrets = e.ImagePullSecrets
}

type Release struct {
	gorm.Model
	Meta
	Type                  string
	Tag                   string
	Kind                  string
	Replicas              int32
	RequiredSourceControl bool
	CodeSourceControlName string `gorm:"index"`
	SourceControlBranch   string
	DerivedDeploymentID   uint `gorm:"index"`
	Status                string
}

func (r *Release) ToEntity() *entity.ReleaseConfig {
	return &entity.ReleaseConfig{
		Meta:                  r.Meta.toEntity(r.ID),
		Type:                  r.Type,
		Tag:                   r.Tag,
		Kind:                  entity.ReleaseKind(r.Kind),
		Replicas:              r.Replicas,
		RequiredSourceControl: r.RequiredSourceControl,
		CodeSourceControlName: r.CodeSourceControlName,
		SourceControlBranch:   r.SourceControlBranch,
		DerivedDeploymentID:   entity.NewID(r.DerivedDeploymentID),
		Status:                entity.ReleaseStatus(r.Status),
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (r *Release) FromEntity(e *entity.ReleaseConfig) {
	r.ID = idOf(e.ID)
	r.Meta.fromEntity(&e.Meta)
	r.Type = e.Type
	r.Tag = e.Tag
	r.Kind = string(e.Kind)
	r.Replicas = e.Replicas
	r.RequiredSourceControl = e.RequiredSourceControl
	r.CodeSourceControlName = e.CodeSourceControlName
	r.SourceControlBranch = e.SourceControlBranch
	r.DerivedDeploymentID = idOf(e.DerivedDeploymentID)
	r.Status = string(e.Status)
}

type ReleaseRun struct {
	gorm.Model
	ReleaseID uint `gorm:"index"`
	Release   Release
	ImageName string
	PRURL     string
	Jira      string
	Status    string
}

func (r *ReleaseRun) ToEntity() *entity.ReleaseRun {
	return &entity.ReleaseRun{
		ID:              entity.NewID(r.ID),
		ReleaseConfigID: entity.NewID(r.ReleaseID),
		ImageName:       r.ImageName,
		PRURL:           r.PRURL,
		Jira:            r.Jira,
		Status:          entity.RunStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *ReleaseRun) FromEntity(e *entity.ReleaseRun) {
	r.ID = idOf(e.ID)
	r.ReleaseID = idOf(e.ReleaseConfigID)
	r.ImageName = e.ImageName
	r.PRURL = e.PRURL
	r.Jira = e.Jira
	r.Status = string(e.Status)
}

// Reference is one edge of the reverse-reference index: the entity From*
// refers to the entity To*. FromName and FromDeletion mirror the referrer so
// dependents can be listed without touching the referrer's table.
type Reference struct {
	ID           uint   `gorm:"primaryKey"`
	FromKind     string `gorm:"index:idx_reference_from"`
	FromID       uint   `gorm:"index:idx_reference_from"`
	FromName     string
	FromDeletion string
	ToKind       string `gorm:"index:idx_reference_to"`
	ToID         uint   `gorm:"index:idx_reference_to"`
}
