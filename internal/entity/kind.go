package entity

// Kind names one of the composable entity types.
type Kind string

const (
	KindProfile   Kind = "profile"
	KindContainer Kind = "container"
	KindPod       Kind = "pod"
	KindRelease   Kind = "release"

	KindReleaseRun Kind = "release_run"
)

// Ref points at a single entity.
type Ref struct {
	Kind Kind
	ID   ID
}

func (r Ref) String() string { return string(r.Kind) + "/" + r.ID.String() }

// Dependent is a non-hard-deleted referrer reported by the conflict guard.
type Dependent struct {
	Type     Kind          `json:"type"`
	Name     string        `json:"name"`
	ID       ID            `json:"id"`
	Deletion DeletionState `json:"deletion_state"`
}

// Meta is the bookkeeping shared by every composable entity.
type Meta struct {
	ID        ID            `json:"id"`
	Namespace string        `json:"namespace"`
	Name      string        `json:"name"`
	Deletion  DeletionState `json:"deletion_state"`
}

func (m *Meta) Ref(kind Kind) Ref { return Ref{Kind: kind, ID: m.ID} }

// GetMeta gives generic code access to the embedded Meta.
func (m *Meta) GetMeta() *Meta { return m }
