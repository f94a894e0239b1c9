package entity

import "fmt"

type DeletionState string

const (
	DeletionLive        DeletionState = "live"
	DeletionSoftDeleted DeletionState = "soft_deleted"
	DeletionHardDeleted DeletionState = "hard_deleted"
)

func (s DeletionState) Valid() bool {
	switch s {
	case DeletionLive, DeletionSoftDeleted, DeletionHardDeleted:
		return true
	}
	return false
}

// SoftDeleted reports the legacy soft_delete flag: true for soft- and
// hard-deleted records alike.
func (s DeletionState) SoftDeleted() bool {
	return s == DeletionSoftDeleted || s == DeletionHardDeleted
}

func (s DeletionState) HardDeleted() bool { return s == DeletionHardDeleted }

// NextDelete returns the state a delete request moves s to. A soft-deleted
// record only becomes hard-deleted when the caller confirms.
func (s DeletionState) NextDelete(confirm bool) (DeletionState, error) {
	switch s {
	case DeletionLive, "":
		return DeletionSoftDeleted, nil
	case DeletionSoftDeleted:
		if !confirm {
			return s, Invalid("confirm", "record is already soft-deleted; confirm to delete it permanently")
		}
		return DeletionHardDeleted, nil
	}
	return s, fmt.Errorf("%w: record is permanently deleted", ErrNotFound)
}

// Restore returns the state after a restore request.
func (s DeletionState) Restore() (DeletionState, error) {
	switch s {
	case DeletionSoftDeleted:
		return DeletionLive, nil
	case DeletionLive, "":
		return s, Invalid("deletion_state", "record is not deleted")
	}
	return s, fmt.Errorf("%w: record is permanently deleted", ErrNotFound)
}
