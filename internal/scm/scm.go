// Package scm answers which source repositories and branches a release may
// build from.
package scm

import (
	"context"
	"maps"
	"slices"

	"github.com/py-react/cloud-ops-sub002/internal/entity"
)

type SourceControl interface {
	// AllowedBranches maps every known repository to the branches releases
	// may be bound to.
	AllowedBranches(ctx context.Context) (map[string][]string, error)
	// Branches lists the branches of one repository.
	Branches(ctx context.Context, repo string) ([]string, error)
}

type staticSourceControl struct {
	allowed map[string][]string
}

// NewStatic serves a fixed repository to branches mapping.
func NewStatic(allowed map[string][]string) SourceControl {
	cp := make(map[string][]string, len(allowed))
	for repo, branches := range allowed {
		cp[repo] = slices.Clone(branches)
	}
	return &staticSourceControl{allowed: cp}
}

func (s *staticSourceControl) AllowedBranches(ctx context.Context) (map[string][]string, error) {
	out := maps.Clone(s.allowed)
	for repo, branches := range out {
		out[repo] = slices.Clone(branches)
	}
	return out, nil
}

func (s *staticSourceControl) Branches(ctx context.Context, repo string) ([]string, error) {
	branches, ok := s.allowed[repo]
	if !ok {
		return nil, &entity.NotFoundError{Kind: "source_control", ID: entity.ID(repo)}
	}
	return slices.Clone(branches), nil
}
