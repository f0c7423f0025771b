package rtview

import (
	"errors"
	"fmt"

	"github.com/gogpu/rtview/gpucore"
)

// GroupRole names a bind group by the resources it carries. The bind
// index of a role within a stage is defined only by that stage's
// StageGroups, which both pipeline layout construction and per-pass
// binding consult.
type GroupRole uint8

const (
	// RoleComputeOutput is the compute-local group holding the
	// write-only storage view of the output texture.
	RoleComputeOutput GroupRole = iota + 1

	// RoleRenderSource is the render-local group holding the sampled
	// output texture and its sampler.
	RoleRenderSource

	// RoleShared is the viewport uniform visible to both stages.
	RoleShared
)

// GroupScope tells whether a group belongs to one stage or is shared.
type GroupScope uint8

const (
	ScopeLocal GroupScope = iota
	ScopeShared
)

// Scope returns whether the role is stage-local or shared.
func (r GroupRole) Scope() GroupScope {
	if r == RoleShared {
		return ScopeShared
	}
	return ScopeLocal
}

// String returns the role name.
func (r GroupRole) String() string {
	switch r {
	case RoleComputeOutput:
		return "compute-output"
	case RoleRenderSource:
		return "render-source"
	case RoleShared:
		return "shared-uniform"
	default:
		return fmt.Sprintf("GroupRole(%d)", uint8(r))
	}
}

// Group composition errors.
var (
	// ErrGroupOrder is returned when a shared group precedes a local one.
	ErrGroupOrder = errors.New("rtview: local bind groups must precede shared groups")

	// ErrGroupDuplicate is returned when a role appears twice in a stage.
	ErrGroupDuplicate = errors.New("rtview: bind group role listed twice")

	// ErrGroupMissing is returned when a role has no layout or group.
	ErrGroupMissing = errors.New("rtview: no resource for bind group role")
)

// StageGroups is the ordered list of group roles of one pipeline. The
// position of a role is its bind group index.
type StageGroups []GroupRole

// Bind group composition of the two stages.
var (
	ComputeGroups = StageGroups{RoleComputeOutput, RoleShared}
	RenderGroups  = StageGroups{RoleRenderSource, RoleShared}
)

// Validate checks that locals precede shareds and that no role repeats.
func (g StageGroups) Validate() error {
	seen := make(map[GroupRole]bool, len(g))
	shared := false
	for i, r := range g {
		if seen[r] {
			return fmt.Errorf("%w: %s at index %d", ErrGroupDuplicate, r, i)
		}
		seen[r] = true
		switch r.Scope() {
		case ScopeShared:
			shared = true
		case ScopeLocal:
			if shared {
				return fmt.Errorf("%w: %s at index %d", ErrGroupOrder, r, i)
			}
		}
	}
	return nil
}

// Locals returns the number of stage-local groups. Indices below it
// address local groups; the rest address shared groups.
func (g StageGroups) Locals() int {
	n := 0
	for _, r := range g {
		if r.Scope() == ScopeLocal {
			n++
		}
	}
	return n
}

// Index returns the bind group index of role.
func (g StageGroups) Index(role GroupRole) (uint32, bool) {
	for i, r := range g {
		if r == role {
			return uint32(i), true
		}
	}
	return 0, false
}

// Layouts returns the bind group layouts ordered by index, ready for a
// pipeline layout descriptor.
func (g StageGroups) Layouts(byRole map[GroupRole]gpucore.BindGroupLayoutID) ([]gpucore.BindGroupLayoutID, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	out := make([]gpucore.BindGroupLayoutID, len(g))
	for i, r := range g {
		id, ok := byRole[r]
		if !ok || id == gpucore.InvalidID {
			return nil, fmt.Errorf("%w: layout for %s", ErrGroupMissing, r)
		}
		out[i] = id
	}
	return out, nil
}

// Bind sets every group at the index its role has in g.
func (g StageGroups) Bind(pass gpucore.GroupBinder, byRole map[GroupRole]gpucore.BindGroupID) error {
	for i, r := range g {
		id, ok := byRole[r]
		if !ok || id == gpucore.InvalidID {
			return fmt.Errorf("%w: group for %s", ErrGroupMissing, r)
		}
		pass.SetBindGroup(uint32(i), id)
	}
	return nil
}
