package rtview

import (
	"errors"
	"testing"

	"github.com/gogpu/rtview/gpucore"
)

// recordingBinder records the index each group is bound at.
type recordingBinder struct {
	bound map[gpucore.BindGroupID]uint32
	order []uint32
}

func (b *recordingBinder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if b.bound == nil {
		b.bound = make(map[gpucore.BindGroupID]uint32)
	}
	b.bound[group] = index
	b.order = append(b.order, index)
}

func TestStageGroupsValid(t *testing.T) {
	for name, g := range map[string]StageGroups{
		"compute": ComputeGroups,
		"render":  RenderGroups,
	} {
		if err := g.Validate(); err != nil {
			t.Errorf("%s groups: Validate() = %v", name, err)
		}
		if g.Locals() != 1 {
			t.Errorf("%s groups: Locals() = %d, want 1", name, g.Locals())
		}
	}
}

func TestSharedGroupSameIndexInBothStages(t *testing.T) {
	ci, ok := ComputeGroups.Index(RoleShared)
	if !ok {
		t.Fatal("compute stage has no shared group")
	}
	ri, ok := RenderGroups.Index(RoleShared)
	if !ok {
		t.Fatal("render stage has no shared group")
	}
	if ci != ri {
		t.Errorf("shared group index: compute %d, render %d", ci, ri)
	}
}

// TestLayoutBindSymmetry checks that the index a role's layout occupies in
// the pipeline layout is the index its group is bound at.
func TestLayoutBindSymmetry(t *testing.T) {
	for name, g := range map[string]StageGroups{
		"compute": ComputeGroups,
		"render":  RenderGroups,
	} {
		t.Run(name, func(t *testing.T) {
			layouts := make(map[GroupRole]gpucore.BindGroupLayoutID)
			groups := make(map[GroupRole]gpucore.BindGroupID)
			for i, r := range g {
				layouts[r] = gpucore.BindGroupLayoutID(100 + i)
				groups[r] = gpucore.BindGroupID(200 + i)
			}

			ordered, err := g.Layouts(layouts)
			if err != nil {
				t.Fatalf("Layouts() error: %v", err)
			}
			var b recordingBinder
			if err := g.Bind(&b, groups); err != nil {
				t.Fatalf("Bind() error: %v", err)
			}

			for _, r := range g {
				layoutIndex := -1
				for i, id := range ordered {
					if id == layouts[r] {
						layoutIndex = i
					}
				}
				bindIndex, ok := b.bound[groups[r]]
				if !ok {
					t.Fatalf("%s was not bound", r)
				}
				want, _ := g.Index(r)
				if layoutIndex != int(want) || bindIndex != want {
					t.Errorf("%s: layout index %d, bind index %d, want %d", r, layoutIndex, bindIndex, want)
				}
			}
		})
	}
}

func TestStageGroupsValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		g    StageGroups
		want error
	}{
		{"shared before local", StageGroups{RoleShared, RoleComputeOutput}, ErrGroupOrder},
		{"duplicate", StageGroups{RoleComputeOutput, RoleComputeOutput}, ErrGroupDuplicate},
		{"duplicate shared", StageGroups{RoleRenderSource, RoleShared, RoleShared}, ErrGroupDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
			if _, err := tt.g.Layouts(nil); !errors.Is(err, tt.want) {
				t.Errorf("Layouts() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStageGroupsMissing(t *testing.T) {
	_, err := ComputeGroups.Layouts(map[GroupRole]gpucore.BindGroupLayoutID{
		RoleComputeOutput: 1,
	})
	if !errors.Is(err, ErrGroupMissing) {
		t.Errorf("Layouts() = %v, want ErrGroupMissing", err)
	}

	var b recordingBinder
	err = RenderGroups.Bind(&b, map[GroupRole]gpucore.BindGroupID{
		RoleRenderSource: 1,
		RoleShared:       gpucore.InvalidID,
	})
	if !errors.Is(err, ErrGroupMissing) {
		t.Errorf("Bind() = %v, want ErrGroupMissing", err)
	}
}

func TestGroupRoleString(t *testing.T) {
	tests := []struct {
		r    GroupRole
		want string
	}{
		{RoleComputeOutput, "compute-output"},
		{RoleRenderSource, "render-source"},
		{RoleShared, "shared-uniform"},
		{GroupRole(0), "GroupRole(0)"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if RoleShared.Scope() != ScopeShared || RoleComputeOutput.Scope() != ScopeLocal {
		t.Error("unexpected role scopes")
	}
}
