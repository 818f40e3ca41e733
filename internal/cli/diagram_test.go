package cli

import (
	"errors"
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/ddlayout/pkg/dag"
)

func loadTestDiagram(t *testing.T) *diagram {
	t.Helper()
	dir, _ := setup(t)
	d, err := loadDiagram(filepath.Join(dir, "diamond.toml"), newLogger(io.Discard, LogInfo))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.manager.Close)
	return d
}

func TestDiagramExpand(t *testing.T) {
	tests := []struct {
		name   string
		opts   expandOpts
		groups int
	}{
		{"root only", expandOpts{depth: 0}, 1},
		{"one level", expandOpts{depth: 1}, 3},
		{"two levels", expandOpts{depth: 2}, 4},
		{"all", expandOpts{all: true}, 4},
		{"named", expandOpts{depth: 0, names: []string{"f"}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := loadTestDiagram(t)
			if err := d.expand(tt.opts); err != nil {
				t.Fatal(err)
			}
			if got := len(d.manager.Groups()); got != tt.groups {
				t.Errorf("groups = %d, want %d", got, tt.groups)
			}
		})
	}
}

func TestDiagramExpandIsIdempotent(t *testing.T) {
	d := loadTestDiagram(t)
	opts := expandOpts{depth: 1}
	if err := d.expand(opts); err != nil {
		t.Fatal(err)
	}
	if err := d.expand(opts); err != nil {
		t.Fatal(err)
	}
	if got := len(d.manager.Groups()); got != 3 {
		t.Errorf("groups after expanding twice = %d, want 3", got)
	}
}

func TestDiagramGroupSet(t *testing.T) {
	d := loadTestDiagram(t)
	if err := d.expand(expandOpts{depth: 1}); err != nil {
		t.Fatal(err)
	}

	set, err := d.groupSet([]string{"a", "f"})
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 {
		t.Errorf("groupSet = %v, want 2 groups", set)
	}
	if _, ok := set[d.manager.Root()]; !ok {
		t.Error("groupSet should contain the root group")
	}

	if _, err := d.groupSet([]string{"zzz"}); !errors.Is(err, dag.ErrUnknownNode) {
		t.Errorf("unknown node error = %v, want %v", err, dag.ErrUnknownNode)
	}
	if _, err := d.groupSet([]string{"one"}); err == nil {
		t.Error("a hidden node should not resolve to a group")
	}
	if set, err := d.groupSet(nil); set != nil || err != nil {
		t.Errorf("groupSet(nil) = %v, %v", set, err)
	}
}

func TestDiagramNodeNames(t *testing.T) {
	d := loadTestDiagram(t)
	if got := d.nodeNames(d.manager.Root()); !slices.Equal(got, []string{"f"}) {
		t.Errorf("nodeNames(root) = %v, want [f]", got)
	}
	if d.hash() == "" {
		t.Error("hash should not be empty")
	}
}
