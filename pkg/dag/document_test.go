package dag

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/ddlayout/pkg/changes"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
)

const diamondTOML = `
root = "f"

[[levels]]
level = 0
label = "x1"

[[levels]]
level = 1
label = "x2"

[[nodes]]
name = "f"
level = 0

[[nodes]]
name = "a"
level = 1

[[nodes]]
name = "b"
level = 1

[[nodes]]
name = "one"
label = "1"
level = 2

[[edges]]
from = "f"
to = "a"
tag = "low"

[[edges]]
from = "f"
to = "b"
tag = "high"

[[edges]]
from = "a"
to = "one"
tag = "high"

[[edges]]
from = "b"
to = "one"
tag = "low"
`

const diamondYAML = `
root: f
levels:
  - {level: 0, label: x1}
  - {level: 1, label: x2}
nodes:
  - {name: f, level: 0}
  - {name: a, level: 1}
  - {name: b, level: 1}
  - {name: one, label: "1", level: 2}
edges:
  - {from: f, to: a, tag: low}
  - {from: f, to: b, tag: high}
  - {from: a, to: one, tag: high}
  - {from: b, to: one, tag: low}
`

const diamondJSON = `{
  "root": "f",
  "levels": [{"level": 0, "label": "x1"}, {"level": 1, "label": "x2"}],
  "nodes": [
    {"name": "f", "level": 0},
    {"name": "a", "level": 1},
    {"name": "b", "level": 1},
    {"name": "one", "label": "1", "level": 2}
  ],
  "edges": [
    {"from": "f", "to": "a", "tag": "low"},
    {"from": "f", "to": "b", "tag": "high"},
    {"from": "a", "to": "one", "tag": "high"},
    {"from": "b", "to": "one", "tag": "low"}
  ]
}`

func TestDecode_Formats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatTOML, diamondTOML},
		{FormatYAML, diamondYAML},
		{FormatJSON, diamondJSON},
	}

	var first *Document
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(doc.Nodes) != 4 || len(doc.Edges) != 4 || len(doc.Levels) != 2 {
				t.Fatalf("Decode() = %d nodes, %d edges, %d levels, want 4, 4, 2",
					len(doc.Nodes), len(doc.Edges), len(doc.Levels))
			}
			if first == nil {
				first = doc
			} else if !reflect.DeepEqual(doc, first) {
				t.Errorf("Decode(%s) = %+v, want %+v", tt.format, doc, first)
			}
		})
	}
}

func TestDecode_SyntaxError(t *testing.T) {
	for format, input := range map[Format]string{
		FormatTOML: "root = ",
		FormatYAML: "nodes: [",
		FormatJSON: "{",
	} {
		_, err := Decode(strings.NewReader(input), format)
		if !ddlerrors.Is(err, ddlerrors.ErrCodeInvalidInput) {
			t.Errorf("Decode(%s) error = %v, want INVALID_INPUT", format, err)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"g.toml":       FormatTOML,
		"g.yaml":       FormatYAML,
		"dir/G.YML":    FormatYAML,
		"g.json":       FormatJSON,
		"no-extension": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestBuild(t *testing.T) {
	doc, err := Decode(strings.NewReader(diamondTOML), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	g, err := Build(doc)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Errorf("NodeCount, EdgeCount = %d, %d, want 4, 4", g.NodeCount(), g.EdgeCount())
	}
	one, _ := g.NodeByName("one")
	if g.NodeLabel(one.ID) != "1" {
		t.Errorf("NodeLabel(one) = %q, want 1", g.NodeLabel(one.ID))
	}
	a, _ := g.NodeByName("a")
	if g.NodeLabel(a.ID) != "a" {
		t.Errorf("NodeLabel(a) = %q, want name fallback", g.NodeLabel(a.ID))
	}
	if g.LevelLabel(1) != "x2" {
		t.Errorf("LevelLabel(1) = %q, want x2", g.LevelLabel(1))
	}
	if root, _ := g.Node(g.Root()); root.Name != "f" {
		t.Errorf("Root() = %s, want f", root.Name)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want error
	}{
		{
			name: "unnamed node",
			doc:  Document{Nodes: []NodeRecord{{Level: 0}}},
			want: ErrInvalidNodeID,
		},
		{
			name: "duplicate name",
			doc:  Document{Nodes: []NodeRecord{{Name: "a"}, {Name: "a"}}},
			want: ErrDuplicateNodeID,
		},
		{
			name: "unknown source",
			doc:  Document{Nodes: []NodeRecord{{Name: "a"}}, Edges: []EdgeRecord{{From: "x", To: "a"}}},
			want: ErrUnknownSourceNode,
		},
		{
			name: "unknown target",
			doc:  Document{Nodes: []NodeRecord{{Name: "a"}}, Edges: []EdgeRecord{{From: "a", To: "x"}}},
			want: ErrUnknownTargetNode,
		},
		{
			name: "unknown root",
			doc:  Document{Root: "x", Nodes: []NodeRecord{{Name: "a"}}},
			want: ErrUnknownNode,
		},
		{
			name: "edge upwards",
			doc: Document{
				Nodes: []NodeRecord{{Name: "a", Level: 1}, {Name: "b", Level: 0}},
				Edges: []EdgeRecord{{From: "a", To: "b"}},
			},
			want: ErrLevelOrder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.doc)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApply_MinimalChanges(t *testing.T) {
	doc, _ := Decode(strings.NewReader(diamondTOML), FormatTOML)
	g, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	var batches [][]changes.Change
	g.OnChange(func(b []changes.Change) { batches = append(batches, append([]changes.Change(nil), b...)) })

	f, _ := g.NodeByName("f")
	a, _ := g.NodeByName("a")
	b, _ := g.NodeByName("b")
	_, _ = g.Children(g.Root())
	_, _ = g.Children(a.ID)

	// Drop b, relabel a, add zero below f.
	next := Export(g)
	next.Nodes = []NodeRecord{
		{Name: "f", Level: 0},
		{Name: "a", Label: "A", Level: 1},
		{Name: "one", Label: "1", Level: 2},
		{Name: "zero", Label: "0", Level: 2},
	}
	next.Edges = []EdgeRecord{
		{From: "f", To: "a", Tag: "low"},
		{From: "f", To: "zero", Tag: "high"},
		{From: "a", To: "one", Tag: "high"},
	}

	if err := Apply(g, next); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	zero, ok := g.NodeByName("zero")
	if !ok {
		t.Fatal("zero not added")
	}

	want := []changes.Change{
		{Kind: changes.ConnectionsChanged, Node: int(f.ID)},
		{Kind: changes.NodeRemoved, Node: int(b.ID)},
		{Kind: changes.NodeLabelChanged, Node: int(a.ID)},
		{Kind: changes.NodeInserted, Node: int(zero.ID)},
		{Kind: changes.ConnectionsChanged, Node: int(f.ID)},
	}
	if len(batches) != 1 || !reflect.DeepEqual(batches[0], want) {
		t.Errorf("batches = %v, want [%v]", batches, want)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 3 {
		t.Errorf("NodeCount, EdgeCount = %d, %d, want 4, 3", g.NodeCount(), g.EdgeCount())
	}
}

func TestApply_Unchanged(t *testing.T) {
	doc, _ := Decode(strings.NewReader(diamondJSON), FormatJSON)
	g, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	var batches [][]changes.Change
	g.OnChange(func(b []changes.Change) { batches = append(batches, b) })
	_, _ = g.Children(g.Root())

	if err := Apply(g, Export(g)); err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || len(batches[0]) != 0 {
		t.Errorf("batches = %v, want one empty batch", batches)
	}
}

func TestExport_RoundTrip(t *testing.T) {
	doc, _ := Decode(strings.NewReader(diamondYAML), FormatYAML)
	g, err := Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	out := Export(g)
	if out.Root != "f" || len(out.Nodes) != 4 || len(out.Edges) != 4 || len(out.Levels) != 2 {
		t.Errorf("Export() = %+v", out)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diamond.toml")
	if err := os.WriteFile(path, []byte(diamondTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := ReadFile(path, WithDiscoveryLimit(2))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("ReadFile(missing) error = nil, want error")
	}
}
