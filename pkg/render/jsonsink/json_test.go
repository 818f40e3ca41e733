package jsonsink

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

func testLayout() *animate.DiagramLayout[string] {
	l := animate.NewDiagramLayout[string]()
	p := func(x, y float64) animate.Transition[animate.Point] { return animate.Plain(animate.Point{X: x, Y: y}) }
	size := p(1, 1)
	l.Groups[1] = animate.NodeGroupLayout[string]{
		Position: p(0, 0), Size: size, Label: "f", Exists: animate.Plain(1.0),
		Edges: map[group.NodeGroupID]map[structure.EdgeType[string]]animate.EdgeLayout{
			2: {
				{Tag: "low"}:  {Points: []animate.Transition[animate.Point]{p(0, 0), p(0, -2)}, Exists: animate.Plain(1.0)},
				{Tag: "high"}: {Points: []animate.Transition[animate.Point]{p(0, 0), p(0, -2)}, Exists: animate.Animate(1.0, 0.0, 0, 100)},
			},
		},
	}
	l.Groups[2] = animate.NodeGroupLayout[string]{
		Position: animate.Animate(animate.Point{X: 0, Y: -2}, animate.Point{X: 4, Y: -2}, 0, 100),
		Size:     size, Label: "a", Exists: animate.Plain(1.0),
	}
	l.Groups[3] = animate.NodeGroupLayout[string]{Position: p(2, -2), Size: size, Label: "gone", Exists: animate.Plain(0.0)}
	l.Layers[0] = animate.LayerLayout{Start: animate.Plain(1.0), End: animate.Plain(-1.0), Label: "x0", Exists: animate.Plain(1.0)}
	return l
}

func TestSnapshot(t *testing.T) {
	f := Snapshot(testLayout(), 50, map[group.NodeGroupID]struct{}{2: {}}, nil)

	if len(f.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2 (invisible group dropped)", len(f.Groups))
	}
	if f.Groups[1].X != 2 || !f.Groups[1].Selected {
		t.Errorf("group 2 = %+v, want x=2 and selected", f.Groups[1])
	}
	edges := f.Groups[0].Edges
	if len(edges) != 2 || edges[0].Tag != "high" || edges[0].Opacity != 0.5 {
		t.Errorf("edges = %+v", edges)
	}
	if len(f.Layers) != 1 || f.Layers[0].Label != "x0" {
		t.Errorf("Layers = %+v", f.Layers)
	}

	settled := Snapshot(testLayout(), 100, nil, nil)
	if n := len(settled.Groups[0].Edges); n != 1 {
		t.Errorf("edges after fade-out = %d, want 1", n)
	}
}

func TestSnapshot_Nil(t *testing.T) {
	f := Snapshot[string](nil, 0, nil, nil)
	if f.Groups == nil || len(f.Groups) != 0 {
		t.Errorf("Snapshot(nil) = %+v", f)
	}
}

func TestSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (Sink[string]{W: &buf}).Render(testLayout(), 100, nil, nil); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var out Frame
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if out.Time != 100 {
		t.Errorf("Time = %d, want 100", out.Time)
	}
	if out.Groups[1].X != 4 {
		t.Errorf("X = %v, want 4", out.Groups[1].X)
	}
	if got := out.Groups[0].Edges[0].Points; len(got) != 2 || got[1] != [2]float64{0, -2} {
		t.Errorf("Points = %v", got)
	}
}
