package text

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

func pt(x, y float64) animate.Transition[animate.Point] {
	return animate.Plain(animate.Point{X: x, Y: y})
}

func straight(from, to animate.Point) animate.EdgeLayout {
	return animate.EdgeLayout{
		Points: []animate.Transition[animate.Point]{animate.Plain(from), animate.Plain(to)},
		Exists: animate.Plain(1.0),
	}
}

func fork() *animate.DiagramLayout[string] {
	l := animate.NewDiagramLayout[string]()
	l.Groups[1] = animate.NodeGroupLayout[string]{
		Position: pt(0, 0), Label: "f", Exists: animate.Plain(1.0),
		Edges: map[group.NodeGroupID]map[structure.EdgeType[string]]animate.EdgeLayout{
			2: {{Tag: "low"}: straight(animate.Point{X: 0, Y: 0}, animate.Point{X: 0, Y: -2})},
			3: {{Tag: "high"}: straight(animate.Point{X: 0, Y: 0}, animate.Point{X: 2, Y: -2})},
		},
	}
	l.Groups[2] = animate.NodeGroupLayout[string]{Position: pt(0, -2), Label: "a", Exists: animate.Plain(1.0)}
	l.Groups[3] = animate.NodeGroupLayout[string]{Position: pt(2, -2), Label: "b", Exists: animate.Plain(1.0)}
	return l
}

func TestRender(t *testing.T) {
	got := Render(fork(), 0, nil, nil, Options{})
	want := strings.Join([]string{
		`[f]`,
		` | \\\\`,
		`[a]    \[b]`,
	}, "\n") + "\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_Markers(t *testing.T) {
	l := fork()
	g := l.Groups[3]
	g.Exists = animate.Animate(0.0, 1.0, 0, 100)
	l.Groups[3] = g

	got := Render(l, 50, map[group.NodeGroupID]struct{}{1: {}}, map[group.NodeGroupID]struct{}{2: {}}, Options{})
	for _, want := range []string{"[*f*]", "[>a<]", "(b)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %s:\n%s", want, got)
		}
	}
}

func TestRender_LayerLabels(t *testing.T) {
	l := fork()
	l.Layers[0] = animate.LayerLayout{Start: animate.Plain(1.0), End: animate.Plain(-1.0), Label: "x0", Exists: animate.Plain(1.0)}
	lines := strings.Split(Render(l, 0, nil, nil, Options{}), "\n")
	if !strings.HasPrefix(lines[0], "x0 [f]") {
		t.Errorf("first line = %q, want layer label in the margin", lines[0])
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render[string](nil, 0, nil, nil, Options{}); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}

func TestRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (Renderer[string]{W: &buf}).Render(fork(), 0, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\n\n") {
		t.Errorf("frame should end with a blank line: %q", buf.String())
	}
}
