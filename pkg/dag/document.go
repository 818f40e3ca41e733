package dag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// Format is a document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the document format from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the serialized form of a decision diagram:
//
//	root = "f"
//
//	[[levels]]
//	level = 0
//	label = "x1"
//
//	[[nodes]]
//	name = "f"
//	level = 0
//
//	[[nodes]]
//	name = "one"
//	label = "1"
//	level = 2
//
//	[[edges]]
//	from = "f"
//	to = "one"
//	tag = "high"
//
// Nodes are referenced by name. Root defaults to the first node.
type Document struct {
	Root   string        `toml:"root" yaml:"root" json:"root,omitempty"`
	Levels []LevelRecord `toml:"levels" yaml:"levels" json:"levels,omitempty"`
	Nodes  []NodeRecord  `toml:"nodes" yaml:"nodes" json:"nodes"`
	Edges  []EdgeRecord  `toml:"edges" yaml:"edges" json:"edges"`
}

// LevelRecord labels a level.
type LevelRecord struct {
	Level int    `toml:"level" yaml:"level" json:"level"`
	Label string `toml:"label" yaml:"label" json:"label"`
}

// NodeRecord describes a node.
type NodeRecord struct {
	Name  string `toml:"name" yaml:"name" json:"name"`
	Label string `toml:"label,omitempty" yaml:"label,omitempty" json:"label,omitempty"`
	Level int    `toml:"level" yaml:"level" json:"level"`
}

// EdgeRecord describes a tagged edge.
type EdgeRecord struct {
	From string `toml:"from" yaml:"from" json:"from"`
	To   string `toml:"to" yaml:"to" json:"to"`
	Tag  string `toml:"tag,omitempty" yaml:"tag,omitempty" json:"tag,omitempty"`
}

// Decode reads a document in the given format from r. Syntax errors are
// reported with the INVALID_INPUT code.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		if err = yaml.NewDecoder(r).Decode(&doc); err == io.EOF {
			err = nil
		}
	default:
		err = json.NewDecoder(r).Decode(&doc)
	}
	if err != nil {
		return nil, ddlerrors.Wrap(ddlerrors.ErrCodeInvalidInput, err, "decode %s", format)
	}
	return &doc, nil
}

// ReadDocument reads and decodes the document at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Decode(bytes.NewReader(data), FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadFile reads the document at path and builds a validated DAG from it.
func ReadFile(path string, opts ...Option) (*DAG, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Build(doc, opts...)
}

// Build creates a DAG from a document. Node IDs are assigned in document
// order. The resulting graph is validated.
func Build(doc *Document, opts ...Option) (*DAG, error) {
	g := New(nil, opts...)
	if err := Apply(g, doc); err != nil {
		return nil, err
	}
	return g, nil
}

// Apply replays doc onto g as a minimal set of mutations and commits them.
// Nodes are matched by name: missing nodes are removed, new nodes added, and
// labels, levels and edges updated in place so that listeners receive precise
// change events. The graph is validated before committing; on error g may be
// partially updated and nothing is dispatched.
func Apply(g *DAG, doc *Document) error {
	for _, l := range doc.Levels {
		g.SetLevelLabel(l.Level, l.Label)
	}

	wanted := make(map[string]NodeRecord, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node: %w", ErrInvalidNodeID)
		}
		if _, dup := wanted[n.Name]; dup {
			return fmt.Errorf("node %s: %w", n.Name, ErrDuplicateNodeID)
		}
		wanted[n.Name] = n
	}

	for _, n := range g.Nodes() {
		if _, ok := wanted[n.Name]; !ok {
			if err := g.RemoveNode(n.ID); err != nil {
				return fmt.Errorf("remove node %s: %w", n.Name, err)
			}
		}
	}

	for _, rec := range doc.Nodes {
		if n, ok := g.NodeByName(rec.Name); ok {
			if err := g.SetLabel(n.ID, rec.Label); err != nil {
				return err
			}
			if err := g.SetLevel(n.ID, rec.Level); err != nil {
				return err
			}
			continue
		}
		if err := g.AddNode(Node{ID: g.NextID(), Name: rec.Name, Label: rec.Label, Level: rec.Level}); err != nil {
			return fmt.Errorf("node %s: %w", rec.Name, err)
		}
	}

	if err := applyEdges(g, doc.Edges); err != nil {
		return err
	}

	if doc.Root != "" {
		root, ok := g.NodeByName(doc.Root)
		if !ok {
			return fmt.Errorf("root %s: %w", doc.Root, ErrUnknownNode)
		}
		g.root = root.ID
	} else if len(doc.Nodes) > 0 {
		root, _ := g.NodeByName(doc.Nodes[0].Name)
		g.root = root.ID
	}

	if err := g.Validate(); err != nil {
		return err
	}
	g.Commit()
	return nil
}

type edgeKey struct {
	from, to structure.NodeID
	tag      string
}

func applyEdges(g *DAG, records []EdgeRecord) error {
	want := make(map[edgeKey]int)
	for _, e := range records {
		from, ok := g.NodeByName(e.From)
		if !ok {
			return fmt.Errorf("edge %s->%s: %w", e.From, e.To, ErrUnknownSourceNode)
		}
		to, ok := g.NodeByName(e.To)
		if !ok {
			return fmt.Errorf("edge %s->%s: %w", e.From, e.To, ErrUnknownTargetNode)
		}
		want[edgeKey{from.ID, to.ID, e.Tag}]++
	}

	have := make(map[edgeKey][]int)
	for _, e := range g.Edges() {
		k := edgeKey{e.From, e.To, e.Tag}
		have[k] = append(have[k], e.Index)
	}

	for _, k := range sortedKeys(have) {
		indices := have[k]
		slices.Sort(indices)
		for i := len(indices) - 1; i >= want[k]; i-- {
			g.RemoveEdge(k.from, k.to, k.tag, indices[i])
		}
	}
	for _, k := range sortedKeys(want) {
		for range want[k] - len(have[k]) {
			if _, err := g.AddEdge(k.from, k.to, k.tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[edgeKey]V) []edgeKey {
	return slices.SortedFunc(maps.Keys(m), func(a, b edgeKey) int {
		if a.from != b.from {
			return int(a.from - b.from)
		}
		if a.to != b.to {
			return int(a.to - b.to)
		}
		return strings.Compare(a.tag, b.tag)
	})
}

// Export converts g back into a document.
func Export(g *DAG) *Document {
	doc := &Document{}
	if root, ok := g.Node(g.root); ok {
		doc.Root = root.Name
	}
	for _, level := range slices.Sorted(maps.Keys(g.levelLabels)) {
		doc.Levels = append(doc.Levels, LevelRecord{Level: level, Label: g.levelLabels[level]})
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{Name: n.Name, Label: n.Label, Level: n.Level})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{From: g.nodes[e.From].Name, To: g.nodes[e.To].Name, Tag: e.Tag})
	}
	return doc
}
