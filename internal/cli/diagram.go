package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/cache"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/dag"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/group"
)

// expandOpts select which groups are expanded after loading a diagram.
type expandOpts struct {
	depth int      // expand every group this many times
	names []string // then expand the groups holding these nodes
	all   bool     // expand until nothing is hidden
}

func (o *expandOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.depth, "depth", "d", 1, "expand groups this many levels below the root")
	cmd.Flags().StringSliceVarP(&o.names, "expand", "e", nil, "additionally expand the groups holding these nodes")
	cmd.Flags().BoolVarP(&o.all, "all", "a", false, "expand the whole diagram")
}

// diagram is a loaded graph with its group manager.
type diagram struct {
	path    string
	data    []byte
	graph   *dag.DAG
	manager *group.Manager[string]
}

// loadDiagram reads the document at path and builds a group manager with
// the root visible.
func loadDiagram(path string, logger *log.Logger, opts ...dag.Option) (*diagram, error) {
	if err := ddlerrors.ValidateGraphPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := dag.ReadFile(path, opts...)
	if err != nil {
		return nil, err
	}
	m, err := group.New[string](g, group.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", path, err)
	}
	logger.Debugf("Loaded %s: %d nodes, %d edges", path, g.NodeCount(), g.EdgeCount())
	return &diagram{path: path, data: data, graph: g, manager: m}, nil
}

// hash identifies the document contents for caching.
func (d *diagram) hash() string { return cache.Hash(d.data) }

// expand applies o to the manager. Groups are expanded breadth first from
// the root, so applying the same options again after the graph changed only
// opens what is new.
func (d *diagram) expand(o expandOpts) error {
	depth := o.depth
	if o.all {
		depth = d.graph.NodeCount()
	}
	frontier := []group.NodeGroupID{d.manager.Root()}
	seen := map[group.NodeGroupID]struct{}{d.manager.Root(): {}}
	for i := 0; i < depth && len(frontier) > 0; i++ {
		var next []group.NodeGroupID
		for _, id := range frontier {
			if _, err := d.manager.Expand(id); err != nil {
				return err
			}
			children, err := d.manager.Children(id)
			if err != nil {
				return err
			}
			for _, e := range children {
				if _, ok := seen[e.Group]; !ok {
					seen[e.Group] = struct{}{}
					next = append(next, e.Group)
				}
			}
		}
		frontier = next
	}
	for _, name := range o.names {
		id, err := d.groupOf(name)
		if err != nil {
			return err
		}
		if _, err := d.manager.Expand(id); err != nil {
			return err
		}
	}
	return nil
}

// groupOf returns the visible group holding the named node.
func (d *diagram) groupOf(name string) (group.NodeGroupID, error) {
	n, ok := d.graph.NodeByName(name)
	if !ok {
		return 0, fmt.Errorf("node %q: %w", name, dag.ErrUnknownNode)
	}
	id, ok := d.manager.GroupOf(n.ID)
	if !ok || id == group.Hidden {
		return 0, fmt.Errorf("node %q is not visible", name)
	}
	return id, nil
}

// groupSet resolves node names to the set of groups holding them.
func (d *diagram) groupSet(names []string) (map[group.NodeGroupID]struct{}, error) {
	if len(names) == 0 {
		return nil, nil
	}
	set := make(map[group.NodeGroupID]struct{}, len(names))
	for _, name := range names {
		id, err := d.groupOf(name)
		if err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, nil
}

// layoutKeyOpts are the cache key options for a layout of d.
func layoutKeyOpts(cfg config.LayoutConfig, o expandOpts) cache.LayoutKeyOpts {
	depth := o.depth
	if o.all {
		depth = -1
	}
	return cache.LayoutKeyOpts{
		Ordering:    cfg.Ordering,
		Positioning: cfg.Positioning,
		Spacing:     cfg.Spacing,
		Seed:        cfg.Seed,
		Passes:      cfg.Passes,
		Swaps:       cfg.SwapsPerNode,
		Expand:      o.names,
		Depth:       depth,
	}
}

// nodeNames lists the names of the nodes in a group, for status output.
func (d *diagram) nodeNames(id group.NodeGroupID) []string {
	var names []string
	for _, n := range d.manager.Nodes(id) {
		if node, ok := d.graph.Node(n); ok {
			names = append(names, node.Name)
		}
	}
	return names
}
