package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/drawing"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/render/text"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

const frameInterval = 33 * time.Millisecond

var (
	playFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	playStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	playErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// playCommand creates the interactive play command.
func (c *CLI) playCommand() *cobra.Command {
	var expand expandOpts

	cmd := &cobra.Command{
		Use:   "play [diagram]",
		Short: "Explore a decision diagram interactively",
		Long: `Open a decision diagram in the terminal and explore it. Expanding, collapsing
and merging groups re-lays out the diagram and animates the transition.

Keys:
  ←/→ h/l   previous/next group      ↑/↓ k/j   group on the row above/below
  enter e   expand                   c         collapse
  space     toggle selection         m         merge selected groups
  q         quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd.Context(), args[0], expand)
		},
	}
	expand.register(cmd)
	return cmd
}

func (c *CLI) runPlay(ctx context.Context, input string, expand expandOpts) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	logger := newLogger(io.Discard, c.Logger.GetLevel())

	d, err := loadDiagram(input, logger)
	if err != nil {
		return err
	}
	defer d.manager.Close()
	if err := d.expand(expand); err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	m := newPlayModel(d, cfg, time.Now)
	defer m.drawer.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

type tickMsg time.Time

// playModel is the bubbletea model of the play command. It is used through
// a pointer so the drawer's renderer can write the current frame into it.
type playModel struct {
	d       *diagram
	drawer  *drawing.Drawer[string]
	options text.Options
	start   time.Time
	now     func() time.Time

	frame     string
	hovered   group.NodeGroupID
	selected  map[group.NodeGroupID]struct{}
	status    string
	err       error
	animating bool
}

func newPlayModel(d *diagram, cfg *config.Config, now func() time.Time) *playModel {
	m := &playModel{
		d:        d,
		options:  text.Options{CellWidth: cfg.Render.CellWidth, CellHeight: cfg.Render.CellHeight},
		start:    now(),
		now:      now,
		hovered:  d.manager.Root(),
		selected: make(map[group.NodeGroupID]struct{}),
	}
	renderer := drawing.RendererFunc[string](func(l *animate.DiagramLayout[string], at int64, selected, hovered map[group.NodeGroupID]struct{}) error {
		m.frame = text.Render(l, at, selected, hovered, m.options)
		return nil
	})
	m.drawer = drawing.New[string](d.manager, config.BuildLayout[string](cfg.Layout, nil), renderer,
		drawing.WithAutoLayout(), drawing.WithClock(m.clock))
	m.redraw()
	return m
}

func (m *playModel) clock() int64 { return m.now().Sub(m.start).Milliseconds() }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *playModel) Init() tea.Cmd {
	m.animating = true
	return tick()
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.redraw()
		if m.settled() {
			m.animating = false
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "tab":
			m.step(1)
		case "left", "h", "shift+tab":
			m.step(-1)
		case "up", "k":
			m.jump(1)
		case "down", "j":
			m.jump(-1)
		case " ":
			m.toggle()
		case "enter", "e":
			m.expand()
		case "c":
			m.collapse()
		case "m":
			m.merge()
		}
		m.fixHover()
		m.redraw()
		if !m.animating && !m.settled() {
			m.animating = true
			return m, tick()
		}
	}
	return m, nil
}

func (m *playModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName+" · "+m.d.path) + "\n")
	b.WriteString(playFrameStyle.Render(m.frame) + "\n")

	names := m.d.nodeNames(m.hovered)
	label := m.d.manager.Label(m.hovered)
	b.WriteString(playStatusStyle.Render(fmt.Sprintf("group %d %s  nodes: %s  selected: %d",
		m.hovered, StyleHighlight.Render(label), strings.Join(names, ", "), len(m.selected))) + "\n")
	if m.err != nil {
		b.WriteString(playErrorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(StyleDim.Render(m.status) + "\n")
	}
	b.WriteString(StyleDim.Render("←→↑↓ move  enter expand  c collapse  space select  m merge  q quit"))
	return b.String()
}

// redraw renders the current layout into m.frame.
func (m *playModel) redraw() {
	if m.drawer.Current() == nil {
		return
	}
	hovered := map[group.NodeGroupID]struct{}{m.hovered: {}}
	if err := m.drawer.Render(m.clock(), m.selected, hovered); err != nil {
		m.err = err
	}
}

func (m *playModel) settled() bool {
	l := m.drawer.Current()
	return l == nil || l.Settled(m.clock())
}

// targets returns the visible groups in reading order (top to bottom, left
// to right) with their final positions.
func (m *playModel) targets() ([]group.NodeGroupID, map[group.NodeGroupID]animate.Point) {
	l := m.drawer.Current()
	if l == nil {
		return nil, nil
	}
	pos := make(map[group.NodeGroupID]animate.Point)
	var ids []group.NodeGroupID
	for _, id := range m.d.manager.Groups() {
		g, ok := l.Groups[id]
		if !ok {
			continue
		}
		pos[id] = g.Position.New
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b group.NodeGroupID) int {
		if c := cmp.Compare(pos[b].Y, pos[a].Y); c != 0 {
			return c
		}
		return cmp.Compare(pos[a].X, pos[b].X)
	})
	return ids, pos
}

// step moves the hover by delta in reading order, wrapping around.
func (m *playModel) step(delta int) {
	ids, _ := m.targets()
	if len(ids) == 0 {
		return
	}
	i := slices.Index(ids, m.hovered)
	m.hovered = ids[((i+delta)%len(ids)+len(ids))%len(ids)]
}

// jump moves the hover to the closest group on the nearest row above
// (dir > 0) or below (dir < 0).
func (m *playModel) jump(dir int) {
	ids, pos := m.targets()
	here, ok := pos[m.hovered]
	if !ok {
		return
	}
	row := math.NaN()
	for _, id := range ids {
		dy := (pos[id].Y - here.Y) * float64(dir)
		if dy > 0 && (math.IsNaN(row) || dy < (row-here.Y)*float64(dir)) {
			row = pos[id].Y
		}
	}
	if math.IsNaN(row) {
		return
	}
	best, bestDist := m.hovered, math.Inf(1)
	for _, id := range ids {
		if pos[id].Y != row {
			continue
		}
		if dist := math.Abs(pos[id].X - here.X); dist < bestDist {
			best, bestDist = id, dist
		}
	}
	m.hovered = best
}

func (m *playModel) toggle() {
	if _, ok := m.selected[m.hovered]; ok {
		delete(m.selected, m.hovered)
		return
	}
	m.selected[m.hovered] = struct{}{}
}

func (m *playModel) expand() {
	created, err := m.d.manager.Expand(m.hovered)
	m.err = err
	if err == nil {
		m.status = fmt.Sprintf("expanded group %d into %d groups", m.hovered, len(created))
	}
}

func (m *playModel) collapse() {
	m.err = m.d.manager.Collapse(m.hovered)
	if m.err == nil {
		m.status = fmt.Sprintf("collapsed group %d", m.hovered)
	}
}

// merge moves the nodes of every selected group into one new group.
func (m *playModel) merge() {
	if len(m.selected) < 2 {
		m.status = "select at least two groups to merge"
		return
	}
	var nodes []structure.NodeID
	for id := range m.selected {
		nodes = append(nodes, m.d.manager.Nodes(id)...)
	}
	slices.Sort(nodes)
	id, err := m.d.manager.CreateGroup(nodes)
	m.err = err
	if err == nil {
		m.status = fmt.Sprintf("merged %d groups into group %d", len(m.selected), id)
		m.hovered = id
		clear(m.selected)
	}
}

// fixHover keeps the hover and selection on live groups.
func (m *playModel) fixHover() {
	if !m.d.manager.Exists(m.hovered) {
		m.hovered = m.d.manager.Root()
	}
	for id := range m.selected {
		if !m.d.manager.Exists(id) {
			delete(m.selected, id)
		}
	}
}
