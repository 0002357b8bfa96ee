// Package tui is the terminal scene viewer: it draws extruded buildings with
// an oblique camera and turns mouse clicks into selection changes.
package tui

import (
	"context"
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"cityscape/internal/geo"
	"cityscape/internal/scene"
	"cityscape/internal/selection"
)

// Options wires the viewer to the rest of the program.
type Options struct {
	Builder *scene.Builder
	Store   *selection.Store
	Dir     string  // directory listed in the sidebar
	Source  string  // file or URL loaded by Init
	Tilt    float64 // camera tilt, see camera
	Outline bool
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool
	showDetails bool

	zoom    float64
	offsetX int
	offsetY int
	tilt    float64
	outline bool

	status  string
	loading bool

	// File explorer
	cwd   string
	l     list.Model
	items []list.Item

	// Data
	source  string
	builder *scene.Builder
	store   *selection.Store
	scene   *scene.Scene

	// hover state
	hovering   bool
	hoverCellX int
	hoverCellY int
	hoverID    selection.ID
	hoverOK    bool
	hoverLon   float64
	hoverLat   float64
	hoverPos   bool

	// building table
	showAttrs bool
	tbl       table.Model
}

// buildingsLoadedMsg carries the result of an asynchronous load.
type buildingsLoadedMsg struct {
	source    string
	buildings []geo.Building
	err       error
}

const loadTimeout = 30 * time.Second

// mustDefaultBuilder builds with scene.DefaultOptions, which always validate.
func mustDefaultBuilder() *scene.Builder {
	b, err := scene.NewBuilder(scene.DefaultOptions(), nil)
	if err != nil {
		panic(err)
	}
	return b
}

func New(opts Options) Model {
	m := Model{
		helpVisible: true,
		showDetails: true,
		zoom:        1.0,
		tilt:        opts.Tilt,
		outline:     opts.Outline,
		status:      "cityscape ready",
		cwd:         opts.Dir,
		source:      opts.Source,
		builder:     opts.Builder,
		store:       opts.Store,
	}
	if m.store == nil {
		m.store = selection.New()
	}
	if m.builder == nil {
		m.builder = mustDefaultBuilder()
	}
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.tbl = table.New(table.WithColumns(buildingColumns()), table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// Init starts loading the configured source, if any.
func (m Model) Init() tea.Cmd {
	if m.source == "" {
		return nil
	}
	return loadCmd(m.source)
}

func loadCmd(src string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		bs, err := geo.Load(ctx, src)
		return buildingsLoadedMsg{source: src, buildings: bs, err: err}
	}
}

// Scene returns the scene currently on screen.
func (m Model) Scene() *scene.Scene { return m.scene }
