package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"cityscape/internal/geo"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !geo.Supported(name) {
			continue
		}
		items = append(items, fileItem{title: name, desc: strings.ToLower(filepath.Ext(name)), path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no building files in " + m.cwd
	}
}

// applyLoaded rebuilds the scene from freshly loaded records. The selection
// is left alone: it only changes on click or explicit clear.
func (m *Model) applyLoaded(msg buildingsLoadedMsg) {
	m.loading = false
	if msg.err != nil {
		zap.L().Warn("tui: load failed", zap.String("source", msg.source), zap.Error(msg.err))
		m.status = "load error: " + msg.err.Error()
		return
	}
	m.source = msg.source
	m.scene = m.builder.Build(msg.buildings)
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	m.hovering, m.hoverOK = false, false
	m.status = fmt.Sprintf("loaded: %s  buildings: %d", displayName(msg.source), m.scene.Len())
	if extent, ok := geo.Bounds(msg.buildings); ok {
		zap.L().Info("tui: scene built",
			zap.String("source", msg.source),
			zap.Int("buildings", m.scene.Len()),
			zap.Stringer("extent", extent),
		)
	}
	if skipped := len(msg.buildings) - m.scene.Len(); skipped > 0 {
		m.status += fmt.Sprintf("  skipped: %d", skipped)
	}
	m.refreshAttrs()
}

// startLoad marks the model busy and returns the load command.
func (m *Model) startLoad(src string) tea.Cmd {
	m.loading = true
	m.status = "loading " + displayName(src) + "..."
	return loadCmd(src)
}

func displayName(src string) string {
	if strings.Contains(src, "://") {
		return src
	}
	return filepath.Base(src)
}
