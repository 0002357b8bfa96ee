package tui

import (
	"fmt"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"cityscape/internal/scene"
)

const (
	maxZoom = 64.0
	minZoom = 0.05
	maxTilt = 2.0
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
		}
	case buildingsLoadedMsg:
		m.applyLoaded(msg)
		return m, nil
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc", "c":
			m.clearSelection()
		case "+", "=":
			m.zoomBy(1.2)
		case "-", "_":
			m.zoomBy(1 / 1.2)
		case "[":
			m.tilt = max(0, m.tilt-0.1)
			m.status = fmt.Sprintf("tilt: %.1f", m.tilt)
		case "]":
			m.tilt = min(maxTilt, m.tilt+0.1)
			m.status = fmt.Sprintf("tilt: %.1f", m.tilt)
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
		case "d":
			m.showDetails = !m.showDetails
		case "o":
			m.outline = !m.outline
			m.status = fmt.Sprintf("outline: %v", m.outline)
		case "r":
			if m.source != "" && !m.loading {
				return m, m.startLoad(m.source)
			}
		case "enter":
			if m.showSidebar && !m.loading {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					return m, m.startLoad(it.path)
				}
			}
		case "up", "down", "left", "right":
			if m.showAttrs {
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
			if m.showSidebar && (msg.String() == "up" || msg.String() == "down") {
				break
			}
			m.pan(msg.String())
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) pan(dir string) {
	switch dir {
	case "up":
		m.offsetY--
	case "down":
		m.offsetY++
	case "left":
		m.offsetX -= 2
	case "right":
		m.offsetX += 2
	}
}

func (m *Model) zoomBy(f float64) {
	z := m.zoom * f
	if z > maxZoom || z < minZoom {
		return
	}
	m.zoom = z
	m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
}

// handleMouse maps terminal coordinates into the map area. A left press on a
// building selects it; motion updates the hover readout.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	lay := m.layout()
	cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
	inMap := cx >= 0 && cx < lay.mapW && cy >= 0 && cy < lay.mapH && !m.showAttrs

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		m.zoomBy(1.2)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		m.zoomBy(1 / 1.2)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inMap {
			return
		}
		if ov, ok := m.detailsOverlay(lay); ok && ov.covers(cx, cy) {
			return
		}
		if e, ok := m.pickCell(cx, cy); ok {
			m.selectBuilding(e)
		}
	case msg.Action == tea.MouseActionMotion:
		if !inMap {
			m.hovering = false
			return
		}
		if m.hovering && cx == m.hoverCellX && cy == m.hoverCellY {
			return
		}
		m.hovering = true
		m.hoverCellX, m.hoverCellY = cx, cy
		e, ok := m.pickCell(cx, cy)
		m.hoverOK = ok
		m.hoverID = e.ID()
		m.hoverPos = false
		if ok {
			m.hoverLon, m.hoverLat, m.hoverPos = m.footprintCenter(e)
		}
	}
}

// selectBuilding is the pointer-click write path into the selection store.
func (m *Model) selectBuilding(e scene.Entity) {
	m.store.Select(e.ID())
	m.status = "selected: " + e.Building.ID
	zap.L().Debug("tui: building selected", zap.String("id", e.Building.ID))
	m.refreshAttrs()
}

func (m *Model) clearSelection() {
	if _, ok := m.store.Current(); !ok {
		return
	}
	m.store.Clear()
	m.status = "selection cleared"
	m.refreshAttrs()
}
