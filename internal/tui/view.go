package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cityscape/internal/scene"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2

	addressPlaceholder = "N/A"
)

// layout is the screen geometry shared by View and mouse handling.
type layout struct {
	sidebarW int
	contentW int
	contentH int
	mapX     int
	mapY     int
	mapW     int
	mapH     int
}

func (m Model) layout() layout {
	var lay layout
	if m.showSidebar {
		lay.sidebarW = sidebarWidth
	}
	lay.contentH = max(4, m.height-headerHeight-footerHeight)
	lay.contentW = max(10, m.width)
	lay.mapW = max(10, lay.contentW-lay.sidebarW-1)
	lay.mapH = lay.contentH
	if m.showSidebar {
		lay.mapX = lay.sidebarW + 1
	}
	lay.mapY = headerHeight
	return lay
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	header := titleStyle.Render(" cityscape ─ building heights ")
	header = lipgloss.NewStyle().Width(lay.contentW).Render(header)

	var sidebar string
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		sidebar = lipgloss.NewStyle().Width(lay.sidebarW).Render(m.l.View())
	}

	var mapView string
	if m.showAttrs {
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, box)
	} else {
		ov, _ := m.detailsOverlay(lay)
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).Render(m.renderScene(lay.mapW, lay.mapH, ov))
	}

	body := mapView
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	help := m.renderHelp()
	status := dimStyle.Render(" " + m.status + " ")
	hover := ""
	if m.hovering && m.hoverOK {
		label := fmt.Sprintf("  building %s  ", m.hoverID)
		if m.hoverPos {
			label = fmt.Sprintf("  building %s  %.5f, %.5f  ", m.hoverID, m.hoverLat, m.hoverLon)
		}
		hover = dimStyle.Render(label)
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, help)
	spacerW := max(0, lay.contentW-lipgloss.Width(left)-lipgloss.Width(hover))
	right := lipgloss.Place(spacerW+lipgloss.Width(hover), 1, lipgloss.Right, lipgloss.Center, hover)
	footer := lipgloss.NewStyle().Width(lay.contentW).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(lay.contentW).Height(m.height).Render(ui)
}

// detailsOverlay renders the details panel for the selected building,
// vertically centered on the left edge of the map.
func (m Model) detailsOverlay(lay layout) (*overlay, bool) {
	if !m.showDetails || m.showAttrs {
		return nil, false
	}
	e, ok := m.scene.Selected(m.store)
	if !ok {
		return nil, false
	}
	maxW := max(24, min(48, lay.mapW*2/3))
	box := popupStyle.MaxWidth(maxW).Render(detailsText(e))
	lines := strings.Split(box, "\n")
	if len(lines) > lay.mapH {
		lines = lines[:lay.mapH]
	}
	return &overlay{
		lines: lines,
		w:     min(lipgloss.Width(box), lay.mapW),
		top:   (lay.mapH - len(lines)) / 2,
	}, true
}

// detailsText is the details panel for one building.
func detailsText(e scene.Entity) string {
	b := e.Building
	lines := []string{
		headingStyle.Render("Building Details"),
		"ID: " + b.ID,
		"Address: " + b.AddressOr(addressPlaceholder),
		"Height: " + strconv.FormatFloat(b.Height, 'f', -1, 64) + " m",
	}
	if b.Stage != "" {
		lines = append(lines, "Stage: "+b.Stage)
	}
	lines = append(lines, dimStyle.Render("esc to close"))
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"click select",
		"esc clear",
		"↑↓←→ pan",
		"+/- zoom",
		"[/] tilt",
		"Tab files",
		"a table",
		"d details",
		"o outline",
		"r reload",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
