package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscape/internal/geo"
	"cityscape/internal/scene"
	"cityscape/internal/selection"
)

func block(id string, lon, lat, height float64) geo.Building {
	const d = 0.001
	return geo.Building{
		ID:        id,
		Height:    height,
		Footprint: [][2]float64{{lon, lat}, {lon + d, lat}, {lon + d, lat + d}, {lon, lat + d}},
	}
}

func newTestModel(t *testing.T, buildings ...geo.Building) (Model, *selection.Store) {
	t.Helper()
	b, err := scene.NewBuilder(scene.DefaultOptions(), nil)
	require.NoError(t, err)
	store := selection.New()
	m := New(Options{Builder: b, Store: store, Dir: t.TempDir(), Tilt: 0.5, Outline: true})
	m = update(t, m, tea.WindowSizeMsg{Width: 41, Height: 23})
	m = update(t, m, buildingsLoadedMsg{source: "test.geojson", buildings: buildings})
	return m, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func click(m Model, cx, cy int) tea.MouseMsg {
	lay := m.layout()
	return tea.MouseMsg{X: lay.mapX + cx, Y: lay.mapY + cy, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestLayout(t *testing.T) {
	m, _ := newTestModel(t)
	lay := m.layout()
	assert.Equal(t, 40, lay.mapW)
	assert.Equal(t, 20, lay.mapH)
	assert.Equal(t, 0, lay.mapX)
	assert.Equal(t, 1, lay.mapY)

	m.showSidebar = true
	lay = m.layout()
	assert.Equal(t, sidebarWidth+1, lay.mapX)
	assert.Equal(t, 12, lay.mapW)
}

func TestLoadedBuildsScene(t *testing.T) {
	m, _ := newTestModel(t, block("7", -114.064, 51.045, 55), block("8", -114.062, 51.045, 0))
	require.NotNil(t, m.Scene())
	assert.Equal(t, 1, m.Scene().Len())
	assert.Contains(t, m.status, "buildings: 1")
	assert.Contains(t, m.status, "skipped: 1")
}

func TestLoadErrorKeepsScene(t *testing.T) {
	m, _ := newTestModel(t, block("7", -114.064, 51.045, 55))
	m = update(t, m, buildingsLoadedMsg{source: "bad.geojson", err: errors.New("boom")})
	assert.Equal(t, 1, m.Scene().Len())
	assert.Contains(t, m.status, "load error: boom")
}

func TestClickSelectsBuilding(t *testing.T) {
	m, store := newTestModel(t, block("7", -114.064, 51.045, 55))

	m = update(t, m, click(m, 20, 10))
	id, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, selection.ID("7"), id)
	assert.Equal(t, "selected: 7", m.status)

	view := m.View()
	assert.Contains(t, view, "Building Details")
	assert.Contains(t, view, "ID: 7")
	assert.Contains(t, view, "Address: N/A")
	assert.Contains(t, view, "Height: 55 m")
}

func TestClickOnEmptySpaceKeepsSelection(t *testing.T) {
	m, store := newTestModel(t, block("7", -114.064, 51.045, 55))
	store.Select("7")

	m = update(t, m, click(m, 39, 0))
	assert.True(t, store.IsSelected("7"))
}

func TestClickOutsideMapIgnored(t *testing.T) {
	m, store := newTestModel(t, block("7", -114.064, 51.045, 55))
	update(t, m, tea.MouseMsg{X: 20, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestEscClearsSelection(t *testing.T) {
	m, store := newTestModel(t, block("7", -114.064, 51.045, 55))
	m = update(t, m, click(m, 20, 10))
	require.True(t, store.IsSelected("7"))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, "selection cleared", m.status)
	assert.NotContains(t, m.View(), "Building Details")
}

func TestSelectionFromOutsideShowsDetails(t *testing.T) {
	b := block("9", -114.064, 51.045, 30)
	b.Address = "1 Main St"
	b.Stage = "Existing"
	m, store := newTestModel(t, b)

	store.Select("9")
	view := m.View()
	assert.Contains(t, view, "Address: 1 Main St")
	assert.Contains(t, view, "Stage: Existing")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.NotContains(t, m.View(), "Building Details")
}

func TestHoverReportsBuilding(t *testing.T) {
	m, store := newTestModel(t, block("7", -114.064, 51.045, 55))
	m = update(t, m, tea.WindowSizeMsg{Width: 121, Height: 23})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	lay := m.layout()
	m = update(t, m, tea.MouseMsg{X: lay.mapX + lay.mapW/2, Y: lay.mapY + lay.mapH/2, Action: tea.MouseActionMotion})
	assert.True(t, m.hoverOK)
	assert.Equal(t, selection.ID("7"), m.hoverID)
	assert.Contains(t, m.View(), "building 7")
	require.True(t, m.hoverPos)
	assert.InDelta(t, -114.0635, m.hoverLon, 1e-9)
	assert.InDelta(t, 51.0455, m.hoverLat, 1e-9)
	assert.Contains(t, m.View(), "51.04550, -114.06350")

	_, ok := store.Current()
	assert.False(t, ok, "hover must not select")
}

func TestZoomKeysAndWheel(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	assert.InDelta(t, 1.2, m.zoom, 1e-9)
	m = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.InDelta(t, 1.0, m.zoom, 1e-9)
}

func TestTableTracksSelection(t *testing.T) {
	m, _ := newTestModel(t, block("1", -114.064, 51.045, 20), block("2", -114.062, 51.045, 40))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.True(t, m.showAttrs)
	require.Len(t, m.tbl.Rows(), 2)
	assert.Equal(t, "N/A", m.tbl.Rows()[0][3])

	m.store.Select("2")
	m.refreshAttrs()
	assert.Equal(t, 1, m.tbl.Cursor())
	assert.True(t, strings.HasPrefix(m.tbl.Rows()[1][0], "●"))
}

func TestRenderSceneSize(t *testing.T) {
	m, _ := newTestModel(t, block("7", -114.064, 51.045, 55))
	out := m.renderScene(30, 12, nil)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 12)
	assert.True(t, strings.ContainsRune(out, '⣿'), "solid braille cells expected")

	empty, _ := newTestModel(t)
	out = empty.renderScene(10, 3, nil)
	assert.Equal(t, strings.Repeat(" ", 10)+"\n"+strings.Repeat(" ", 10)+"\n"+strings.Repeat(" ", 10), out)
}

func TestRefreshDirListsBuildingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.geojson", "a.csv", "notes.txt", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644))
	}
	m := New(Options{Dir: dir})
	require.Len(t, m.items, 3)
	assert.Equal(t, "a.csv", m.items[0].(fileItem).Title())
	assert.Equal(t, "c.json", m.items[2].(fileItem).Title())
}

func TestLoadCmdReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.json")
	doc := `[{"id":5,"height":12,"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0.001,0.001],[0,0]]]}}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	m := New(Options{Source: path, Dir: t.TempDir()})
	cmd := m.Init()
	require.NotNil(t, cmd)
	msg, ok := cmd().(buildingsLoadedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, msg.buildings, 1)
	assert.Equal(t, "5", msg.buildings[0].ID)
}

func TestOutlineEdge(t *testing.T) {
	const n = 4
	assert.True(t, outlineEdge(0, 1, n))
	assert.True(t, outlineEdge(3, 0, n))
	assert.True(t, outlineEdge(5, 6, n))
	assert.True(t, outlineEdge(2, 6, n))
	assert.False(t, outlineEdge(0, 2, n))
	assert.False(t, outlineEdge(0, 5, n))
	assert.False(t, outlineEdge(0, 1, 0))
}

func TestFillPolygonTriangle(t *testing.T) {
	var got [][2]int
	fillPolygon([][2]int{{0, 0}, {4, 0}, {0, 4}}, 10, 10, func(x, y int) {
		got = append(got, [2]int{x, y})
	})
	assert.Contains(t, got, [2]int{0, 0})
	assert.Contains(t, got, [2]int{1, 2})
	assert.NotContains(t, got, [2]int{4, 4})
	for _, p := range got {
		assert.LessOrEqual(t, p[0]+p[1], 4)
	}
}

func TestBrailleGlyph(t *testing.T) {
	b := newBrailleBuf(2, 1)
	assert.Equal(t, ' ', b.glyph(0, 0))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			b.setPixel(x, y)
		}
	}
	b.setPixel(2, 0)
	b.setPixel(99, 99)
	assert.Equal(t, '⣿', b.glyph(0, 0))
	assert.Equal(t, '⠁', b.glyph(1, 0))
}

func TestNewDefaultsBuilderAndStore(t *testing.T) {
	m := New(Options{Dir: t.TempDir()})
	require.NotNil(t, m.builder)
	require.NotNil(t, m.store)
	assert.NotPanics(t, func() { mustDefaultBuilder() })

	m = update(t, m, buildingsLoadedMsg{source: "a.geojson", buildings: []geo.Building{block("1", -114.064, 51.045, 20)}})
	assert.Equal(t, 1, m.Scene().Len())
}
