package tui

import (
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
)

func buildingColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "ID", Width: 12},
		{Title: "Height (m)", Width: 10},
		{Title: "Address", Width: 28},
		{Title: "Stage", Width: 10},
	}
}

// refreshAttrs rebuilds the building table from the scene and moves the
// cursor to the selected building. The table is read-only.
func (m *Model) refreshAttrs() {
	var rows []table.Row
	cursor := -1
	if m.scene != nil {
		rows = make([]table.Row, 0, m.scene.Len())
		for i, e := range m.scene.Entities {
			mark := strconv.Itoa(i + 1)
			if m.store.IsSelected(e.ID()) {
				mark = "● " + mark
				cursor = i
			}
			rows = append(rows, table.Row{
				mark,
				e.Building.ID,
				strconv.FormatFloat(e.Building.Height, 'f', -1, 64),
				e.Building.AddressOr(addressPlaceholder),
				e.Building.Stage,
			})
		}
	}
	// clear rows before columns so the table never sees a width mismatch
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(buildingColumns())
	m.tbl.SetRows(rows)
	if cursor >= 0 {
		m.tbl.SetCursor(cursor)
	}
}
