package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/ui"
)

// EntityBrowserWidget is the UIManager widget name used for row selection events.
const EntityBrowserWidget = "debugui.entity_browser"

// EntityRow is one line of the entity browser.
type EntityRow struct {
	ID         ecs.EntityId
	Components []string
}

const (
	sortByID = iota
	sortByComponents
	sortByCount
)

func NewEntityBrowser(pageSize int) EntityBrowser {
	if pageSize <= 0 {
		pageSize = 100
	}
	return EntityBrowser{
		pageSize:     pageSize,
		lastLen:      -1,
		refreshEvery: 30,
	}
}

// Refresh rebuilds the row cache from the live entities when the entity count changed or the
// refresh interval elapsed.
func (eb *EntityBrowser) Refresh(entities *ecs.EntityManager) {
	eb.sinceRefresh++
	if eb.lastLen == entities.Len() && eb.sinceRefresh < eb.refreshEvery {
		return
	}
	eb.sinceRefresh = 0
	eb.lastLen = entities.Len()

	eb.rows = eb.rows[:0]
	for id := range entities.Query(ecs.Signature{}) {
		names, err := entities.Components(id)
		if err != nil {
			continue
		}
		eb.rows = append(eb.rows, EntityRow{ID: id, Components: names})
	}
	eb.sortRows()
}

// SortBy orders rows by column 0 (id), 1 (component names) or 2 (component count).
func (eb *EntityBrowser) SortBy(column int, descending bool) {
	eb.sortColumn = column
	eb.sortDesc = descending
	eb.sortRows()
}

func (eb *EntityBrowser) sortRows() {
	sort.SliceStable(eb.rows, func(i, j int) bool {
		a, b := eb.rows[i], eb.rows[j]
		if eb.sortDesc {
			a, b = b, a
		}
		switch eb.sortColumn {
		case sortByComponents:
			return strings.Join(a.Components, ",") < strings.Join(b.Components, ",")
		case sortByCount:
			return len(a.Components) < len(b.Components)
		default:
			return a.ID.Index() < b.ID.Index()
		}
	})
}

// SetFilter keeps only rows whose id or component names contain text, ignoring case.
func (eb *EntityBrowser) SetFilter(text string) {
	eb.filterText = text
	eb.currentPage = 0
}

// Rows returns the filtered rows in display order.
func (eb *EntityBrowser) Rows() []EntityRow {
	if eb.filterText == "" {
		return eb.rows
	}

	filter := strings.ToLower(eb.filterText)
	filtered := make([]EntityRow, 0, len(eb.rows))
	for _, row := range eb.rows {
		if strings.Contains(row.ID.String(), filter) ||
			strings.Contains(strings.ToLower(strings.Join(row.Components, " ")), filter) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// Page returns the rows of the current page and the total page count.
func (eb *EntityBrowser) Page() ([]EntityRow, int) {
	rows := eb.Rows()
	pages := (len(rows) + eb.pageSize - 1) / eb.pageSize
	if eb.currentPage >= pages {
		eb.currentPage = max(pages-1, 0)
	}
	start := eb.currentPage * eb.pageSize
	end := min(start+eb.pageSize, len(rows))
	return rows[start:end], pages
}

// Select marks id as selected and posts a select event for the inspector.
func (eb *EntityBrowser) Select(id ecs.EntityId, uiMgr *ui.Manager) {
	eb.selected = id
	uiMgr.Post(ui.Event{Widget: EntityBrowserWidget, Kind: "select", Value: id})
}

func (eb *EntityBrowser) Selected() ecs.EntityId {
	return eb.selected
}

func (eb *EntityBrowser) Render(entities *ecs.EntityManager, uiMgr *ui.Manager) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.Refresh(entities)

	filter := eb.filterText
	if imgui.InputTextWithHint("##search", "Search...", &filter, imgui.InputTextFlagsNone, nil) {
		eb.SetFilter(filter)
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.SetFilter("")
	}

	rows, pages := eb.Page()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionDescending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.ID.String(), eb.selected == row.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.Select(row.ID, uiMgr)
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.Components, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(row.Components)))
		}

		imgui.EndTable()
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, pages, len(eb.Rows())))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < pages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(eb.Rows())))
	}

	imgui.End()
}
