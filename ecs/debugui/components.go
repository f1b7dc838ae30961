package debugui

import (
	"github.com/plus3/tickworks/ecs"
)

// EntityBrowser lists live entities and reports row selection as a UI event.
type EntityBrowser struct {
	rows         []EntityRow
	lastLen      int
	filterText   string
	sortColumn   int
	sortDesc     bool
	pageSize     int
	currentPage  int
	selected     ecs.EntityId
	refreshEvery int
	sinceRefresh int
}

// ComponentInspector shows the components of the selected entity and posts edits as
// UI events.
type ComponentInspector struct {
	Selected ecs.EntityId
}

// PerformanceStats plots frame times and per-system durations.
type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

// QueryDebugger counts the entities matching a set of component types picked by name.
type QueryDebugger struct {
	selected map[string]bool
}

// RegisterComponents registers every component type used by the debug windows.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[ImguiInputState](registry)
	ecs.RegisterComponent[EntityBrowser](registry)
	ecs.RegisterComponent[ComponentInspector](registry)
	ecs.RegisterComponent[PerformanceStats](registry)
	ecs.RegisterComponent[QueryDebugger](registry)
}
