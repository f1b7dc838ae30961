package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickworks/ecs"
)

func NewQueryDebugger() QueryDebugger {
	return QueryDebugger{selected: make(map[string]bool)}
}

// Toggle adds or removes a component name from the query.
func (qd *QueryDebugger) Toggle(name string, on bool) {
	if on {
		qd.selected[name] = true
	} else {
		delete(qd.selected, name)
	}
}

// Selected returns the selected component names in sorted order.
func (qd *QueryDebugger) Selected() []string {
	names := make([]string, 0, len(qd.selected))
	for name := range qd.selected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match returns the entities holding every selected component type.
func (qd *QueryDebugger) Match(entities *ecs.EntityManager) ([]ecs.EntityId, error) {
	sig, err := entities.Registry().SignatureByName(qd.Selected()...)
	if err != nil {
		return nil, err
	}
	var ids []ecs.EntityId
	for id := range entities.Query(sig) {
		ids = append(ids, id)
	}
	return ids, nil
}

func (qd *QueryDebugger) Render(entities *ecs.EntityManager) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selected = make(map[string]bool)
	}

	registry := entities.Registry()
	for i := 0; i < registry.Len(); i++ {
		name := registry.Name(ecs.ComponentType(i))
		selected := qd.selected[name]
		if imgui.Checkbox(name, &selected) {
			qd.Toggle(name, selected)
		}
	}

	imgui.Separator()

	if len(qd.selected) == 0 {
		imgui.Text("No component types selected")
		return
	}

	ids, err := qd.Match(entities)
	if err != nil {
		imgui.Text(err.Error())
		return
	}
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(ids)))

	if imgui.TreeNodeStr("Entities") {
		for _, id := range ids {
			imgui.BulletText(id.String())
		}
		imgui.TreePop()
	}
}
