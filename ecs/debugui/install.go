package debugui

import (
	"fmt"

	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/ui"
)

// Install spawns the debug windows as ImguiItem entities, binds the browser and inspector
// widgets on uiMgr and registers an ImguiSystem at priority. RegisterComponents must have
// been called on the entity manager's registry.
func Install(entities *ecs.EntityManager, systems *ecs.SystemManager, uiMgr *ui.Manager, priority int) (*ImguiSystem, error) {
	sys := &ImguiSystem{}

	browser, err := ecs.Spawn(entities, NewEntityBrowser(100))
	if err != nil {
		return nil, fmt.Errorf("spawn entity browser: %w", err)
	}
	inspector, err := ecs.Spawn(entities, ComponentInspector{})
	if err != nil {
		return nil, fmt.Errorf("spawn component inspector: %w", err)
	}
	stats, err := ecs.Spawn(entities, NewPerformanceStats(120))
	if err != nil {
		return nil, fmt.Errorf("spawn performance stats: %w", err)
	}
	query, err := ecs.Spawn(entities, NewQueryDebugger())
	if err != nil {
		return nil, fmt.Errorf("spawn query debugger: %w", err)
	}

	// Windows render in this order, which is also the order they were spawned in.
	windows := []struct {
		id     ecs.EntityId
		render func()
	}{
		{browser, func() {
			if eb, err := ecs.Get[EntityBrowser](entities, browser); err == nil {
				eb.Render(entities, uiMgr)
			}
		}},
		{inspector, func() {
			if ci, err := ecs.Get[ComponentInspector](entities, inspector); err == nil {
				ci.Render(entities, uiMgr)
			}
		}},
		{stats, func() {
			if ps, err := ecs.Get[PerformanceStats](entities, stats); err == nil {
				ps.Render(entities, systems, sys.deltaTime)
			}
		}},
		{query, func() {
			if qd, err := ecs.Get[QueryDebugger](entities, query); err == nil {
				qd.Render(entities)
			}
		}},
	}
	for _, w := range windows {
		if err := ecs.Add(entities, w.id, ImguiItem{Render: w.render}); err != nil {
			return nil, err
		}
	}

	uiMgr.Bind(EntityBrowserWidget, inspector, SelectHandler)
	uiMgr.Bind(InspectorWidget, inspector, InspectorHandler)
	systems.Register(sys, priority)
	return sys, nil
}
