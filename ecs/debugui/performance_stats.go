package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickworks/ecs"
)

func NewPerformanceStats(historyFrames int) PerformanceStats {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return PerformanceStats{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// Record adds a frame duration in seconds to the history ring.
func (ps *PerformanceStats) Record(deltaTime float64) {
	ps.frameHistory[ps.frameIndex] = float32(deltaTime * 1000.0)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean of the recorded frame durations in milliseconds.
func (ps *PerformanceStats) AverageFrameTime() float32 {
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}

func (ps *PerformanceStats) Render(entities *ecs.EntityManager, systems *ecs.SystemManager, deltaTime float64) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.Record(deltaTime)

	entityStats := entities.CollectStats()
	systemStats := systems.Stats()

	imgui.Text(fmt.Sprintf("Live Entities: %d", entityStats.LiveEntities))
	imgui.Text(fmt.Sprintf("Free Slots: %d / %d", entityStats.FreeSlots, entityStats.AllocatedSlots))
	imgui.Text(fmt.Sprintf("Systems: %d  Ticks: %d  Failures: %d", systemStats.SystemCount, systemStats.Ticks, systemStats.TotalFailures))

	avg := ps.AverageFrameTime()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Systems") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Priority")
			imgui.TableSetupColumn("Last")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Failures")
			imgui.TableHeadersRow()

			for _, s := range systemStats.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(s.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.Priority))
				imgui.TableNextColumn()
				imgui.Text(s.LastDuration.String())
				imgui.TableNextColumn()
				imgui.Text(s.AvgDuration.String())
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.FailureCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Components") {
		for _, c := range entityStats.Components {
			imgui.BulletText(fmt.Sprintf("%s: %d", c.Name, c.Count))
		}
		imgui.TreePop()
	}

	imgui.End()
}
