package main

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/engine"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Entities   int
	Components int
	Systems    int

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	InputApplied   int
	InputDropped   int
	SystemFailures int
	SystemStats    []ecs.SystemStats
	EntityStats    ecs.EntityStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

// Record accumulates one engine tick.
func (r *Report) Record(tick engine.TickReport) {
	r.TotalUpdates++
	r.UpdateTime.Samples = append(r.UpdateTime.Samples, tick.Duration)
	r.InputApplied += tick.Input.Applied
	r.InputDropped += tick.Input.Dropped
	r.SystemFailures += len(tick.Systems)
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Target Entities:** {{.Entities}}
- **Component Types:** {{.Components}}
- **Load Systems:** {{.Systems}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
- **Input Mutations:** {{.InputApplied}} applied, {{.InputDropped}} dropped
- **System Failures:** {{.SystemFailures}}

## Entities
- Live: {{.EntityStats.LiveEntities}}, allocated slots: {{.EntityStats.AllocatedSlots}}, free: {{.EntityStats.FreeSlots}}
{{range .EntityStats.Components}}- {{.Name}}: {{.Count}}
{{end}}
## Slowest Systems
{{range slowest .SystemStats 5}}- {{.Name}} (priority {{.Priority}}): avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end)
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end)
- Sys Memory:     {{mb .MemStatsStart.Sys}} (start) -> {{mb .MemStatsEnd.Sys}} (end)
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
		"slowest": slowestSystems,
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

func slowestSystems(stats []ecs.SystemStats, n int) []ecs.SystemStats {
	sorted := append([]ecs.SystemStats(nil), stats...)
	slices.SortFunc(sorted, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.AvgDuration, a.AvgDuration)
	})
	return sorted[:min(n, len(sorted))]
}
