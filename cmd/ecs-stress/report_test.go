package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/config"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/engine"
)

func TestReportRecord(t *testing.T) {
	r := &Report{}
	r.Record(engine.TickReport{Duration: 2 * time.Millisecond, Input: ecs.FlushReport{Applied: 3, Dropped: 1}})
	r.Record(engine.TickReport{
		Duration: 4 * time.Millisecond,
		Systems:  []*ecs.SystemError{{System: "Load1", Err: errors.New("boom")}},
	})
	r.UpdateTime.Finalize()

	assert.EqualValues(t, 2, r.TotalUpdates)
	assert.Equal(t, 3, r.InputApplied)
	assert.Equal(t, 1, r.InputDropped)
	assert.Equal(t, 1, r.SystemFailures)
	assert.Equal(t, 2*time.Millisecond, r.UpdateTime.Min)
	assert.Equal(t, 4*time.Millisecond, r.UpdateTime.Max)
	assert.Equal(t, 3*time.Millisecond, r.UpdateTime.Avg)
}

func TestSlowestSystems(t *testing.T) {
	stats := []ecs.SystemStats{
		{Name: "a", AvgDuration: time.Millisecond},
		{Name: "b", AvgDuration: 3 * time.Millisecond},
		{Name: "c", AvgDuration: 2 * time.Millisecond},
	}
	top := slowestSystems(stats, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Name)
	assert.Equal(t, "c", top[1].Name)
	assert.Equal(t, "a", stats[0].Name, "input is not reordered")
}

func TestRun(t *testing.T) {
	report, err := run(config.Default(), zap.NewNop(), options{
		duration: 50 * time.Millisecond,
		entities: 200,
		systems:  5,
		seed:     1,
	})
	require.NoError(t, err)

	assert.Positive(t, report.TotalUpdates)
	assert.Len(t, report.SystemStats, 8)
	assert.Positive(t, report.EntityStats.LiveEntities)

	var out bytes.Buffer
	require.NoError(t, report.Generate(&out))
	assert.Contains(t, out.String(), "# ECS Stress Test Report")
	assert.Contains(t, out.String(), "Position:")
}
