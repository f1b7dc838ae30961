package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SystemManagerStats provides statistics about system execution.
type SystemManagerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	TotalFailures   int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       int
	ExecutionCount int64
	FailureCount   int64
	LastError      error
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	failureCount   int64
	lastError      error
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration, err error) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
	if err != nil {
		s.failureCount++
		s.lastError = err
	}
}

// SystemError reports a system that failed during a tick.
type SystemError struct {
	System string
	Tick   uint64
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system %s failed on tick %d: %v", e.System, e.Tick, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// CommandsSystemName is the SystemError.System value used for failures while flushing Commands.
const CommandsSystemName = "commands"

type systemEntry struct {
	system    System
	name      string
	priority  int
	seq       uint64
	signature Signature
	stats     systemStatsInternal
}

type pendingChange struct {
	system     System
	priority   int
	unregister bool
}

// SystemManager keeps systems ordered by priority (lower runs first, ties in registration
// order) and runs them once per Tick.
type SystemManager struct {
	entities *EntityManager
	entries  []*systemEntry
	seq      uint64
	ticks    uint64
	ticking  bool
	pending  []pendingChange
	commands *Commands
	log      *zap.Logger
}

// NewSystemManager creates a SystemManager running systems against entities.
func NewSystemManager(entities *EntityManager, opts ...Option) *SystemManager {
	o := buildOptions(opts)
	return &SystemManager{
		entities: entities,
		entries:  make([]*systemEntry, 0),
		commands: newCommands(),
		log:      o.logger,
	}
}

// Register adds a system with the given priority and initializes its View fields.
// Registering a system that is already present moves it to the new priority as if it were
// registered for the first time. Calls made during Tick are applied after the tick completes.
// Systems must be comparable values, normally pointers.
func (m *SystemManager) Register(system System, priority int) {
	if system == nil {
		panic("cannot register a nil system")
	}
	if !reflect.TypeOf(system).Comparable() {
		panic("system " + systemName(system) + " is not comparable; register a pointer")
	}
	if m.ticking {
		m.pending = append(m.pending, pendingChange{system: system, priority: priority})
		return
	}
	m.register(system, priority)
}

// Unregister removes a system. Removing a system that is not registered is a no-op.
// Calls made during Tick are applied after the tick completes.
func (m *SystemManager) Unregister(system System) {
	if m.ticking {
		m.pending = append(m.pending, pendingChange{system: system, unregister: true})
		return
	}
	m.unregister(system)
}

// Contains reports whether system is registered. Pending changes are not considered.
func (m *SystemManager) Contains(system System) bool {
	return m.indexOf(system) >= 0
}

// Len returns the number of registered systems.
func (m *SystemManager) Len() int {
	return len(m.entries)
}

// Systems returns the registered systems in execution order.
func (m *SystemManager) Systems() []System {
	systems := make([]System, len(m.entries))
	for i, e := range m.entries {
		systems[i] = e.system
	}
	return systems
}

// Tick executes every registered system once in priority order, flushes the command buffer
// and then applies registration changes requested during the tick. Failing systems are logged
// and returned; they never prevent the remaining systems from running.
func (m *SystemManager) Tick(dt float64) []*SystemError {
	if m.ticking {
		m.log.Warn("ignoring re-entrant tick", zap.Uint64("tick", m.ticks))
		return nil
	}
	m.ticking = true
	defer func() { m.ticking = false }()
	m.ticks++
	frame := newUpdateFrame(dt, m.ticks, m.entities, m.commands, m)

	var failures []*SystemError
	for _, e := range m.entries {
		frame.Matches = m.entities.Query(e.signature)

		start := time.Now()
		err := m.execute(e.system, frame)
		e.stats.record(time.Since(start), err)

		if err != nil {
			failures = append(failures, &SystemError{System: e.name, Tick: m.ticks, Err: err})
			m.log.Error("system failed",
				zap.String("system", e.name),
				zap.Uint64("tick", m.ticks),
				zap.Error(err))
		}
	}

	if err := m.commands.Flush(m.entities); err != nil {
		failures = append(failures, &SystemError{System: CommandsSystemName, Tick: m.ticks, Err: err})
		m.log.Error("flushing commands failed", zap.Uint64("tick", m.ticks), zap.Error(err))
	}

	m.ticking = false
	m.applyPending()
	return failures
}

// Ticks returns the number of completed ticks.
func (m *SystemManager) Ticks() uint64 {
	return m.ticks
}

func (m *SystemManager) execute(system System, frame *UpdateFrame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSystemPanic, r)
		}
	}()
	return system.Execute(frame)
}

func (m *SystemManager) applyPending() {
	pending := m.pending
	m.pending = nil
	for _, change := range pending {
		if change.unregister {
			m.unregister(change.system)
		} else {
			m.register(change.system, change.priority)
		}
	}
}

func (m *SystemManager) register(system System, priority int) {
	m.unregister(system)
	m.initializeViews(system)

	m.seq++
	entry := &systemEntry{
		system:    system,
		name:      systemName(system),
		priority:  priority,
		seq:       m.seq,
		signature: system.Signature(m.entities.Registry()),
		stats: systemStatsInternal{
			minDuration: time.Duration(1<<63 - 1),
		},
	}

	// The new entry has the highest sequence number, so it goes after every
	// entry of equal priority.
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].priority > priority
	})
	m.entries = append(m.entries, nil)
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry

	m.log.Debug("system registered",
		zap.String("system", entry.name),
		zap.Int("priority", priority),
		zap.Int("position", i))
}

func (m *SystemManager) unregister(system System) {
	i := m.indexOf(system)
	if i < 0 {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
}

func (m *SystemManager) indexOf(system System) int {
	for i, e := range m.entries {
		if e.system == system {
			return i
		}
	}
	return -1
}

func (m *SystemManager) initializeViews(system System) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return
	}

	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		if strings.HasPrefix(field.Type().Name(), "View[") {
			initMethod := field.Addr().MethodByName("Init")
			if !initMethod.IsValid() {
				panic("Init method not found on View field: " + fieldType.Name)
			}

			initMethod.Call([]reflect.Value{
				reflect.ValueOf(m.entities),
			})
		}
	}
}

// Stats returns statistics about system execution, in execution order.
func (m *SystemManager) Stats() *SystemManagerStats {
	stats := &SystemManagerStats{
		SystemCount: len(m.entries),
		Ticks:       m.ticks,
		Systems:     make([]SystemStats, len(m.entries)),
	}

	for i, e := range m.entries {
		internal := &e.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           e.name,
			Priority:       e.priority,
			ExecutionCount: internal.executionCount,
			FailureCount:   internal.failureCount,
			LastError:      internal.lastError,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
		stats.TotalFailures += internal.failureCount
	}

	return stats
}

// SystemName returns the name a system is reported under: its Name method if it implements
// Named, otherwise its type name.
func SystemName(system System) string {
	return systemName(system)
}

func systemName(system System) string {
	if named, ok := system.(Named); ok {
		return named.Name()
	}
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}
