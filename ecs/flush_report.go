package ecs

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FlushReport summarises one batch of externally queued events applied to the entity tables.
type FlushReport struct {
	// Events is the number of queued events drained.
	Events int
	// Applied is the number of mutations that succeeded.
	Applied int
	// Dropped counts events with no binding plus mutations that failed.
	Dropped int
	Errors  []error
}

// Err combines Errors into a single error, or nil when nothing was dropped.
func (r FlushReport) Err() error {
	return multierr.Combine(r.Errors...)
}

// Drop records a dropped event or mutation and logs it at warn level.
func (r *FlushReport) Drop(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	r.Dropped++
	r.Errors = append(r.Errors, err)
	log.Warn(msg, append(fields, zap.Error(err))...)
}

// ApplyBatch applies mutations in order, recording each outcome in report. A failing
// mutation is dropped and never stops the rest of the batch. A panicking Update is
// recorded as ErrSystemPanic.
func (m *EntityManager) ApplyBatch(mutations []Mutation, report *FlushReport, log *zap.Logger) {
	for _, mu := range mutations {
		var err error
		if perr := protect(func() { err = m.Apply(mu) }); perr != nil {
			err = perr
		}
		if err != nil {
			report.Drop(log, "dropping mutation", err,
				zap.Stringer("kind", mu.Kind),
				zap.Stringer("target", mu.Target))
			continue
		}
		report.Applied++
	}
}
