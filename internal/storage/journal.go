package storage

import (
	"context"
	"log/slog"

	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/model"
)

// Journal turns a stream of snapshots into run history rows.
type Journal struct {
	store   RunStore
	log     *slog.Logger
	current model.TimerState
	started model.TimerState
}

func NewJournal(store RunStore, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	return &Journal{store: store, log: log}
}

// Observe feeds one snapshot and returns the run that just ended, if any.
func (j *Journal) Observe(next model.TimerState) (Run, bool) {
	prev := j.current
	j.current = next

	if next.RunID != "" && next.RunID != j.started.RunID {
		ended, ok := j.finish(prev, OutcomeReset)
		j.started = next
		return ended, ok
	}
	switch {
	case next.Phase == model.PhaseCompleted && prev.Phase != model.PhaseCompleted:
		return j.finish(next, OutcomeCompleted)
	case next.Phase == model.PhaseIdle && prev.Phase.Active():
		prev.UpdatedAt = next.UpdatedAt
		return j.finish(prev, OutcomeReset)
	}
	return Run{}, false
}

func (j *Journal) finish(last model.TimerState, outcome string) (Run, bool) {
	if j.started.RunID == "" || last.RunID != j.started.RunID {
		return Run{}, false
	}
	run := Run{
		ID:        j.started.RunID,
		Work:      last.Config.Work,
		Cycles:    last.Config.Cycles,
		Sets:      last.Config.Sets,
		Prepare:   last.Config.Prepare,
		Elapsed:   last.Elapsed,
		Outcome:   outcome,
		StartedAt: j.started.UpdatedAt,
		EndedAt:   last.UpdatedAt,
	}
	j.started = model.TimerState{}
	return run, true
}

// Run records every ended run from updates until the channel closes. A run
// still active at that point is recorded as closed.
func (j *Journal) Run(ctx context.Context, updates <-chan model.TimerState) {
	for s := range updates {
		if run, ok := j.Observe(s); ok {
			j.record(ctx, run)
		}
	}
	if j.current.Phase.Active() {
		if run, ok := j.finish(j.current, OutcomeClosed); ok {
			j.record(ctx, run)
		}
	}
}

func (j *Journal) record(ctx context.Context, run Run) {
	if err := j.store.RecordRun(ctx, run); err != nil {
		j.log.Warn("record run failed", logfields.RunID(run.ID), logfields.Error(err))
		return
	}
	j.log.Debug("run recorded", logfields.RunID(run.ID), slog.String("outcome", run.Outcome))
}
