package storage

import (
	"context"
	"testing"
	"time"

	"github.com/sandeepkv93/intervald/internal/model"
)

func snapshot(runID string, phase model.Phase, elapsed int, at time.Time) model.TimerState {
	return model.TimerState{
		Config:    model.Config{Work: 10, Cycles: 1, Sets: 1},
		Phase:     phase,
		Elapsed:   elapsed,
		RunID:     runID,
		UpdatedAt: at,
	}
}

func TestJournalRecordsCompletedAndResetRuns(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	updates := make(chan model.TimerState, 16)
	updates <- model.IdleState(model.DefaultConfig())
	updates <- snapshot("a", model.PhaseRunning, 0, base)
	updates <- snapshot("a", model.PhaseRunning, 5, base.Add(5*time.Second))
	updates <- snapshot("a", model.PhaseCompleted, 10, base.Add(10*time.Second))
	updates <- snapshot("b", model.PhaseRunning, 0, base.Add(time.Minute))
	updates <- snapshot("b", model.PhasePaused, 3, base.Add(time.Minute+3*time.Second))
	updates <- snapshot("", model.PhaseIdle, 0, base.Add(2*time.Minute))
	updates <- snapshot("c", model.PhaseRunning, 2, base.Add(3*time.Minute))
	close(updates)

	NewJournal(repo, nil).Run(context.Background(), updates)

	runs, err := repo.ListRuns(context.Background(), RunListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %+v", runs)
	}
	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	if a := byID["a"]; a.Outcome != OutcomeCompleted || a.Elapsed != 10 || !a.EndedAt.Equal(base.Add(10*time.Second)) {
		t.Fatalf("unexpected run a: %+v", a)
	}
	if b := byID["b"]; b.Outcome != OutcomeReset || b.Elapsed != 3 || !b.EndedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected run b: %+v", b)
	}
	if c := byID["c"]; c.Outcome != OutcomeClosed {
		t.Fatalf("unexpected run c: %+v", c)
	}
}

func TestJournalRestartFromCompletedDoesNotDuplicate(t *testing.T) {
	j := NewJournal(nil, nil)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if _, ok := j.Observe(snapshot("a", model.PhaseRunning, 0, base)); ok {
		t.Fatalf("start must not end a run")
	}
	if run, ok := j.Observe(snapshot("a", model.PhaseCompleted, 10, base.Add(10*time.Second))); !ok || run.ID != "a" {
		t.Fatalf("expected completed run a, got %+v %v", run, ok)
	}
	if _, ok := j.Observe(snapshot("b", model.PhaseRunning, 0, base.Add(time.Minute))); ok {
		t.Fatalf("starting after completion must not record run a twice")
	}
}
