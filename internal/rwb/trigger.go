package rwb

import (
	"context"
	"time"

	"rwb-go/internal/model"
)

// Trigger owns the watcher and dispatcher and serializes reconciliation
// passes. A pass runs on every poll tick and on every Notify call; passes
// never overlap. Poll ticks arriving mid-pass are coalesced by the ticker;
// Notify calls arriving mid-pass queue at most one extra pass.
type Trigger struct {
	watcher    *Watcher
	dispatcher *Dispatcher
	interval   time.Duration
	notify     chan struct{}
	logger     Logger
}

// NewTrigger creates a Trigger polling at the given interval. A
// non-positive interval falls back to one minute so Run's ticker is
// always valid.
func NewTrigger(watcher *Watcher, dispatcher *Dispatcher, interval time.Duration, logger Logger) *Trigger {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Trigger{
		watcher:    watcher,
		dispatcher: dispatcher,
		interval:   interval,
		notify:     make(chan struct{}, 1),
		logger:     logger,
	}
}

// Notify requests a reconciliation pass. Non-blocking: if a pass is already
// pending the signal is absorbed.
func (t *Trigger) Notify() {
	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// Run drives reconciliation until ctx is cancelled.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-t.notify:
		}
		t.RunOnce()
	}
}

// RunOnce executes one reconciliation pass and dispatches its events.
// Events accumulated before a mid-pass persistence failure are still
// dispatched; the failed rows are re-diffed on the next pass.
func (t *Trigger) RunOnce() []model.ChangeEvent {
	events, err := t.watcher.Reconcile()
	if err != nil {
		t.logger.Error("reconciliation failed", "error", err)
	}
	if len(events) > 0 {
		t.dispatcher.Dispatch(events)
	}
	return events
}
