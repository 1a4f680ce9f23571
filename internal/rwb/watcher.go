package rwb

import (
	"fmt"

	"rwb-go/internal/model"
)

// Watcher reconciles the live item store against the snapshot store and
// emits one typed change event per observed transition. It is the only
// writer of the snapshot store; callers must not run two passes
// concurrently.
type Watcher struct {
	items     ItemStore
	snapshots SnapshotStore
	logger    Logger
	clock     Clock
}

// NewWatcher creates a Watcher over the given stores.
func NewWatcher(items ItemStore, snapshots SnapshotStore, logger Logger, clock Clock) *Watcher {
	return &Watcher{
		items:     items,
		snapshots: snapshots,
		logger:    logger,
		clock:     clock,
	}
}

// Reconcile runs one full pass: fetch current reminders, diff against
// stored snapshots, persist the new state, and return the change events in
// order (item-store order for created/updated/completed, deletions last).
//
// An item-store failure aborts with no writes and no events. A snapshot
// write failure aborts the remainder of the pass; events for rows already
// committed are returned alongside the error and remain valid for
// dispatch, since re-running the pass is idempotent for unchanged rows.
func (w *Watcher) Reconcile() ([]model.ChangeEvent, error) {
	current, err := w.items.List()
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}

	stored, err := w.snapshots.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	known := make(map[string]model.Snapshot, len(stored))
	for _, s := range stored {
		known[s.ReminderID] = s
	}

	var events []model.ChangeEvent
	seen := make(map[string]bool, len(current))
	now := w.clock.Now()

	for _, r := range current {
		seen[r.ID] = true

		next := model.Snapshot{
			ReminderID:  r.ID,
			Title:       r.Title,
			ListName:    r.ListName,
			IsCompleted: r.IsCompleted,
			DueDate:     r.DueDate,
			Checksum:    Checksum(r.Title, r.ListName, r.IsCompleted, r.DueDate),
			LastSeen:    now,
		}

		prev, exists := known[r.ID]
		if !exists {
			if err := w.snapshots.UpsertSnapshot(next); err != nil {
				return events, fmt.Errorf("inserting snapshot for %s: %w", r.ID, err)
			}
			events = append(events, model.ChangeEvent{Kind: model.ChangeCreated, Reminder: next})
			continue
		}

		if prev.Checksum == next.Checksum {
			// Unchanged: no event, no write.
			continue
		}

		kind := model.ChangeUpdated
		if !prev.IsCompleted && r.IsCompleted {
			kind = model.ChangeCompleted
		}

		if err := w.snapshots.UpsertSnapshot(next); err != nil {
			return events, fmt.Errorf("updating snapshot for %s: %w", r.ID, err)
		}
		prevCopy := prev
		events = append(events, model.ChangeEvent{Kind: kind, Reminder: next, Previous: &prevCopy})
	}

	// Sweep: any stored row not seen in the current list was deleted.
	// Iterating the loaded slice keeps event order deterministic.
	for _, s := range stored {
		if seen[s.ReminderID] {
			continue
		}
		if err := w.snapshots.DeleteSnapshot(s.ReminderID); err != nil {
			return events, fmt.Errorf("deleting snapshot for %s: %w", s.ReminderID, err)
		}
		prevCopy := s
		events = append(events, model.ChangeEvent{Kind: model.ChangeDeleted, Reminder: s, Previous: &prevCopy})
	}

	if len(events) > 0 {
		w.logger.Info("reconciled", "reminders", len(current), "events", len(events))
	} else {
		w.logger.Debug("reconciled, no changes", "reminders", len(current))
	}

	return events, nil
}
