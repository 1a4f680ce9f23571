package model

import "time"

// Priority is the ordinal priority of a reminder.
// The zero value means no priority is set.
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 5
	PriorityLow    Priority = 9
)

// Reminder is an item read from the item store. The item store owns it;
// the rest of the system only reads and writes through the store interface.
type Reminder struct {
	ID          string // Stable identifier assigned by the item store
	Title       string
	ListName    string
	IsCompleted bool
	DueDate     *time.Time // nil when no due date is set
	Notes       string
	Priority    Priority
	Recurrence  string // Recurrence rule, empty when the reminder does not repeat
}

// Snapshot is the last-observed state of one reminder plus its checksum.
// One row per reminder ID; exclusively written by the watcher.
type Snapshot struct {
	ReminderID  string // Primary key, assigned by the item store
	Title       string
	ListName    string
	IsCompleted bool
	DueDate     *time.Time
	Checksum    string    // Fingerprint of (Title, ListName, IsCompleted, DueDate)
	LastSeen    time.Time // Refreshed on every write
}

// ChangeKind classifies a single reminder transition.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeUpdated   ChangeKind = "updated"
	ChangeCompleted ChangeKind = "completed"
	ChangeDeleted   ChangeKind = "deleted"
)

// ChangeEvent is produced by one reconciliation pass and consumed
// immediately by the dispatcher. It is never persisted.
type ChangeEvent struct {
	Kind     ChangeKind
	Reminder Snapshot  // New state; for deletions this is the last stored state
	Previous *Snapshot // nil for created events
}

// Webhook is a registered delivery target with its filters.
// If both ReminderID and ListName filters are set, an event must match both.
type Webhook struct {
	ID         string // UUID
	URL        string
	Secret     string   // Empty when deliveries are unsigned
	ReminderID string   // Optional filter; empty matches any reminder
	ListName   string   // Optional filter; empty matches any list
	Events     []string // Subscribed change kinds
	Active     bool
	CreatedAt  time.Time
}

// SubscribesTo reports whether kind is in the webhook's subscribed set.
func (w *Webhook) SubscribesTo(kind ChangeKind) bool {
	for _, e := range w.Events {
		if e == string(kind) {
			return true
		}
	}
	return false
}
