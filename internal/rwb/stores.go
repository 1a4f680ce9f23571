package rwb

import "rwb-go/internal/model"

// ItemStore is the external system of record for reminders. The watcher
// only reads it; the HTTP layer mutates it through the Service.
type ItemStore interface {
	// List returns every reminder in the store, in store order.
	List() ([]model.Reminder, error)

	// Get returns a reminder by ID, or (nil, nil) if it does not exist.
	Get(id string) (*model.Reminder, error)

	// Create inserts a new reminder and returns it as stored.
	Create(r model.Reminder) (*model.Reminder, error)

	// Update overwrites an existing reminder's fields.
	Update(r model.Reminder) (*model.Reminder, error)

	// Delete removes a reminder. Deleting an unknown ID is an error.
	Delete(id string) error

	// Lists returns the distinct list names in use, sorted.
	Lists() ([]string, error)
}

// SnapshotStore persists the last-known state per reminder ID.
// Exclusively written by the Watcher.
type SnapshotStore interface {
	// ListSnapshots returns all snapshot rows.
	ListSnapshots() ([]model.Snapshot, error)

	// UpsertSnapshot inserts or overwrites the row for s.ReminderID.
	UpsertSnapshot(s model.Snapshot) error

	// DeleteSnapshot removes the row for the given reminder ID.
	DeleteSnapshot(reminderID string) error
}

// WebhookStore persists webhook subscriptions. Mutations happen through
// the Service; the Dispatcher only reads the active set.
type WebhookStore interface {
	// ListWebhooks returns every registered webhook.
	ListWebhooks() ([]model.Webhook, error)

	// ListActiveWebhooks returns only webhooks with the active flag set.
	ListActiveWebhooks() ([]model.Webhook, error)

	// GetWebhook returns a webhook by ID, or (nil, nil) if unknown.
	GetWebhook(id string) (*model.Webhook, error)

	// CreateWebhook inserts a new webhook.
	CreateWebhook(w model.Webhook) error

	// DeleteWebhook removes a webhook. Deleting an unknown ID is an error.
	DeleteWebhook(id string) error

	// SetWebhookActive flips the active flag for a webhook.
	SetWebhookActive(id string, active bool) error
}
