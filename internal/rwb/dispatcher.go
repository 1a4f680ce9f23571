package rwb

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"rwb-go/internal/model"
)

// Dispatcher fans change events out to matching active webhooks.
// Delivery is best effort: one attempt per subscription, failures logged
// and dropped. Deliveries to distinct subscriptions run concurrently.
type Dispatcher struct {
	webhooks WebhookStore
	client   *http.Client
	logger   Logger
	clock    Clock
}

// NewDispatcher creates a Dispatcher. If client is nil a default client
// with a 10 second timeout is used.
func NewDispatcher(webhooks WebhookStore, client *http.Client, logger Logger, clock Clock) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Dispatcher{
		webhooks: webhooks,
		client:   client,
		logger:   logger,
		clock:    clock,
	}
}

// payloadSnapshot is the wire form of a snapshot inside a delivery body.
type payloadSnapshot struct {
	ReminderID  string     `json:"reminderID"`
	Title       string     `json:"title"`
	ListName    string     `json:"listName"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
}

// deliveryPayload is the JSON body POSTed to a webhook URL.
type deliveryPayload struct {
	Event         string           `json:"event"`
	Timestamp     time.Time        `json:"timestamp"`
	Reminder      payloadSnapshot  `json:"reminder"`
	PreviousState *payloadSnapshot `json:"previousState"`
}

func toPayloadSnapshot(s model.Snapshot) payloadSnapshot {
	return payloadSnapshot{
		ReminderID:  s.ReminderID,
		Title:       s.Title,
		ListName:    s.ListName,
		IsCompleted: s.IsCompleted,
		DueDate:     s.DueDate,
	}
}

// Dispatch delivers a batch of change events. With no active webhooks it
// returns immediately without any per-event work. It blocks until every
// matching delivery attempt has finished.
func (d *Dispatcher) Dispatch(events []model.ChangeEvent) {
	if len(events) == 0 {
		return
	}

	hooks, err := d.webhooks.ListActiveWebhooks()
	if err != nil {
		d.logger.Error("listing active webhooks", "error", err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ev := range events {
		for i := range hooks {
			hook := hooks[i]
			if !matches(&hook, ev) {
				continue
			}

			payload := deliveryPayload{
				Event:     "reminder." + string(ev.Kind),
				Timestamp: d.clock.Now(),
				Reminder:  toPayloadSnapshot(ev.Reminder),
			}
			if ev.Previous != nil {
				prev := toPayloadSnapshot(*ev.Previous)
				payload.PreviousState = &prev
			}

			wg.Add(1)
			go func(hook model.Webhook, payload deliveryPayload) {
				defer wg.Done()
				d.deliver(&hook, payload)
			}(hook, payload)
		}
	}
	wg.Wait()
}

// SendTest delivers a synthetic test payload to a single webhook and
// reports whether the endpoint answered with a 2xx status.
func (d *Dispatcher) SendTest(hook *model.Webhook) bool {
	payload := deliveryPayload{
		Event:     "webhook.test",
		Timestamp: d.clock.Now(),
		Reminder: payloadSnapshot{
			ReminderID: "test-reminder",
			Title:      "Test reminder",
			ListName:   "Reminders",
		},
	}
	return d.deliver(hook, payload)
}

// matches applies the conjunctive filter: subscribed kind AND reminder
// filter (if set) AND list filter (if set).
func matches(hook *model.Webhook, ev model.ChangeEvent) bool {
	if !hook.SubscribesTo(ev.Kind) {
		return false
	}
	if hook.ReminderID != "" && hook.ReminderID != ev.Reminder.ReminderID {
		return false
	}
	if hook.ListName != "" && hook.ListName != ev.Reminder.ListName {
		return false
	}
	return true
}

// deliver POSTs a payload to one webhook. A single attempt, no retry.
func (d *Dispatcher) deliver(hook *model.Webhook, payload deliveryPayload) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("marshaling webhook payload", "webhook", hook.ID, "error", err)
		return false
	}

	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("building webhook request", "webhook", hook.ID, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", payload.Event)
	if hook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(hook.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook delivery failed", "webhook", hook.ID, "url", hook.URL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Warn("webhook delivery rejected", "webhook", hook.ID, "url", hook.URL, "status", resp.StatusCode)
		return false
	}

	d.logger.Debug("webhook delivered", "webhook", hook.ID, "event", payload.Event)
	return true
}
