package rwb

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"rwb-go/internal/model"
)

// ErrNotFound marks lookups for IDs that do not exist. The HTTP layer maps
// it to a 404.
var ErrNotFound = errors.New("not found")

// ErrInvalid marks rejected input. The HTTP layer maps it to a 400.
var ErrInvalid = errors.New("invalid")

// allKinds is the default subscription set for new webhooks.
var allKinds = []string{
	string(model.ChangeCreated),
	string(model.ChangeUpdated),
	string(model.ChangeCompleted),
	string(model.ChangeDeleted),
}

// Service is the orchestration layer between the HTTP API and the stores.
// Item-store mutations signal the change trigger so the watcher picks them
// up without waiting for the next poll.
type Service struct {
	items      ItemStore
	webhooks   WebhookStore
	dispatcher *Dispatcher
	logger     Logger
	clock      Clock
	idgen      IDGenerator
	notify     func()
}

// NewService creates a Service. notify may be nil when no trigger is wired
// (one-shot CLI runs, tests).
func NewService(items ItemStore, webhooks WebhookStore, dispatcher *Dispatcher, logger Logger, clock Clock, idgen IDGenerator, notify func()) *Service {
	return &Service{
		items:      items,
		webhooks:   webhooks,
		dispatcher: dispatcher,
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
		notify:     notify,
	}
}

func (s *Service) changed() {
	if s.notify != nil {
		s.notify()
	}
}

// Reminder operations

// ListReminders returns all reminders, optionally filtered to one list.
func (s *Service) ListReminders(listName string) ([]model.Reminder, error) {
	reminders, err := s.items.List()
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	if listName == "" {
		return reminders, nil
	}

	filtered := reminders[:0:0]
	for _, r := range reminders {
		if r.ListName == listName {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetReminder returns a single reminder by ID.
func (s *Service) GetReminder(id string) (*model.Reminder, error) {
	r, err := s.items.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting reminder: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// CreateReminder validates and inserts a new reminder, then signals the
// trigger.
func (s *Service) CreateReminder(r model.Reminder) (*model.Reminder, error) {
	if r.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalid)
	}
	if r.ListName == "" {
		r.ListName = "Reminders"
	}
	r.ID = s.idgen.New()

	created, err := s.items.Create(r)
	if err != nil {
		return nil, fmt.Errorf("creating reminder: %w", err)
	}

	s.logger.Info("reminder created", "id", created.ID, "list", created.ListName)
	s.changed()
	return created, nil
}

// ReminderPatch carries partial updates. nil fields are left unchanged.
// ClearDueDate removes the due date; it wins over DueDate when both are set.
// An empty ListName falls back to the default list, as on create.
type ReminderPatch struct {
	Title        *string
	ListName     *string
	Notes        *string
	Priority     *model.Priority
	Recurrence   *string
	DueDate      *time.Time
	ClearDueDate bool
}

// UpdateReminder applies a patch to an existing reminder and signals the
// trigger.
func (s *Service) UpdateReminder(id string, patch ReminderPatch) (*model.Reminder, error) {
	existing, err := s.GetReminder(id)
	if err != nil {
		return nil, err
	}

	r := *existing
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", ErrInvalid)
		}
		r.Title = *patch.Title
	}
	if patch.ListName != nil {
		r.ListName = *patch.ListName
		if r.ListName == "" {
			r.ListName = "Reminders"
		}
	}
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}
	if patch.Priority != nil {
		r.Priority = *patch.Priority
	}
	if patch.Recurrence != nil {
		r.Recurrence = *patch.Recurrence
	}
	if patch.ClearDueDate {
		r.DueDate = nil
	} else if patch.DueDate != nil {
		r.DueDate = patch.DueDate
	}

	updated, err := s.items.Update(r)
	if err != nil {
		return nil, fmt.Errorf("updating reminder: %w", err)
	}

	s.changed()
	return updated, nil
}

// DeleteReminder removes a reminder and signals the trigger.
func (s *Service) DeleteReminder(id string) error {
	if _, err := s.GetReminder(id); err != nil {
		return err
	}
	if err := s.items.Delete(id); err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	s.logger.Info("reminder deleted", "id", id)
	s.changed()
	return nil
}

// SetCompleted marks a reminder complete or incomplete and signals the
// trigger.
func (s *Service) SetCompleted(id string, completed bool) (*model.Reminder, error) {
	existing, err := s.GetReminder(id)
	if err != nil {
		return nil, err
	}

	r := *existing
	r.IsCompleted = completed
	updated, err := s.items.Update(r)
	if err != nil {
		return nil, fmt.Errorf("updating reminder: %w", err)
	}

	s.changed()
	return updated, nil
}

// Lists returns the distinct list names in use.
func (s *Service) Lists() ([]string, error) {
	lists, err := s.items.Lists()
	if err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}
	return lists, nil
}

// Webhook operations

// WebhookParams is the input for registering a webhook.
type WebhookParams struct {
	URL        string
	Secret     string
	ReminderID string
	ListName   string
	Events     []string
}

// CreateWebhook validates the target URL and event kinds and registers a
// new active webhook. An empty event set subscribes to all change kinds.
func (s *Service) CreateWebhook(params WebhookParams) (*model.Webhook, error) {
	u, err := url.Parse(params.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook URL must be a valid http(s) URL: %w", ErrInvalid)
	}

	events := params.Events
	if len(events) == 0 {
		events = append([]string(nil), allKinds...)
	}
	for _, e := range events {
		if !validKind(e) {
			return nil, fmt.Errorf("unknown event kind %q: %w", e, ErrInvalid)
		}
	}

	hook := model.Webhook{
		ID:         s.idgen.New(),
		URL:        params.URL,
		Secret:     params.Secret,
		ReminderID: params.ReminderID,
		ListName:   params.ListName,
		Events:     events,
		Active:     true,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.webhooks.CreateWebhook(hook); err != nil {
		return nil, fmt.Errorf("creating webhook: %w", err)
	}

	s.logger.Info("webhook registered", "id", hook.ID, "url", hook.URL)
	return &hook, nil
}

// ListWebhooks returns every registered webhook.
func (s *Service) ListWebhooks() ([]model.Webhook, error) {
	hooks, err := s.webhooks.ListWebhooks()
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	return hooks, nil
}

// GetWebhook returns a webhook by ID.
func (s *Service) GetWebhook(id string) (*model.Webhook, error) {
	hook, err := s.webhooks.GetWebhook(id)
	if err != nil {
		return nil, fmt.Errorf("getting webhook: %w", err)
	}
	if hook == nil {
		return nil, fmt.Errorf("webhook %s: %w", id, ErrNotFound)
	}
	return hook, nil
}

// DeleteWebhook removes a webhook.
func (s *Service) DeleteWebhook(id string) error {
	if _, err := s.GetWebhook(id); err != nil {
		return err
	}
	if err := s.webhooks.DeleteWebhook(id); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	s.logger.Info("webhook deleted", "id", id)
	return nil
}

// ToggleWebhook flips a webhook's active flag and returns the new state.
func (s *Service) ToggleWebhook(id string) (*model.Webhook, error) {
	hook, err := s.GetWebhook(id)
	if err != nil {
		return nil, err
	}
	if err := s.webhooks.SetWebhookActive(id, !hook.Active); err != nil {
		return nil, fmt.Errorf("toggling webhook: %w", err)
	}
	hook.Active = !hook.Active
	return hook, nil
}

// TestWebhook sends a synthetic test delivery to the webhook and reports
// whether the endpoint accepted it.
func (s *Service) TestWebhook(id string) (bool, error) {
	hook, err := s.GetWebhook(id)
	if err != nil {
		return false, err
	}
	return s.dispatcher.SendTest(hook), nil
}

func validKind(kind string) bool {
	for _, k := range allKinds {
		if k == kind {
			return true
		}
	}
	return false
}
