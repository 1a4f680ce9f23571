package rwb_test

import (
	"errors"
	"testing"
	"time"

	"rwb-go/internal/itemstore"
	"rwb-go/internal/model"
	"rwb-go/internal/rwb"
	"rwb-go/internal/testutil"
)

func newTestService(t *testing.T) (*rwb.Service, *itemstore.MemoryStore) {
	t.Helper()
	items := itemstore.NewMemoryStore()
	db := testutil.NewTestDatabase(t)
	clock := testutil.FixedClock()
	logger := rwb.NewNopLogger()
	dispatcher := rwb.NewDispatcher(db, nil, logger, clock)
	svc := rwb.NewService(items, db, dispatcher, logger, clock, testutil.NewStubIDGenerator(), nil)
	return svc, items
}

func strptr(s string) *string { return &s }

func TestService_Reminders(t *testing.T) {
	t.Run("create assigns an ID and defaults the list", func(t *testing.T) {
		svc, _ := newTestService(t)

		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}
		if created.ID == "" {
			t.Error("CreateReminder() assigned no ID")
		}
		if created.ListName != "Reminders" {
			t.Errorf("list = %s, want Reminders", created.ListName)
		}
	})

	t.Run("create rejects an empty title", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreateReminder(model.Reminder{})
		if !errors.Is(err, rwb.ErrInvalid) {
			t.Errorf("CreateReminder() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("create signals the trigger", func(t *testing.T) {
		items := itemstore.NewMemoryStore()
		db := testutil.NewTestDatabase(t)
		clock := testutil.FixedClock()
		logger := rwb.NewNopLogger()
		dispatcher := rwb.NewDispatcher(db, nil, logger, clock)

		notified := 0
		svc := rwb.NewService(items, db, dispatcher, logger, clock, testutil.NewStubIDGenerator(), func() { notified++ })

		if _, err := svc.CreateReminder(model.Reminder{Title: "Buy milk"}); err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}
		if notified != 1 {
			t.Errorf("notify calls = %d, want 1", notified)
		}
	})

	t.Run("list filters by list name", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.CreateReminder(model.Reminder{Title: "Buy milk", ListName: "Groceries"}); err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}
		if _, err := svc.CreateReminder(model.Reminder{Title: "Call dentist"}); err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		all, err := svc.ListReminders("")
		if err != nil {
			t.Fatalf("ListReminders() error = %v", err)
		}
		if len(all) != 2 {
			t.Errorf("ListReminders(\"\") = %d reminders, want 2", len(all))
		}

		groceries, err := svc.ListReminders("Groceries")
		if err != nil {
			t.Fatalf("ListReminders() error = %v", err)
		}
		if len(groceries) != 1 || groceries[0].Title != "Buy milk" {
			t.Errorf("ListReminders(Groceries) = %+v, want just Buy milk", groceries)
		}
	})

	t.Run("get unknown ID returns not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetReminder("nope")
		if !errors.Is(err, rwb.ErrNotFound) {
			t.Errorf("GetReminder() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update applies only the provided fields", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk", ListName: "Groceries", Notes: "2%"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		updated, err := svc.UpdateReminder(created.ID, rwb.ReminderPatch{Title: strptr("Buy bread")})
		if err != nil {
			t.Fatalf("UpdateReminder() error = %v", err)
		}
		if updated.Title != "Buy bread" {
			t.Errorf("title = %s, want Buy bread", updated.Title)
		}
		if updated.ListName != "Groceries" || updated.Notes != "2%" {
			t.Errorf("untouched fields changed: %+v", updated)
		}
	})

	t.Run("update rejects an empty title", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		_, err = svc.UpdateReminder(created.ID, rwb.ReminderPatch{Title: strptr("")})
		if !errors.Is(err, rwb.ErrInvalid) {
			t.Errorf("UpdateReminder() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("update defaults an empty list name", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk", ListName: "Groceries"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		updated, err := svc.UpdateReminder(created.ID, rwb.ReminderPatch{ListName: strptr("")})
		if err != nil {
			t.Fatalf("UpdateReminder() error = %v", err)
		}
		if updated.ListName != "Reminders" {
			t.Errorf("list = %q, want Reminders", updated.ListName)
		}
	})

	t.Run("clear due date wins over a provided due date", func(t *testing.T) {
		svc, _ := newTestService(t)
		due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk", DueDate: &due})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		later := due.Add(time.Hour)
		updated, err := svc.UpdateReminder(created.ID, rwb.ReminderPatch{DueDate: &later, ClearDueDate: true})
		if err != nil {
			t.Fatalf("UpdateReminder() error = %v", err)
		}
		if updated.DueDate != nil {
			t.Errorf("due date = %v, want nil", updated.DueDate)
		}
	})

	t.Run("set completed flips the flag", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		done, err := svc.SetCompleted(created.ID, true)
		if err != nil {
			t.Fatalf("SetCompleted() error = %v", err)
		}
		if !done.IsCompleted {
			t.Error("SetCompleted(true) left reminder incomplete")
		}

		undone, err := svc.SetCompleted(created.ID, false)
		if err != nil {
			t.Fatalf("SetCompleted() error = %v", err)
		}
		if undone.IsCompleted {
			t.Error("SetCompleted(false) left reminder complete")
		}
	})

	t.Run("delete removes the reminder", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateReminder(model.Reminder{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("CreateReminder() error = %v", err)
		}

		if err := svc.DeleteReminder(created.ID); err != nil {
			t.Fatalf("DeleteReminder() error = %v", err)
		}
		if _, err := svc.GetReminder(created.ID); !errors.Is(err, rwb.ErrNotFound) {
			t.Errorf("GetReminder() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete unknown ID returns not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		if err := svc.DeleteReminder("nope"); !errors.Is(err, rwb.ErrNotFound) {
			t.Errorf("DeleteReminder() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("lists returns the distinct list names", func(t *testing.T) {
		svc, _ := newTestService(t)
		for _, r := range []model.Reminder{
			{Title: "Buy milk", ListName: "Groceries"},
			{Title: "Buy bread", ListName: "Groceries"},
			{Title: "Call dentist"},
		} {
			if _, err := svc.CreateReminder(r); err != nil {
				t.Fatalf("CreateReminder() error = %v", err)
			}
		}

		lists, err := svc.Lists()
		if err != nil {
			t.Fatalf("Lists() error = %v", err)
		}
		if len(lists) != 2 {
			t.Errorf("Lists() = %v, want 2 lists", lists)
		}
	})
}

func TestService_Webhooks(t *testing.T) {
	t.Run("create defaults to all event kinds", func(t *testing.T) {
		svc, _ := newTestService(t)

		hook, err := svc.CreateWebhook(rwb.WebhookParams{URL: "https://example.com/hook"})
		if err != nil {
			t.Fatalf("CreateWebhook() error = %v", err)
		}
		if len(hook.Events) != 4 {
			t.Errorf("events = %v, want all four kinds", hook.Events)
		}
		if !hook.Active {
			t.Error("new webhook is not active")
		}
	})

	t.Run("create rejects invalid URLs", func(t *testing.T) {
		svc, _ := newTestService(t)

		for _, u := range []string{"", "not a url", "ftp://example.com", "http://"} {
			if _, err := svc.CreateWebhook(rwb.WebhookParams{URL: u}); !errors.Is(err, rwb.ErrInvalid) {
				t.Errorf("CreateWebhook(%q) error = %v, want ErrInvalid", u, err)
			}
		}
	})

	t.Run("create rejects unknown event kinds", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreateWebhook(rwb.WebhookParams{
			URL:    "https://example.com/hook",
			Events: []string{"created", "exploded"},
		})
		if !errors.Is(err, rwb.ErrInvalid) {
			t.Errorf("CreateWebhook() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("get and list round-trip", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateWebhook(rwb.WebhookParams{
			URL:      "https://example.com/hook",
			Secret:   "s3cret",
			ListName: "Groceries",
			Events:   []string{"created", "deleted"},
		})
		if err != nil {
			t.Fatalf("CreateWebhook() error = %v", err)
		}

		got, err := svc.GetWebhook(created.ID)
		if err != nil {
			t.Fatalf("GetWebhook() error = %v", err)
		}
		if got.URL != created.URL || got.Secret != "s3cret" || got.ListName != "Groceries" {
			t.Errorf("GetWebhook() = %+v, want %+v", got, created)
		}
		if len(got.Events) != 2 {
			t.Errorf("events = %v, want 2", got.Events)
		}

		hooks, err := svc.ListWebhooks()
		if err != nil {
			t.Fatalf("ListWebhooks() error = %v", err)
		}
		if len(hooks) != 1 {
			t.Errorf("ListWebhooks() = %d hooks, want 1", len(hooks))
		}
	})

	t.Run("get unknown ID returns not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.GetWebhook("nope"); !errors.Is(err, rwb.ErrNotFound) {
			t.Errorf("GetWebhook() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("toggle flips the active flag", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateWebhook(rwb.WebhookParams{URL: "https://example.com/hook"})
		if err != nil {
			t.Fatalf("CreateWebhook() error = %v", err)
		}

		off, err := svc.ToggleWebhook(created.ID)
		if err != nil {
			t.Fatalf("ToggleWebhook() error = %v", err)
		}
		if off.Active {
			t.Error("first toggle left webhook active")
		}

		on, err := svc.ToggleWebhook(created.ID)
		if err != nil {
			t.Fatalf("ToggleWebhook() error = %v", err)
		}
		if !on.Active {
			t.Error("second toggle left webhook inactive")
		}
	})

	t.Run("delete removes the webhook", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.CreateWebhook(rwb.WebhookParams{URL: "https://example.com/hook"})
		if err != nil {
			t.Fatalf("CreateWebhook() error = %v", err)
		}

		if err := svc.DeleteWebhook(created.ID); err != nil {
			t.Fatalf("DeleteWebhook() error = %v", err)
		}
		if _, err := svc.GetWebhook(created.ID); !errors.Is(err, rwb.ErrNotFound) {
			t.Errorf("GetWebhook() after delete error = %v, want ErrNotFound", err)
		}
	})
}
