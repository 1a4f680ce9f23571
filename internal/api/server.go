package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rwb-go/internal/model"
	"rwb-go/internal/rwb"
)

// Server handles HTTP requests for the reminders and webhooks API.
type Server struct {
	service *rwb.Service
	addr    string
	logger  rwb.Logger
}

// New creates a new API server.
func New(service *rwb.Service, addr string, logger rwb.Logger) *Server {
	return &Server{service: service, addr: addr, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Reminders
	mux.HandleFunc("GET /reminders", s.listReminders)
	mux.HandleFunc("POST /reminders", s.createReminder)
	mux.HandleFunc("GET /reminders/{id}", s.getReminder)
	mux.HandleFunc("PATCH /reminders/{id}", s.updateReminder)
	mux.HandleFunc("DELETE /reminders/{id}", s.deleteReminder)
	mux.HandleFunc("POST /reminders/{id}/complete", s.completeReminder)
	mux.HandleFunc("POST /reminders/{id}/uncomplete", s.uncompleteReminder)

	// Lists
	mux.HandleFunc("GET /lists", s.listLists)

	// Webhooks
	mux.HandleFunc("GET /webhooks", s.listWebhooks)
	mux.HandleFunc("POST /webhooks", s.createWebhook)
	mux.HandleFunc("GET /webhooks/{id}", s.getWebhook)
	mux.HandleFunc("DELETE /webhooks/{id}", s.deleteWebhook)
	mux.HandleFunc("POST /webhooks/{id}/test", s.testWebhook)
	mux.HandleFunc("PATCH /webhooks/{id}/toggle", s.toggleWebhook)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Reminder handlers

// ReminderResponse is the wire form of a reminder.
type ReminderResponse struct {
	ReminderID  string     `json:"reminderID"`
	Title       string     `json:"title"`
	ListName    string     `json:"listName"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
	Notes       string     `json:"notes,omitempty"`
	Priority    int        `json:"priority"`
	Recurrence  string     `json:"recurrence,omitempty"`
}

func toReminderResponse(r *model.Reminder) ReminderResponse {
	return ReminderResponse{
		ReminderID:  r.ID,
		Title:       r.Title,
		ListName:    r.ListName,
		IsCompleted: r.IsCompleted,
		DueDate:     r.DueDate,
		Notes:       r.Notes,
		Priority:    int(r.Priority),
		Recurrence:  r.Recurrence,
	}
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.service.ListReminders(r.URL.Query().Get("list"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]ReminderResponse, 0, len(reminders))
	for i := range reminders {
		out = append(out, toReminderResponse(&reminders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": out})
}

// CreateReminderRequest is the request body for creating a reminder.
type CreateReminderRequest struct {
	Title      string     `json:"title"`
	ListName   string     `json:"listName"`
	DueDate    *time.Time `json:"dueDate"`
	Notes      string     `json:"notes"`
	Priority   int        `json:"priority"`
	Recurrence string     `json:"recurrence"`
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.service.CreateReminder(model.Reminder{
		Title:      req.Title,
		ListName:   req.ListName,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
		Priority:   model.Priority(req.Priority),
		Recurrence: req.Recurrence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReminderResponse(created))
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := s.service.GetReminder(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(reminder))
}

// optionalTime distinguishes an absent JSON field from an explicit null.
// An explicit null clears the due date.
type optionalTime struct {
	set   bool
	value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.value = &t
	return nil
}

// UpdateReminderRequest is the request body for patching a reminder.
// Absent fields are left unchanged.
type UpdateReminderRequest struct {
	Title      *string      `json:"title"`
	ListName   *string      `json:"listName"`
	DueDate    optionalTime `json:"dueDate"`
	Notes      *string      `json:"notes"`
	Priority   *int         `json:"priority"`
	Recurrence *string      `json:"recurrence"`
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	var req UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := rwb.ReminderPatch{
		Title:      req.Title,
		ListName:   req.ListName,
		Notes:      req.Notes,
		Recurrence: req.Recurrence,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.DueDate.set {
		if req.DueDate.value == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = req.DueDate.value
		}
	}

	updated, err := s.service.UpdateReminder(r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(updated))
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReminder(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) completeReminder(w http.ResponseWriter, r *http.Request) {
	s.setCompleted(w, r, true)
}

func (s *Server) uncompleteReminder(w http.ResponseWriter, r *http.Request) {
	s.setCompleted(w, r, false)
}

func (s *Server) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	updated, err := s.service.SetCompleted(r.PathValue("id"), completed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(updated))
}

func (s *Server) listLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.service.Lists()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if lists == nil {
		lists = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// Webhook handlers

// WebhookResponse is the wire form of a webhook. The secret is never
// echoed back; only its presence is reported.
type WebhookResponse struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	HasSecret  bool      `json:"hasSecret"`
	ReminderID string    `json:"reminderID,omitempty"`
	ListName   string    `json:"listName,omitempty"`
	Events     []string  `json:"events"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toWebhookResponse(hook *model.Webhook) WebhookResponse {
	return WebhookResponse{
		ID:         hook.ID,
		URL:        hook.URL,
		HasSecret:  hook.Secret != "",
		ReminderID: hook.ReminderID,
		ListName:   hook.ListName,
		Events:     hook.Events,
		Active:     hook.Active,
		CreatedAt:  hook.CreatedAt,
	}
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.service.ListWebhooks()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]WebhookResponse, 0, len(hooks))
	for i := range hooks {
		out = append(out, toWebhookResponse(&hooks[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": out})
}

// CreateWebhookRequest is the request body for registering a webhook.
type CreateWebhookRequest struct {
	URL        string   `json:"url"`
	Secret     string   `json:"secret"`
	ReminderID string   `json:"reminderID"`
	ListName   string   `json:"listName"`
	Events     []string `json:"events"`
}

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hook, err := s.service.CreateWebhook(rwb.WebhookParams{
		URL:        req.URL,
		Secret:     req.Secret,
		ReminderID: req.ReminderID,
		ListName:   req.ListName,
		Events:     req.Events,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWebhookResponse(hook))
}

func (s *Server) getWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.service.GetWebhook(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWebhookResponse(hook))
}

func (s *Server) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteWebhook(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) testWebhook(w http.ResponseWriter, r *http.Request) {
	ok, err := s.service.TestWebhook(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (s *Server) toggleWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.service.ToggleWebhook(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWebhookResponse(hook))
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rwb.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rwb.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
