package notification

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

type notificationJSON struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	TaskID    string `json:"task_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func serialize(n *Notification) notificationJSON {
	return notificationJSON{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		TaskID:    n.TaskID,
		ProjectID: n.ProjectID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// List returns the actor's notifications, newest first, with an unread count
// for the badge.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	notifications, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	unread := 0
	out := make([]notificationJSON, len(notifications))
	for i, n := range notifications {
		if !n.Read {
			unread++
		}
		out[i] = serialize(n)
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":            true,
		"notifications": out,
		"unread_count":  unread,
	})
}

// MarkRead flags one notification as read. Reading someone else's
// notification reports NotFound, same as a missing one.
func (s *Server) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	n, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if n.UserID != actor.ID {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "notification not found", nil)
		return
	}

	if !n.Read {
		n.Read = true
		if err := s.repo.Update(ctx, n); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":           true,
		"notification": serialize(n),
	})
}
