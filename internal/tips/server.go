package tips

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/request"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type Server struct {
	catalog *Catalog
	repo    Repository
}

func NewServer(catalog *Catalog, repo Repository) *Server {
	return &Server{catalog: catalog, repo: repo}
}

type savedTipJSON struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	SavedAt  string `json:"saved_at"`
}

func serialize(t *SavedTip) savedTipJSON {
	return savedTipJSON{
		ID:       t.ID,
		Text:     t.Text,
		Category: t.Category,
		SavedAt:  t.SavedAt.Format(time.RFC3339),
	}
}

// Random serves one tip from the live catalog.
func (s *Server) Random(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tip, err := s.catalog.Random()
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":  true,
		"tip": tip,
	})
}

// Save bookmarks a tip for the actor.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)
	data := request.Values(r)

	text := strings.TrimSpace(data["text"])
	if text == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("text", "This field is required."))
		return
	}

	t := &SavedTip{
		ID:       ulid.Make().String(),
		UserID:   actor.ID,
		Text:     text,
		Category: strings.TrimSpace(data["category"]),
		SavedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]any{
		"ok":  true,
		"tip": serialize(t),
	})
}

func (s *Server) ListSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	saved, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]savedTipJSON, len(saved))
	for i, t := range saved {
		out[i] = serialize(t)
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"ok":   true,
		"tips": out,
	})
}

// DeleteSaved removes one of the actor's bookmarks. Another user's bookmark
// reports NotFound, same as a missing one.
func (s *Server) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	t, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if t.UserID != actor.ID {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "saved tip not found", nil)
		return
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, map[string]bool{"ok": true})
}
