package pushsubscription

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type Server struct {
	repo           Repository
	vapidPublicKey string
}

func NewServer(repo Repository, vapidPublicKey string) *Server {
	return &Server{repo: repo, vapidPublicKey: vapidPublicKey}
}

// subscribeRequest mirrors PushSubscription.toJSON() from the browser.
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// VAPIDPublicKey hands the browser the key it needs to subscribe.
func (s *Server) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"ok":         true,
		"public_key": s.vapidPublicKey,
	})
}

// Subscribe registers a push endpoint for the actor. Re-subscribing the same
// endpoint replaces the stored keys, which browsers do on key rotation.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid subscription payload", err)
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid subscription payload", nil)
		return
	}

	if existing, err := s.repo.FindByEndpoint(ctx, req.Endpoint); err == nil {
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	sub := &Subscription{
		ID:        ulid.Make().String(),
		UserID:    actor.ID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]bool{"ok": true})
}

// Unsubscribe drops the endpoint named in the request body.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid subscription payload", err)
		return
	}

	if err := s.repo.DeleteByEndpoint(ctx, req.Endpoint); err != nil && !cerr.IsCode(err, cerr.NotFound) {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, map[string]bool{"ok": true})
}
