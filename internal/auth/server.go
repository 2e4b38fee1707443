package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/request"
	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

const minPasswordLength = 8

type Server struct {
	users    user.Repository
	hasher   *PasswordHasher
	sessions *SessionManager
}

func NewServer(users user.Repository, hasher *PasswordHasher, sessions *SessionManager) *Server {
	return &Server{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
	}
}

type sessionResponse struct {
	OK    bool     `json:"ok"`
	Token string   `json:"token"`
	User  user.Ref `json:"user"`
}

type userResponse struct {
	Success bool     `json:"success"`
	User    user.Ref `json:"user"`
}

// Signup registers a new account. Field errors follow the same shape as the
// task endpoints: {"success":false,"errors":{field:message}}.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := request.Values(r)

	username := strings.TrimSpace(data["username"])
	password := data["password"]
	confirm := data["password_confirm"]

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "This field is required."
	}
	if len(password) < minPasswordLength {
		fields["password"] = "Password must be at least 8 characters."
	}
	if password != confirm {
		fields["password_confirm"] = "Passwords do not match."
	}
	if len(fields) > 0 {
		cerr.SetJSONError(ctx, cerr.NewValidationError(fields))
		return
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}

	now := time.Now()
	u := &user.User{
		ID:           ulid.Make().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if cerr.IsCode(err, cerr.AlreadyExists) {
			cerr.SetJSONError(ctx, cerr.NewFieldError("username", "This username is already taken."))
			return
		}
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, userResponse{Success: true, User: u.Ref()})
}

// Login verifies credentials and issues a session token, also set as a
// cookie for browser clients. Unknown username and wrong password produce
// the same response.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := request.Values(r)

	username := strings.TrimSpace(data["username"])
	password := data["password"]

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !s.hasher.Verify(password, u.PasswordHash) {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid username or password", nil)
		return
	}

	token, err := s.sessions.Issue(u.ID, u.Username)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	cerr.SetJSONResponse(ctx, sessionResponse{OK: true, Token: token, User: u.Ref()})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	cerr.SetJSONResponse(r.Context(), map[string]bool{"ok": true})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := ActorFromContext(ctx)
	u, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"ok": true, "user": u.Ref()})
}

// UpdateProfile changes the username. The session keeps working because the
// guard trusts the token's user id, not the username inside it.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := ActorFromContext(ctx)
	data := request.Values(r)

	username := strings.TrimSpace(data["username"])
	if username == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("username", "This field is required."))
		return
	}

	u, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if username != u.Username {
		taken, err := s.users.GetByUsername(ctx, username)
		if err != nil && !cerr.IsCode(err, cerr.NotFound) {
			cerr.SetJSONError(ctx, err)
			return
		}
		if taken != nil {
			cerr.SetJSONError(ctx, cerr.NewFieldError("username", "This username is already taken."))
			return
		}
	}

	u.Username = username
	u.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, userResponse{Success: true, User: u.Ref()})
}

// ChangePassword verifies the current password before applying a new one.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := ActorFromContext(ctx)
	data := request.Values(r)

	u, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	fields := map[string]string{}
	if !s.hasher.Verify(data["old_password"], u.PasswordHash) {
		fields["old_password"] = "Current password is incorrect."
	}
	newPassword := data["new_password1"]
	if len(newPassword) < minPasswordLength {
		fields["new_password1"] = "Password must be at least 8 characters."
	}
	if newPassword != data["new_password2"] {
		fields["new_password2"] = "Passwords do not match."
	}
	if len(fields) > 0 {
		cerr.SetJSONError(ctx, cerr.NewValidationError(fields))
		return
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]bool{"ok": true})
}
