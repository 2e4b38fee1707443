package project

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/internal/request"
	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type Server struct {
	repo        Repository
	memberships MembershipRepository
	users       user.Repository
	bus         *eventbus.Bus
}

func NewServer(repo Repository, memberships MembershipRepository, users user.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo:        repo,
		memberships: memberships,
		users:       users,
		bus:         bus,
	}
}

type projectJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	DueDate     *string  `json:"due_date"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func serialize(p *Project) projectJSON {
	out := projectJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.OwnerID,
		Status:      p.Status,
		Priority:    p.Priority,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
	if p.DueDate != nil {
		due := p.DueDate.Format("2006-01-02")
		out.DueDate = &due
	}
	return out
}

// Create registers a project and makes the creator its PM member.
func (s *Server) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)
	data := request.Values(r)

	name := strings.TrimSpace(data["name"])
	if name == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("name", "This field is required."))
		return
	}

	status := Status(data["status"])
	if !status.Valid() {
		status = DefaultStatus
	}
	priority := Priority(data["priority"])
	if !priority.Valid() {
		priority = DefaultPriority
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(data["due_date"]); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			cerr.SetJSONError(ctx, cerr.NewFieldError("due_date", "Enter a valid date."))
			return
		}
		dueDate = &parsed
	}

	now := time.Now()
	p := &Project{
		ID:          ulid.Make().String(),
		Name:        name,
		Description: strings.TrimSpace(data["description"]),
		OwnerID:     actor.ID,
		DueDate:     dueDate,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	m := &Membership{
		ID:        ulid.Make().String(),
		UserID:    actor.ID,
		ProjectID: p.ID,
		Role:      RolePM,
		JoinedAt:  now,
		IsActive:  true,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]any{
		"success": true,
		"project": serialize(p),
	})
}

// List returns the actor's own projects plus projects they are an active
// member of.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	owned, err := s.repo.ListByOwner(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	seen := make(map[string]bool, len(owned))
	projects := make([]projectJSON, 0, len(owned))
	for _, p := range owned {
		seen[p.ID] = true
		projects = append(projects, serialize(p))
	}

	memberIDs, err := s.memberships.ActiveProjectIDs(ctx, actor.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			continue
		}
		projects = append(projects, serialize(p))
	}

	cerr.SetJSONResponse(ctx, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

// AddMember invites a user by username. Only the project owner may invite.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)
	data := request.Values(r)

	p, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if p.OwnerID != actor.ID {
		// Same signal as a missing project so membership cannot be probed.
		cerr.SetNewJSONError(ctx, cerr.NotFound, "project not found", nil)
		return
	}

	username := strings.TrimSpace(data["username"])
	if username == "" {
		cerr.SetJSONError(ctx, cerr.NewFieldError("username", "This field is required."))
		return
	}
	invitee, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			cerr.SetJSONError(ctx, cerr.NewFieldError("username", "No such user."))
			return
		}
		cerr.SetJSONError(ctx, err)
		return
	}

	role := Role(data["role"])
	if role != RolePM && role != RoleMember {
		role = RoleMember
	}

	m := &Membership{
		ID:        ulid.Make().String(),
		UserID:    invitee.ID,
		ProjectID: p.ID,
		Role:      role,
		JoinedAt:  time.Now(),
		IsActive:  true,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		if cerr.IsCode(err, cerr.AlreadyExists) {
			cerr.SetJSONError(ctx, cerr.NewFieldError("username", "Already a member of this project."))
			return
		}
		cerr.SetJSONError(ctx, err)
		return
	}

	s.bus.PublishNew(eventbus.EventTypeMemberAdded, "", actor.ID, map[string]string{
		"project_id":   p.ID,
		"project_name": p.Name,
		"user_id":      invitee.ID,
		"role":         string(role),
	})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]bool{"ok": true})
}
