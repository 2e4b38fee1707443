package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskflowhq/taskflow/internal/project"
	"github.com/taskflowhq/taskflow/pkg/cerr"
	"github.com/taskflowhq/taskflow/pkg/storage"
)

const (
	projectsPrefix    = "projects"
	membershipsPrefix = "memberships"
)

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func projectPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", projectsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, p *project.Project) error {
	exists, err := r.storage.Exists(ctx, projectPath(p.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "project already exists", nil)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal project: %w", err))
	}
	if err := r.storage.Write(ctx, projectPath(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	data, err := r.storage.Read(ctx, projectPath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("project", err)
	}
	var p project.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal project: %w", err))
	}
	return &p, nil
}

func (r *YAMLRepository) ProjectName(ctx context.Context, id string) (string, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (r *YAMLRepository) ListByOwner(ctx context.Context, userID string) ([]*project.Project, error) {
	keys, err := r.storage.List(ctx, projectsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("projects", err)
	}
	sort.Strings(keys)

	var projects []*project.Project
	for _, k := range keys {
		data, err := r.storage.Read(ctx, k)
		if err != nil {
			continue
		}
		var p project.Project
		if err := yaml.Unmarshal(data, &p); err != nil {
			continue
		}
		if p.OwnerID != userID {
			continue
		}
		projects = append(projects, &p)
	}
	return projects, nil
}

func (r *YAMLRepository) Update(ctx context.Context, p *project.Project) error {
	exists, err := r.storage.Exists(ctx, projectPath(p.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "project not found", nil)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal project: %w", err))
	}
	if err := r.storage.Write(ctx, projectPath(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

type YAMLMembershipRepository struct {
	storage storage.Storage
}

func NewYAMLMembershipRepository(s storage.Storage) *YAMLMembershipRepository {
	return &YAMLMembershipRepository{storage: s}
}

func membershipPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", membershipsPrefix, id)
}

func (r *YAMLMembershipRepository) Create(ctx context.Context, m *project.Membership) error {
	existing, err := r.GetByUserAndProject(ctx, m.UserID, m.ProjectID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	if existing != nil {
		return cerr.NewError(cerr.AlreadyExists, "membership already exists", nil)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal membership: %w", err))
	}
	if err := r.storage.Write(ctx, membershipPath(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("membership", err)
	}
	return nil
}

func (r *YAMLMembershipRepository) GetByUserAndProject(ctx context.Context, userID, projectID string) (*project.Membership, error) {
	memberships, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		if m.UserID == userID && m.ProjectID == projectID {
			return m, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "membership not found", nil)
}

func (r *YAMLMembershipRepository) ListByProject(ctx context.Context, projectID string) ([]*project.Membership, error) {
	memberships, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*project.Membership
	for _, m := range memberships {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *YAMLMembershipRepository) ActiveProjectIDs(ctx context.Context, userID string) ([]string, error) {
	memberships, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range memberships {
		if m.UserID == userID && m.IsActive {
			ids = append(ids, m.ProjectID)
		}
	}
	return ids, nil
}

func (r *YAMLMembershipRepository) Update(ctx context.Context, m *project.Membership) error {
	exists, err := r.storage.Exists(ctx, membershipPath(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("membership", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "membership not found", nil)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal membership: %w", err))
	}
	if err := r.storage.Write(ctx, membershipPath(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("membership", err)
	}
	return nil
}

func (r *YAMLMembershipRepository) listAll(ctx context.Context) ([]*project.Membership, error) {
	keys, err := r.storage.List(ctx, membershipsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("memberships", err)
	}
	sort.Strings(keys)

	var memberships []*project.Membership
	for _, k := range keys {
		data, err := r.storage.Read(ctx, k)
		if err != nil {
			continue
		}
		var m project.Membership
		if err := yaml.Unmarshal(data, &m); err != nil {
			continue
		}
		memberships = append(memberships, &m)
	}
	return memberships, nil
}
