package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
	"github.com/taskflowhq/taskflow/pkg/storage"
)

const usersPrefix = "users"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", usersPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, u *user.User) error {
	// Username uniqueness is enforced here rather than by the store.
	existing, err := r.GetByUsername(ctx, u.Username)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	if existing != nil {
		return cerr.NewError(cerr.AlreadyExists, "username already taken", nil)
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal user: %w", err))
	}
	if err := r.storage.Write(ctx, path(u.ID), data); err != nil {
		return cerr.WrapStorageWriteError("user", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*user.User, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("user", err)
	}
	var u user.User
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal user: %w", err))
	}
	return &u, nil
}

func (r *YAMLRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	keys, err := r.storage.List(ctx, usersPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("users", err)
	}
	for _, k := range keys {
		data, err := r.storage.Read(ctx, k)
		if err != nil {
			continue
		}
		var u user.User
		if err := yaml.Unmarshal(data, &u); err != nil {
			continue
		}
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
}

func (r *YAMLRepository) Update(ctx context.Context, u *user.User) error {
	exists, err := r.storage.Exists(ctx, path(u.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("user", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal user: %w", err))
	}
	if err := r.storage.Write(ctx, path(u.ID), data); err != nil {
		return cerr.WrapStorageWriteError("user", err)
	}
	return nil
}
