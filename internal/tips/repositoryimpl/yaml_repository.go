package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskflowhq/taskflow/internal/tips"
	"github.com/taskflowhq/taskflow/pkg/cerr"
	"github.com/taskflowhq/taskflow/pkg/storage"
)

const savedTipsPrefix = "saved_tips"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", savedTipsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *tips.SavedTip) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal saved tip: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("saved_tip", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*tips.SavedTip, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("saved_tip", err)
	}
	var t tips.SavedTip
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal saved tip: %w", err))
	}
	return &t, nil
}

func (r *YAMLRepository) ListByUser(ctx context.Context, userID string) ([]*tips.SavedTip, error) {
	keys, err := r.storage.List(ctx, savedTipsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("saved_tips", err)
	}

	var out []*tips.SavedTip
	for _, k := range keys {
		data, err := r.storage.Read(ctx, k)
		if err != nil {
			continue
		}
		var t tips.SavedTip
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		if t.UserID != userID {
			continue
		}
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("saved_tip", err)
	}
	return nil
}
