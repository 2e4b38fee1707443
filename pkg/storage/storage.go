package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a key-value style document store. Every repository in the
// application persists through this interface so the backing medium
// (local disk, S3) can be swapped via configuration.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
