package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/taskflowhq/taskflow/internal/user"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:26"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string {
	return "users"
}

func toUserRecord(u *user.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromUserRecord(rec *userRecord) *user.User {
	return &user.User{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&userRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Create(ctx context.Context, u *user.User) error {
	// The unique index on username backs the uniqueness guarantee here, so
	// two concurrent signups cannot both win.
	err := r.db.WithContext(ctx).Create(toUserRecord(u)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return cerr.NewError(cerr.AlreadyExists, "username already taken", err)
		}
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert user: %w", err))
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerr.NewError(cerr.NotFound, "user not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read user: %w", err))
	}
	return fromUserRecord(&rec), nil
}

func (r *GormRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).First(&rec, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerr.NewError(cerr.NotFound, "user not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read user: %w", err))
	}
	return fromUserRecord(&rec), nil
}

func (r *GormRepository) Update(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Save(toUserRecord(u))
	if res.Error != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update user: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return nil
}
