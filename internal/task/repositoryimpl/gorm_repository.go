package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/taskflowhq/taskflow/internal/task"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

// taskRecord is the relational shape of a task. The ULID public ID is the
// primary key in this backend too, so no second identifier ever exists.
type taskRecord struct {
	ID          string `gorm:"primaryKey;size:26"`
	Type        string `gorm:"size:20;not null"`
	ProjectID   string `gorm:"size:26;index"`
	Title       string `gorm:"size:255;not null"`
	Description string
	CreatedBy   string `gorm:"size:26;index;not null"`
	AssigneeID  string `gorm:"size:26;index"`
	Status      string `gorm:"size:20;not null"`
	Priority    string `gorm:"size:10;not null"`
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskRecord) TableName() string {
	return "tasks"
}

func toRecord(t *task.Task) *taskRecord {
	return &taskRecord{
		ID:          t.ID,
		Type:        string(t.Type),
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		AssigneeID:  t.AssigneeID,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromRecord(rec *taskRecord) *task.Task {
	return &task.Task{
		ID:          rec.ID,
		Type:        task.Type(rec.Type),
		ProjectID:   rec.ProjectID,
		Title:       rec.Title,
		Description: rec.Description,
		CreatedBy:   rec.CreatedBy,
		AssigneeID:  rec.AssigneeID,
		Status:      task.Status(rec.Status),
		Priority:    task.Priority(rec.Priority),
		DueDate:     rec.DueDate,
		CompletedAt: rec.CompletedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.db.WithContext(ctx).Create(toRecord(t)).Error; err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert task: %w", err))
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerr.NewError(cerr.NotFound, "task not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read task: %w", err))
	}
	return fromRecord(&rec), nil
}

func (r *GormRepository) ListByCreator(ctx context.Context, userID string) ([]*task.Task, error) {
	var recs []taskRecord
	err := r.db.WithContext(ctx).Where("created_by = ?", userID).Find(&recs).Error
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}
	return fromRecords(recs), nil
}

func (r *GormRepository) ListInvolving(ctx context.Context, userID string, projectIDs []string) ([]*task.Task, error) {
	q := r.db.WithContext(ctx).Where("created_by = ? OR assignee_id = ?", userID, userID)
	if len(projectIDs) > 0 {
		q = r.db.WithContext(ctx).Where(
			"created_by = ? OR assignee_id = ? OR project_id IN ?", userID, userID, projectIDs)
	}
	var recs []taskRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}
	return fromRecords(recs), nil
}

func (r *GormRepository) Update(ctx context.Context, t *task.Task) error {
	// Save writes every column in one statement, so readers never observe a
	// partially applied update (status flipped but completed_at missing).
	res := r.db.WithContext(ctx).Save(toRecord(t))
	if res.Error != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update task: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func fromRecords(recs []taskRecord) []*task.Task {
	tasks := make([]*task.Task, len(recs))
	for i := range recs {
		tasks[i] = fromRecord(&recs[i])
	}
	return tasks
}
