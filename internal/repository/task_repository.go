package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/internal/model"
)

// Sortable task fields accepted by List.
const (
	SortDeadline  = "deadline"
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortPriority  = "priority"
	SortStatus    = "status"
	SortTitle     = "title"
)

var sortExpressions = map[string]string{
	SortDeadline:  "tasks.deadline",
	SortCreatedAt: "tasks.created_at",
	SortUpdatedAt: "tasks.updated_at",
	SortTitle:     "tasks.title",
	SortPriority:  "CASE tasks.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 0 END",
	SortStatus: "CASE tasks.status WHEN 'not_started' THEN 1 WHEN 'in_progress' THEN 2 " +
		"WHEN 'in_review' THEN 3 WHEN 'reviewed' THEN 4 WHEN 'completed' THEN 5 ELSE 0 END",
}

// IsSortField reports whether field can be passed as TaskFilter.SortBy.
func IsSortField(field string) bool {
	_, ok := sortExpressions[field]
	return ok
}

// TaskFilter narrows List. Nil fields do not filter.
type TaskFilter struct {
	OrganizationID   *uuid.UUID
	TeamID           *uuid.UUID
	Status           *model.TaskStatus
	Priority         *model.Priority
	AssigneeID       *uuid.UUID
	AssigneeUsername string
	CreatorID        *uuid.UUID
	ReviewerID       *uuid.UUID
	SortBy           string
	Desc             bool
	Limit            int
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error)
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// GetByIDForUpdate читает задачу с блокировкой строки до конца транзакции.
// Вне транзакции блокировка снимается сразу.
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *TaskRepository) first(q *gorm.DB, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := q.First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// TitleExists checks whether the organization already has a task with this
// title, ignoring the task excludeID.
func (r *TaskRepository) TitleExists(ctx context.Context, orgID uuid.UUID, title string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("organization_id = ? AND title = ?", orgID, title)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// Update writes every column of an existing task. A task that is already
// gone is ErrTaskNotFound and is never inserted again.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(task)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List returns the tasks matching f. Default order is deadline ascending.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Select("tasks.*")

	if f.OrganizationID != nil {
		q = q.Where("tasks.organization_id = ?", *f.OrganizationID)
	}
	if f.TeamID != nil {
		q = q.Where("tasks.team_id = ?", *f.TeamID)
	}
	if f.Status != nil {
		q = q.Where("tasks.status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("tasks.priority = ?", *f.Priority)
	}
	if f.AssigneeID != nil {
		q = q.Where("tasks.assignee_id = ?", *f.AssigneeID)
	}
	if f.CreatorID != nil {
		q = q.Where("tasks.creator_id = ?", *f.CreatorID)
	}
	if f.ReviewerID != nil {
		q = q.Where("tasks.reviewer_id = ?", *f.ReviewerID)
	}
	if f.AssigneeUsername != "" {
		q = q.Joins("JOIN users AS assignees ON assignees.id = tasks.assignee_id").
			Where("assignees.username = ?", f.AssigneeUsername)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = SortDeadline
	}
	expr, ok := sortExpressions[sortBy]
	if !ok {
		return nil, errors.New("unsupported sort field: " + sortBy)
	}
	if f.Desc {
		expr += " DESC"
	} else {
		expr += " ASC"
	}
	q = q.Order(expr).Order("tasks.created_at ASC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Count counts tasks, limited to orgID when it is set.
func (r *TaskRepository) Count(ctx context.Context, orgID *uuid.UUID) (int64, error) {
	var count int64
	err := scopeOrg(r.db.WithContext(ctx).Model(&model.Task{}), "organization_id", orgID).Count(&count).Error
	return count, err
}
