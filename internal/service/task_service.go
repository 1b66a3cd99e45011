package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/notify"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CreateTaskInput struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.Priority
	Deadline    *time.Time
	AssigneeID  *uuid.UUID
	ReviewerID  *uuid.UUID
}

// TaskPatch lists the fields to change. Nil fields keep their value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	Priority    *model.Priority
	Deadline    *time.Time
	AssigneeID  *uuid.UUID
	ReviewerID  *uuid.UUID
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Deadline == nil && p.AssigneeID == nil && p.ReviewerID == nil
}

// SortCriteria is the raw query of GET /task/sortfilter.
type SortCriteria struct {
	Status     string
	Priority   string
	AssigneeID string
	Assignee   string
	TeamID     string
	SortBy     string
	Order      string
}

type TaskService struct {
	store    *repository.Store
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewTaskService(store *repository.Store, notifier Notifier, log *logrus.Logger) *TaskService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TaskService{store: store, notifier: notifier, log: log, now: time.Now}
}

func validateEnums(status *model.TaskStatus, priority *model.Priority) error {
	if status != nil && !status.Valid() {
		return apperror.BadRequest("Invalid status value")
	}
	if priority != nil && !priority.Valid() {
		return apperror.BadRequest("Invalid priority value")
	}
	return nil
}

// requireTeamMember checks that userID is an active member of teamID.
func requireTeamMember(ctx context.Context, tx *repository.Store, teamID uuid.UUID, userID *uuid.UUID, field string) error {
	if userID == nil {
		return nil
	}
	ok, err := tx.Memberships.IsMember(ctx, *userID, teamID)
	if err != nil {
		return storeError("Failed to check team membership", err)
	}
	if !ok {
		return apperror.BadRequest(field + " must be a member of the team")
	}
	return nil
}

// Create adds a task to teamID on behalf of p.
func (s *TaskService) Create(ctx context.Context, p auth.Principal, teamID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.BadRequest("Title is required")
	}
	if in.Status == "" {
		in.Status = model.StatusNotStarted
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if err := validateEnums(&in.Status, &in.Priority); err != nil {
		return nil, err
	}

	var task *model.Task
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		team, err := tx.Teams.GetByID(ctx, teamID)
		if err != nil {
			return storeError("Failed to retrieve team", err)
		}
		if team == nil {
			return apperror.NotFound("Team not found")
		}

		membership, err := tx.Memberships.Get(ctx, p.UserID, teamID)
		if err != nil {
			return storeError("Failed to check membership", err)
		}
		if err := policy.Authorize(p, policy.CreateTask, policy.Resource{
			OrganizationID: &team.OrganizationID,
			Membership:     membership,
		}); err != nil {
			return err
		}

		if err := requireTeamMember(ctx, tx, teamID, in.AssigneeID, "Assignee"); err != nil {
			return err
		}
		if err := requireTeamMember(ctx, tx, teamID, in.ReviewerID, "Reviewer"); err != nil {
			return err
		}

		exists, err := tx.Tasks.TitleExists(ctx, team.OrganizationID, in.Title, nil)
		if err != nil {
			return storeError("Failed to check task title", err)
		}
		if exists {
			return apperror.Conflict("Task with this title already exists")
		}

		task = &model.Task{
			Title:          in.Title,
			Description:    in.Description,
			Status:         in.Status,
			Priority:       in.Priority,
			Deadline:       in.Deadline,
			CreatorID:      p.UserID,
			AssigneeID:     in.AssigneeID,
			ReviewerID:     in.ReviewerID,
			TeamID:         team.ID,
			OrganizationID: team.OrganizationID,
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("Task with this title already exists")
			}
			return storeError("Failed to create task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "team_id": teamID, "user_id": p.UserID}).Info("task created")

	var recipients []uuid.UUID
	if task.AssigneeID != nil {
		recipients = append(recipients, *task.AssigneeID)
	}
	if task.ReviewerID != nil {
		recipients = append(recipients, *task.ReviewerID)
	}
	publishAll(s.notifier, s.log, []notify.Notification{{
		Recipients: notify.Dedup(recipients...),
		Event:      s.event(notify.EventTaskCreated, task, p.UserID, fmt.Sprintf("New task %q was created", task.Title)),
	}})
	return task, nil
}

// Get returns a task of teamID visible to p.
func (s *TaskService) Get(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.store.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperror.NotFound("Task not found")
		}
		return nil, storeError("Failed to retrieve task", err)
	}
	if task.TeamID != teamID {
		return nil, apperror.BadRequest("Task does not belong to this team")
	}

	membership, err := s.store.Memberships.Get(ctx, p.UserID, teamID)
	if err != nil {
		return nil, storeError("Failed to check membership", err)
	}
	if err := policy.Authorize(p, policy.ViewTask, policy.Resource{
		OrganizationID: &task.OrganizationID,
		Membership:     membership,
		Task:           task,
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies patch to a task of teamID. Notifications describe what
// actually changed: one event for {old, new} assignee and one for the whole
// team when the status moved.
func (s *TaskService) Update(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID, patch TaskPatch) (*model.Task, error) {
	if err := validateEnums(patch.Status, patch.Priority); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.BadRequest("Title must not be empty")
		}
		patch.Title = &title
	}

	var (
		task        *model.Task
		before      model.Task
		teamMembers []uuid.UUID
		changed     bool
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				return apperror.NotFound("Task not found")
			}
			return storeError("Failed to retrieve task", err)
		}
		if task.TeamID != teamID {
			return apperror.BadRequest("Task does not belong to this team")
		}

		membership, err := tx.Memberships.Get(ctx, p.UserID, task.TeamID)
		if err != nil {
			return storeError("Failed to check membership", err)
		}
		if err := policy.Authorize(p, policy.UpdateTask, policy.Resource{
			OrganizationID: &task.OrganizationID,
			Membership:     membership,
			Task:           task,
		}); err != nil {
			return err
		}

		before = *task
		if patch.IsEmpty() {
			return nil
		}

		if patch.Title != nil && *patch.Title != task.Title {
			exists, err := tx.Tasks.TitleExists(ctx, task.OrganizationID, *patch.Title, &task.ID)
			if err != nil {
				return storeError("Failed to check task title", err)
			}
			if exists {
				return apperror.Conflict("Task with this title already exists")
			}
		}
		if err := requireTeamMember(ctx, tx, task.TeamID, patch.AssigneeID, "Assignee"); err != nil {
			return err
		}
		if err := requireTeamMember(ctx, tx, task.TeamID, patch.ReviewerID, "Reviewer"); err != nil {
			return err
		}

		changed = applyPatch(task, patch)
		if !changed {
			return nil
		}
		task.UpdatedAt = s.now()
		if err := tx.Tasks.Update(ctx, task); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("Task with this title already exists")
			}
			if errors.Is(err, repository.ErrTaskNotFound) {
				return apperror.NotFound("Task not found")
			}
			return storeError("Failed to update task", err)
		}

		if task.Status != before.Status {
			teamMembers, err = tx.Memberships.MemberIDs(ctx, task.TeamID)
			if err != nil {
				return storeError("Failed to load team members", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return task, nil
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "team_id": teamID, "user_id": p.UserID}).Info("task updated")
	publishAll(s.notifier, s.log, s.diffNotifications(&before, task, teamMembers, p.UserID))
	return task, nil
}

// applyPatch reports whether any field actually changed.
func applyPatch(task *model.Task, patch TaskPatch) bool {
	changed := false
	if patch.Title != nil && *patch.Title != task.Title {
		task.Title = *patch.Title
		changed = true
	}
	if patch.Description != nil && *patch.Description != task.Description {
		task.Description = *patch.Description
		changed = true
	}
	if patch.Status != nil && *patch.Status != task.Status {
		task.Status = *patch.Status
		changed = true
	}
	if patch.Priority != nil && *patch.Priority != task.Priority {
		task.Priority = *patch.Priority
		changed = true
	}
	if patch.Deadline != nil && (task.Deadline == nil || !patch.Deadline.Equal(*task.Deadline)) {
		deadline := *patch.Deadline
		task.Deadline = &deadline
		changed = true
	}
	if patch.AssigneeID != nil && !sameRef(task.AssigneeID, patch.AssigneeID) {
		id := *patch.AssigneeID
		task.AssigneeID = &id
		changed = true
	}
	if patch.ReviewerID != nil && !sameRef(task.ReviewerID, patch.ReviewerID) {
		id := *patch.ReviewerID
		task.ReviewerID = &id
		changed = true
	}
	return changed
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *TaskService) diffNotifications(before, after *model.Task, teamMembers []uuid.UUID, actor uuid.UUID) []notify.Notification {
	var notes []notify.Notification

	if !sameRef(before.AssigneeID, after.AssigneeID) {
		var ids []uuid.UUID
		if before.AssigneeID != nil {
			ids = append(ids, *before.AssigneeID)
		}
		if after.AssigneeID != nil {
			ids = append(ids, *after.AssigneeID)
		}
		notes = append(notes, notify.Notification{
			Recipients: notify.Dedup(ids...),
			Event:      s.event(notify.EventTaskAssigned, after, actor, fmt.Sprintf("Assignee of task %q changed", after.Title)),
		})
	}

	if before.Status != after.Status {
		recipients := append([]uuid.UUID{}, teamMembers...)
		if after.AssigneeID != nil {
			recipients = append(recipients, *after.AssigneeID)
		}
		if after.ReviewerID != nil {
			recipients = append(recipients, *after.ReviewerID)
		}
		notes = append(notes, notify.Notification{
			Recipients: notify.Dedup(recipients...),
			Event: s.event(notify.EventTaskStatusChanged, after, actor,
				fmt.Sprintf("Task %q moved from %s to %s", after.Title, before.Status, after.Status)),
		})
	}
	return notes
}

// Delete removes a task of teamID. Deleting it again is NotFound.
func (s *TaskService) Delete(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID) error {
	var task *model.Task
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				return apperror.NotFound("Task not found")
			}
			return storeError("Failed to retrieve task", err)
		}
		if task.TeamID != teamID {
			return apperror.BadRequest("Task does not belong to this team")
		}

		membership, err := tx.Memberships.Get(ctx, p.UserID, task.TeamID)
		if err != nil {
			return storeError("Failed to check membership", err)
		}
		if err := policy.Authorize(p, policy.DeleteTask, policy.Resource{
			OrganizationID: &task.OrganizationID,
			Membership:     membership,
			Task:           task,
		}); err != nil {
			return err
		}

		if err := tx.Tasks.Delete(ctx, task.ID); err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				return apperror.NotFound("Task not found")
			}
			return storeError("Failed to delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "team_id": teamID, "user_id": p.UserID}).Info("task deleted")

	var recipients []uuid.UUID
	if task.AssigneeID != nil {
		recipients = append(recipients, *task.AssigneeID)
	}
	if task.ReviewerID != nil {
		recipients = append(recipients, *task.ReviewerID)
	}
	publishAll(s.notifier, s.log, []notify.Notification{{
		Recipients: notify.Dedup(recipients...),
		Event:      s.event(notify.EventTaskDeleted, task, p.UserID, fmt.Sprintf("Task %q was deleted", task.Title)),
	}})
	return nil
}

// SortFilter lists tasks of p's organization matching c.
func (s *TaskService) SortFilter(ctx context.Context, p auth.Principal, c SortCriteria) ([]model.Task, error) {
	filter, err := parseCriteria(c)
	if err != nil {
		return nil, err
	}

	switch {
	case p.OrganizationID != nil:
		filter.OrganizationID = p.OrganizationID
	case p.IsSuperAdmin():
	default:
		// Пользователь без организации не состоит ни в одной команде
		return []model.Task{}, nil
	}

	tasks, err := s.store.Tasks.List(ctx, filter)
	if err != nil {
		return nil, storeError("Failed to list tasks", err)
	}
	return tasks, nil
}

func parseCriteria(c SortCriteria) (repository.TaskFilter, error) {
	var f repository.TaskFilter

	if c.Status != "" {
		status := model.TaskStatus(strings.ToLower(c.Status))
		if !status.Valid() {
			return f, apperror.BadRequest("Invalid status value")
		}
		f.Status = &status
	}
	if c.Priority != "" {
		priority := model.Priority(strings.ToLower(c.Priority))
		if !priority.Valid() {
			return f, apperror.BadRequest("Invalid priority value")
		}
		f.Priority = &priority
	}

	var err error
	if f.AssigneeID, err = parseOptionalUUID(c.AssigneeID, "assignee_id"); err != nil {
		return f, err
	}
	if f.TeamID, err = parseOptionalUUID(c.TeamID, "team_id"); err != nil {
		return f, err
	}
	f.AssigneeUsername = strings.TrimSpace(c.Assignee)

	if c.SortBy != "" {
		if !repository.IsSortField(c.SortBy) {
			return f, apperror.BadRequest("Invalid sort field")
		}
		f.SortBy = c.SortBy
	}

	switch strings.ToLower(c.Order) {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		return f, apperror.BadRequest("Invalid sort order, use asc or desc")
	}
	return f, nil
}

func (s *TaskService) event(t notify.EventType, task *model.Task, actor uuid.UUID, msg string) notify.Event {
	return notify.Event{
		Type:       t,
		TaskID:     task.ID,
		TeamID:     task.TeamID,
		ActorID:    actor,
		Message:    msg,
		OccurredAt: s.now().UTC(),
	}
}
