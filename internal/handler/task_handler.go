package handler

import (
	"context"
	"net/http"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskService - жизненный цикл задач
type TaskService interface {
	Create(ctx context.Context, p auth.Principal, teamID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID, patch service.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, p auth.Principal, teamID, taskID uuid.UUID) error
	SortFilter(ctx context.Context, p auth.Principal, c service.SortCriteria) ([]model.Task, error)
}

type TaskHandler struct {
	tasks TaskService
	log   *logrus.Logger
}

func NewTaskHandler(tasks TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// CreateTaskRequest представляет запрос на создание задачи
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,task_status"`
	Priority    *string    `json:"priority" binding:"omitempty,task_priority"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  *string    `json:"assignee_id" binding:"omitempty,uuid"`
	ReviewerID  *string    `json:"reviewer_id" binding:"omitempty,uuid"`
}

// UpdateTaskRequest представляет частичное обновление; отсутствующие поля не меняются
type UpdateTaskRequest struct {
	TaskID      string     `json:"task_id" binding:"required,uuid"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,task_status"`
	Priority    *string    `json:"priority" binding:"omitempty,task_priority"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  *string    `json:"assignee_id" binding:"omitempty,uuid"`
	ReviewerID  *string    `json:"reviewer_id" binding:"omitempty,uuid"`
}

type DeleteTaskRequest struct {
	TaskID string `json:"task_id" binding:"required,uuid"`
}

// TaskResponse представляет ответ с данными задачи
type TaskResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	Deadline       *string `json:"deadline,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	CreatorID      string  `json:"creator_id"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	ReviewerID     *string `json:"reviewer_id,omitempty"`
	TeamID         string  `json:"team_id"`
	OrganizationID string  `json:"organization_id"`
}

func toTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:             t.ID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.Format(time.RFC3339),
		CreatorID:      t.CreatorID.String(),
		AssigneeID:     idString(t.AssigneeID),
		ReviewerID:     idString(t.ReviewerID),
		TeamID:         t.TeamID.String(),
		OrganizationID: t.OrganizationID.String(),
	}
	if t.Deadline != nil {
		deadline := t.Deadline.Format(time.RFC3339)
		resp.Deadline = &deadline
	}
	return resp
}

func toTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	return out
}

// Create godoc
// @Summary Create a task in a team
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param team_id path string true "Team ID"
// @Param request body CreateTaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /task/{team_id}/create-task [post]
func (h *TaskHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "team_id", "team")
	if !ok {
		return
	}

	// Парсим запрос
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	assigneeID, err := parseOptionalID(req.AssigneeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid assignee ID format"})
		return
	}
	reviewerID, err := parseOptionalID(req.ReviewerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid reviewer ID format"})
		return
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		AssigneeID:  assigneeID,
		ReviewerID:  reviewerID,
	}
	if req.Status != nil {
		in.Status = model.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		in.Priority = model.Priority(*req.Priority)
	}

	task, err := h.tasks.Create(c.Request.Context(), principal, teamID, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID godoc
// @Summary Get a task of a team
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param team_id path string true "Team ID"
// @Param task_id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /task/{team_id}/tasks/{task_id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "team_id", "team")
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "task_id", "task")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), principal, teamID, taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update godoc
// @Summary Partially update a task
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param team_id path string true "Team ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /task/{team_id}/update-task [put]
func (h *TaskHandler) Update(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "team_id", "team")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid task ID format"})
		return
	}

	patch := service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		patch.Priority = &priority
	}
	if patch.AssigneeID, err = parseOptionalID(req.AssigneeID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid assignee ID format"})
		return
	}
	if patch.ReviewerID, err = parseOptionalID(req.ReviewerID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid reviewer ID format"})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), principal, teamID, taskID, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete godoc
// @Summary Delete a task
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param team_id path string true "Team ID"
// @Param task_id query string false "Task ID, or send {\"task_id\"} in the body"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /task/{team_id}/delete-task [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "team_id", "team")
	if !ok {
		return
	}

	// task_id берем из query, а если его нет - из тела запроса
	raw := c.Query("task_id")
	if raw == "" {
		var req DeleteTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "task_id is required"})
			return
		}
		raw = req.TaskID
	}
	taskID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid task ID format"})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), principal, teamID, taskID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// SortFilter godoc
// @Summary Filter and sort tasks
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param status query string false "not_started | in_progress | in_review | reviewed | completed"
// @Param priority query string false "low | medium | high"
// @Param assignee_id query string false "Assignee user ID"
// @Param assignee query string false "Assignee username"
// @Param team_id query string false "Team ID"
// @Param sort_by query string false "deadline | created_at | updated_at | priority | status | title"
// @Param order query string false "asc | desc"
// @Success 200 {array} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Router /task/sortfilter [get]
func (h *TaskHandler) SortFilter(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.SortFilter(c.Request.Context(), principal, service.SortCriteria{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssigneeID: c.Query("assignee_id"),
		Assignee:   c.Query("assignee"),
		TeamID:     c.Query("team_id"),
		SortBy:     c.Query("sort_by"),
		Order:      c.Query("order"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}
