package handler

import (
	"context"
	"net/http"

	"taskflow/internal/auth"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DashboardService interface {
	User(ctx context.Context, p auth.Principal) (*service.UserDashboard, error)
	Admin(ctx context.Context, p auth.Principal) (*service.AdminDashboard, error)
	Team(ctx context.Context, p auth.Principal, teamID uuid.UUID) (*service.TeamDashboard, error)
}

type DashboardHandler struct {
	dashboards DashboardService
	log        *logrus.Logger
}

func NewDashboardHandler(dashboards DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, log: log}
}

type UserDashboardResponse struct {
	User          UserResponse   `json:"user"`
	AssignedTasks []TaskResponse `json:"assigned_tasks"`
	CreatedTasks  []TaskResponse `json:"created_tasks"`
	ReviewTasks   []TaskResponse `json:"review_tasks"`
}

type AdminDashboardResponse struct {
	TotalTasks  int64          `json:"total_tasks"`
	TotalUsers  int64          `json:"total_users"`
	TotalTeams  int64          `json:"total_teams"`
	RecentTasks []TaskResponse `json:"recent_tasks"`
	RecentUsers []UserResponse `json:"recent_users"`
	RecentTeams []TeamResponse `json:"recent_teams"`
}

type TeamDashboardResponse struct {
	Team            TeamResponse   `json:"team"`
	AssignedTasks   []TaskResponse `json:"assigned_tasks"`
	InProgressTasks []TaskResponse `json:"in_progress_tasks"`
	AwaitingReview  []TaskResponse `json:"awaiting_review"`
}

// User godoc
// @Summary Tasks assigned to, created by and reviewed by the caller
// @Tags Dashboards
// @Security BearerAuth
// @Produce json
// @Success 200 {object} UserDashboardResponse
// @Router /dashboard/user-dashboard [get]
func (h *DashboardHandler) User(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	d, err := h.dashboards.User(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, UserDashboardResponse{
		User:          toUserResponse(d.User),
		AssignedTasks: toTaskResponses(d.AssignedTasks),
		CreatedTasks:  toTaskResponses(d.CreatedTasks),
		ReviewTasks:   toTaskResponses(d.ReviewTasks),
	})
}

// Admin godoc
// @Summary Organization totals and recent activity
// @Tags Dashboards
// @Security BearerAuth
// @Produce json
// @Success 200 {object} AdminDashboardResponse
// @Failure 403 {object} ErrorResponse
// @Router /dashboard/admin-dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	d, err := h.dashboards.Admin(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	users := make([]UserResponse, 0, len(d.RecentUsers))
	for i := range d.RecentUsers {
		users = append(users, toUserResponse(&d.RecentUsers[i]))
	}
	teams := make([]TeamResponse, 0, len(d.RecentTeams))
	for i := range d.RecentTeams {
		teams = append(teams, toTeamResponse(&d.RecentTeams[i]))
	}
	c.JSON(http.StatusOK, AdminDashboardResponse{
		TotalTasks:  d.TotalTasks,
		TotalUsers:  d.TotalUsers,
		TotalTeams:  d.TotalTeams,
		RecentTasks: toTaskResponses(d.RecentTasks),
		RecentUsers: users,
		RecentTeams: teams,
	})
}

// Team godoc
// @Summary Open work of a team
// @Tags Dashboards
// @Security BearerAuth
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} TeamDashboardResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /dashboard/team-dashboard/{team_id} [get]
func (h *DashboardHandler) Team(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "team_id", "team")
	if !ok {
		return
	}
	d, err := h.dashboards.Team(c.Request.Context(), principal, teamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, TeamDashboardResponse{
		Team:            toTeamResponse(d.Team),
		AssignedTasks:   toTaskResponses(d.AssignedTasks),
		InProgressTasks: toTaskResponses(d.InProgressTasks),
		AwaitingReview:  toTaskResponses(d.AwaitingReview),
	})
}

