package handler

import (
	"context"
	"net/http"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TeamService - команды и их участники
type TeamService interface {
	Create(ctx context.Context, p auth.Principal, name string, orgID *uuid.UUID) (*model.Team, error)
	Delete(ctx context.Context, p auth.Principal, teamID uuid.UUID) error
	AddMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID, roleName string) (*model.TeamMembership, error)
	RemoveMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID) error
	ListMembers(ctx context.Context, p auth.Principal, teamID uuid.UUID) ([]model.TeamMembership, error)
	Roles(ctx context.Context) ([]model.Role, error)
}

type TeamHandler struct {
	teams TeamService
	log   *logrus.Logger
}

func NewTeamHandler(teams TeamService, log *logrus.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, log: log}
}

// CreateTeamRequest представляет запрос на создание команды
type CreateTeamRequest struct {
	Name           string  `json:"name" binding:"required"`
	OrganizationID *string `json:"organization_id" binding:"omitempty,uuid"`
}

// AddMemberRequest представляет запрос на добавление участника
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"omitempty,team_role"`
}

type RemoveMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type TeamResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	CreatedAt      string `json:"created_at"`
}

// MemberResponse представляет участника команды
type MemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type RoleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toTeamResponse(t *model.Team) TeamResponse {
	return TeamResponse{
		ID:             t.ID.String(),
		Name:           t.Name,
		OrganizationID: t.OrganizationID.String(),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
}

func toMemberResponse(m *model.TeamMembership) MemberResponse {
	resp := MemberResponse{
		UserID:   m.UserID.String(),
		Role:     m.RoleName(),
		IsActive: m.IsActive,
	}
	if m.User != nil {
		resp.Username = m.User.Username
		resp.Email = m.User.Email
	}
	return resp
}

// Create godoc
// @Summary Create a team
// @Tags Teams
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateTeamRequest true "Team"
// @Success 201 {object} TeamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /team-create [post]
func (h *TeamHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	orgID, err := parseOptionalID(req.OrganizationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid organization ID format"})
		return
	}

	team, err := h.teams.Create(c.Request.Context(), principal, req.Name, orgID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toTeamResponse(team))
}

// Delete godoc
// @Summary Delete a team with its tasks and memberships
// @Tags Teams
// @Security BearerAuth
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /team/{id} [delete]
func (h *TeamHandler) Delete(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id", "team")
	if !ok {
		return
	}

	if err := h.teams.Delete(c.Request.Context(), principal, teamID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Team deleted successfully"})
}

// AddMember godoc
// @Summary Add a user to a team
// @Tags Teams
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param request body AddMemberRequest true "Member"
// @Success 200 {object} MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /team/{id}/add-member [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id", "team")
	if !ok {
		return
	}

	// Парсим запрос
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format"})
		return
	}

	membership, err := h.teams.AddMember(c.Request.Context(), principal, teamID, userID, req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toMemberResponse(membership))
}

// RemoveMember godoc
// @Summary Remove a user from a team
// @Tags Teams
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param request body RemoveMemberRequest true "Member"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /team/{id}/remove-member [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id", "team")
	if !ok {
		return
	}

	var req RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format"})
		return
	}

	if err := h.teams.RemoveMember(c.Request.Context(), principal, teamID, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Member removed successfully"})
}

// ListMembers godoc
// @Summary List team members
// @Tags Teams
// @Security BearerAuth
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {array} MemberResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /team/{id}/members [get]
func (h *TeamHandler) ListMembers(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	teamID, ok := uuidParam(c, "id", "team")
	if !ok {
		return
	}

	members, err := h.teams.ListMembers(c.Request.Context(), principal, teamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, toMemberResponse(&members[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Roles godoc
// @Summary List the team role catalog
// @Tags Teams
// @Security BearerAuth
// @Produce json
// @Success 200 {array} RoleResponse
// @Router /roles [get]
func (h *TeamHandler) Roles(c *gin.Context) {
	roles, err := h.teams.Roles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse{ID: r.ID.String(), Name: r.Name})
	}
	c.JSON(http.StatusOK, out)
}
