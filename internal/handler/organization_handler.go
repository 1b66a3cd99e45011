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

type OrganizationService interface {
	Create(ctx context.Context, p auth.Principal, name string) (*model.Organization, error)
	AssignUser(ctx context.Context, p auth.Principal, orgID, userID uuid.UUID) (*model.User, error)
}

type OrganizationHandler struct {
	orgs OrganizationService
	log  *logrus.Logger
}

func NewOrganizationHandler(orgs OrganizationService, log *logrus.Logger) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, log: log}
}

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

type OrganizationResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SuperAdminID *string `json:"super_admin_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// Create godoc
// @Summary Create an organization (super admin only)
// @Tags Organizations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateOrganizationRequest true "Organization"
// @Success 201 {object} OrganizationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organization/create [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	// Parse request body
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	org, err := h.orgs.Create(c.Request.Context(), principal, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, OrganizationResponse{
		ID:           org.ID.String(),
		Name:         org.Name,
		SuperAdminID: idString(org.SuperAdminID),
		CreatedAt:    org.CreatedAt.Format(time.RFC3339),
	})
}

// AssignUser godoc
// @Summary Attach a user to an organization
// @Tags Organizations
// @Security BearerAuth
// @Produce json
// @Param org_id path string true "Organization ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations/{org_id}/add_user/{user_id} [post]
func (h *OrganizationHandler) AssignUser(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "org_id", "organization")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id", "user")
	if !ok {
		return
	}

	user, err := h.orgs.AssignUser(c.Request.Context(), principal, orgID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
