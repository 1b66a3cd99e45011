package handler

import (
	"context"
	"net/http"

	"taskflow/internal/model"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserService - регистрация и вход
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

type UserHandler struct {
	users UserService
	log   *logrus.Logger
}

func NewUserHandler(users UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type RegisterRequest struct {
	Username       string  `json:"username" binding:"required,min=2"`
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required,min=6"`
	OrganizationID *string `json:"organization_id" binding:"omitempty,uuid"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: idString(u.OrganizationID),
	}
}

// Register godoc
// @Summary Register a user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New user"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return
	}

	orgID, err := parseOptionalID(req.OrganizationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid organization ID format"})
		return
	}

	res, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		OrganizationID: orgID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: res.Token, User: toUserResponse(res.User)})
}

// Login godoc
// @Summary Log in and receive a JWT
// @Tags Users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: res.Token, User: toUserResponse(res.User)})
}
