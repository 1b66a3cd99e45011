package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/handler"
	"taskflow/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Create(ctx context.Context, p auth.Principal, name string, orgID *uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, p, name, orgID)
	if t := args.Get(0); t != nil {
		return t.(*model.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamService) Delete(ctx context.Context, p auth.Principal, teamID uuid.UUID) error {
	return m.Called(ctx, p, teamID).Error(0)
}

func (m *MockTeamService) AddMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID, roleName string) (*model.TeamMembership, error) {
	args := m.Called(ctx, p, teamID, userID, roleName)
	if ms := args.Get(0); ms != nil {
		return ms.(*model.TeamMembership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID) error {
	return m.Called(ctx, p, teamID, userID).Error(0)
}

func (m *MockTeamService) ListMembers(ctx context.Context, p auth.Principal, teamID uuid.UUID) ([]model.TeamMembership, error) {
	args := m.Called(ctx, p, teamID)
	if ms := args.Get(0); ms != nil {
		return ms.([]model.TeamMembership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamService) Roles(ctx context.Context) ([]model.Role, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]model.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func setupTeamRouter(p auth.Principal) (*gin.Engine, *MockTeamService) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withPrincipal(p))
	svc := new(MockTeamService)
	h := handler.NewTeamHandler(svc, quietLogger())

	r.POST("/team-create", h.Create)
	r.POST("/team/:id/add-member", h.AddMember)
	r.DELETE("/team/:id/remove-member", h.RemoveMember)
	r.GET("/team/:id/members", h.ListMembers)
	r.GET("/roles", h.Roles)
	return r, svc
}

func TestTeamHandler_Create(t *testing.T) {
	me := auth.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
	router, svc := setupTeamRouter(me)
	team := &model.Team{ID: uuid.New(), Name: "Platform", OrganizationID: uuid.New()}
	svc.On("Create", mock.Anything, me, "Platform", (*uuid.UUID)(nil)).Return(team, nil)

	resp := doJSON(router, http.MethodPost, "/team-create", map[string]string{"name": "Platform"})

	require.Equal(t, http.StatusCreated, resp.Code)
	var got handler.TeamResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, team.ID.String(), got.ID)
	svc.AssertExpectations(t)
}

func TestTeamHandler_AddMember(t *testing.T) {
	me := auth.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
	router, svc := setupTeamRouter(me)
	teamID, userID := uuid.New(), uuid.New()
	svc.On("AddMember", mock.Anything, me, teamID, userID, "manager").Return(&model.TeamMembership{
		UserID:   userID,
		TeamID:   teamID,
		IsActive: true,
		Role:     &model.Role{Name: model.TeamRoleManager},
	}, nil)

	resp := doJSON(router, http.MethodPost, "/team/"+teamID.String()+"/add-member", map[string]string{
		"user_id": userID.String(),
		"role":    "manager",
	})

	require.Equal(t, http.StatusOK, resp.Code)
	var got handler.MemberResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "manager", got.Role)
	assert.True(t, got.IsActive)
}

func TestTeamHandler_AddMemberTwiceIsConflict(t *testing.T) {
	me := auth.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
	router, svc := setupTeamRouter(me)
	teamID, userID := uuid.New(), uuid.New()
	svc.On("AddMember", mock.Anything, me, teamID, userID, "").
		Return(nil, apperror.Conflict("User is already a member of the team"))

	resp := doJSON(router, http.MethodPost, "/team/"+teamID.String()+"/add-member", map[string]string{"user_id": userID.String()})

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "already a member")
}

func TestTeamHandler_AddMemberRejectsUnknownRole(t *testing.T) {
	me := auth.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
	router, svc := setupTeamRouter(me)

	resp := doJSON(router, http.MethodPost, "/team/"+uuid.NewString()+"/add-member", map[string]string{
		"user_id": uuid.NewString(),
		"role":    "owner",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	svc.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTeamHandler_RemoveMissingMemberIsNotFound(t *testing.T) {
	me := auth.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
	router, svc := setupTeamRouter(me)
	teamID, userID := uuid.New(), uuid.New()
	svc.On("RemoveMember", mock.Anything, me, teamID, userID).Return(apperror.NotFound("User is not a member of the team"))

	resp := doJSON(router, http.MethodDelete, "/team/"+teamID.String()+"/remove-member", map[string]string{"user_id": userID.String()})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTeamHandler_ListMembersAndRoles(t *testing.T) {
	me := auth.Principal{UserID: uuid.New()}
	router, svc := setupTeamRouter(me)
	teamID := uuid.New()
	svc.On("ListMembers", mock.Anything, me, teamID).Return([]model.TeamMembership{
		{UserID: uuid.New(), IsActive: true, User: &model.User{Username: "u2"}},
	}, nil)
	svc.On("Roles", mock.Anything).Return([]model.Role{{ID: uuid.New(), Name: "admin"}}, nil)

	resp := doJSON(router, http.MethodGet, "/team/"+teamID.String()+"/members", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	// роль не задана - участник считается member
	assert.Contains(t, resp.Body.String(), `"role":"member"`)
	assert.Contains(t, resp.Body.String(), `"username":"u2"`)

	resp = doJSON(router, http.MethodGet, "/roles", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"admin"`)
}
