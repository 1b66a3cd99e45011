package policy_test

import (
	"testing"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func membership(role string) *model.TeamMembership {
	m := &model.TeamMembership{IsActive: true}
	if role != "" {
		m.Role = &model.Role{Name: role}
	}
	return m
}

func TestAuthorize_DecisionTable(t *testing.T) {
	org := uuid.New()
	otherOrg := uuid.New()
	actor := uuid.New()
	someoneElse := uuid.New()

	member := auth.Principal{UserID: actor, OrganizationID: &org, Role: model.UserRoleMember}
	admin := auth.Principal{UserID: actor, OrganizationID: &org, Role: model.UserRoleAdmin}
	super := auth.Principal{UserID: actor, Role: model.UserRoleSuperAdmin}

	assignedTask := &model.Task{CreatorID: someoneElse, AssigneeID: &actor}
	reviewedTask := &model.Task{CreatorID: someoneElse, ReviewerID: &actor}
	foreignTask := &model.Task{CreatorID: someoneElse, AssigneeID: &someoneElse}

	inactive := membership(model.TeamRoleManager)
	inactive.IsActive = false

	tests := []struct {
		name    string
		p       auth.Principal
		action  policy.Action
		res     policy.Resource
		allowed bool
	}{
		{"super admin creates organization", super, policy.CreateOrganization, policy.Resource{}, true},
		{"admin cannot create organization", admin, policy.CreateOrganization, policy.Resource{}, false},

		{"admin creates team in own org", admin, policy.CreateTeam, policy.Resource{OrganizationID: &org}, true},
		{"admin cannot create team in other org", admin, policy.CreateTeam, policy.Resource{OrganizationID: &otherOrg}, false},
		{"member cannot create team", member, policy.CreateTeam, policy.Resource{OrganizationID: &org}, false},
		{"super admin creates team anywhere", super, policy.CreateTeam, policy.Resource{OrganizationID: &otherOrg}, true},
		{"admin adds member", admin, policy.AddTeamMember, policy.Resource{OrganizationID: &org}, true},
		{"team admin who is org member cannot add member", member, policy.AddTeamMember, policy.Resource{OrganizationID: &org, Membership: membership(model.TeamRoleAdmin)}, false},
		{"admin removes member", admin, policy.RemoveTeamMember, policy.Resource{OrganizationID: &org}, true},

		{"manager creates task", member, policy.CreateTask, policy.Resource{Membership: membership(model.TeamRoleManager)}, true},
		{"team admin creates task", member, policy.CreateTask, policy.Resource{Membership: membership(model.TeamRoleAdmin)}, true},
		{"plain member cannot create task", member, policy.CreateTask, policy.Resource{Membership: membership(model.TeamRoleMember)}, false},
		{"role-less membership is member", member, policy.CreateTask, policy.Resource{Membership: membership("")}, false},
		{"no membership denies task creation", member, policy.CreateTask, policy.Resource{}, false},
		{"org admin without membership cannot create task", admin, policy.CreateTask, policy.Resource{OrganizationID: &org}, false},
		{"inactive membership denies", member, policy.CreateTask, policy.Resource{Membership: inactive}, false},

		{"assignee updates task", member, policy.UpdateTask, policy.Resource{Task: assignedTask}, true},
		{"reviewer updates task", member, policy.UpdateTask, policy.Resource{Task: reviewedTask}, true},
		{"manager updates task", member, policy.UpdateTask, policy.Resource{Task: foreignTask, Membership: membership(model.TeamRoleManager)}, true},
		{"member cannot update foreign task", member, policy.UpdateTask, policy.Resource{Task: foreignTask, Membership: membership(model.TeamRoleMember)}, false},
		{"update without task denies", member, policy.UpdateTask, policy.Resource{}, false},

		{"manager deletes task", member, policy.DeleteTask, policy.Resource{Task: foreignTask, Membership: membership(model.TeamRoleManager)}, true},
		{"assignee cannot delete task", member, policy.DeleteTask, policy.Resource{Task: assignedTask, Membership: membership(model.TeamRoleMember)}, false},
		{"non member cannot delete task", member, policy.DeleteTask, policy.Resource{Task: foreignTask}, false},

		{"member views task of team", member, policy.ViewTask, policy.Resource{Task: foreignTask, Membership: membership("")}, true},
		{"assignee views task without membership", member, policy.ViewTask, policy.Resource{Task: assignedTask}, true},
		{"outsider cannot view task", member, policy.ViewTask, policy.Resource{Task: foreignTask}, false},

		{"own user dashboard", member, policy.ViewUserDashboard, policy.Resource{OwnerID: actor}, true},
		{"foreign user dashboard", member, policy.ViewUserDashboard, policy.Resource{OwnerID: someoneElse}, false},

		{"member views team dashboard", member, policy.ViewTeamDashboard, policy.Resource{Membership: membership("")}, true},
		{"org admin views team dashboard", admin, policy.ViewTeamDashboard, policy.Resource{OrganizationID: &org}, true},
		{"admin of other org cannot view team dashboard", admin, policy.ViewTeamDashboard, policy.Resource{OrganizationID: &otherOrg}, false},
		{"non member cannot view team dashboard", member, policy.ViewTeamDashboard, policy.Resource{OrganizationID: &org}, false},

		{"team admin views admin dashboard", member, policy.ViewAdminDashboard, policy.Resource{HasAdminMembership: true}, true},
		{"org admin views admin dashboard", admin, policy.ViewAdminDashboard, policy.Resource{}, true},
		{"member cannot view admin dashboard", member, policy.ViewAdminDashboard, policy.Resource{}, false},

		{"unknown action denies", super, policy.Action("launch_rockets"), policy.Resource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, policy.Allowed(tt.p, tt.action, tt.res))

			err := policy.Authorize(tt.p, tt.action, tt.res)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperror.ErrForbidden)
			}
		})
	}
}

func TestRegistrationRole(t *testing.T) {
	assert.Equal(t, model.UserRoleAdmin, policy.RegistrationRole(0))
	assert.Equal(t, model.UserRoleMember, policy.RegistrationRole(1))
	assert.Equal(t, model.UserRoleMember, policy.RegistrationRole(42))
}
