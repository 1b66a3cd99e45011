// Package policy is the authorization decision table. It performs no I/O:
// callers load the facts a decision needs into a Resource.
package policy

import (
	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"

	"github.com/google/uuid"
)

type Action string

const (
	CreateOrganization     Action = "create_organization"
	AssignOrganizationUser Action = "assign_organization_user"
	CreateTeam             Action = "create_team"
	DeleteTeam             Action = "delete_team"
	AddTeamMember          Action = "add_team_member"
	RemoveTeamMember       Action = "remove_team_member"
	ViewTeamMembers        Action = "view_team_members"
	CreateTask             Action = "create_task"
	ViewTask               Action = "view_task"
	UpdateTask             Action = "update_task"
	DeleteTask             Action = "delete_task"
	ViewUserDashboard      Action = "view_user_dashboard"
	ViewTeamDashboard      Action = "view_team_dashboard"
	ViewAdminDashboard     Action = "view_admin_dashboard"
)

// Resource holds what is known about the target of an action.
type Resource struct {
	// OrganizationID owns the target (team, task or organization itself).
	OrganizationID *uuid.UUID
	// Membership is the principal's membership in the target team, nil if none.
	Membership *model.TeamMembership
	Task       *model.Task
	// OwnerID is the user a personal resource belongs to.
	OwnerID uuid.UUID
	// HasAdminMembership is true when the principal is admin of at least one team.
	HasAdminMembership bool
}

var roleRank = map[string]int{
	model.TeamRoleMember:  1,
	model.TeamRoleManager: 2,
	model.TeamRoleAdmin:   3,
}

// teamRole returns the effective role of an active membership. Inactive or
// missing memberships grant nothing.
func teamRole(m *model.TeamMembership) (string, bool) {
	if m == nil || !m.IsActive {
		return "", false
	}
	return m.RoleName(), true
}

func hasTeamRole(m *model.TeamMembership, min string) bool {
	role, ok := teamRole(m)
	return ok && roleRank[role] >= roleRank[min]
}

// orgAdminOf is true for super admins and for admins of org.
func orgAdminOf(p auth.Principal, org *uuid.UUID) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return p.Role == model.UserRoleAdmin && org != nil && p.InOrganization(*org)
}

func sameUser(id uuid.UUID, ref *uuid.UUID) bool {
	return ref != nil && *ref == id
}

// Allowed evaluates the decision table.
func Allowed(p auth.Principal, a Action, r Resource) bool {
	switch a {
	case CreateOrganization:
		return p.IsSuperAdmin()

	case CreateTeam, DeleteTeam, AddTeamMember, RemoveTeamMember, AssignOrganizationUser:
		return orgAdminOf(p, r.OrganizationID)

	case ViewTeamMembers, ViewTeamDashboard:
		_, member := teamRole(r.Membership)
		return member || orgAdminOf(p, r.OrganizationID)

	case CreateTask, DeleteTask:
		return hasTeamRole(r.Membership, model.TeamRoleManager)

	case UpdateTask:
		if r.Task == nil {
			return false
		}
		if sameUser(p.UserID, r.Task.AssigneeID) || sameUser(p.UserID, r.Task.ReviewerID) {
			return true
		}
		return hasTeamRole(r.Membership, model.TeamRoleManager)

	case ViewTask:
		if r.Task == nil {
			return false
		}
		if sameUser(p.UserID, r.Task.AssigneeID) || sameUser(p.UserID, r.Task.ReviewerID) || r.Task.CreatorID == p.UserID {
			return true
		}
		_, member := teamRole(r.Membership)
		return member

	case ViewUserDashboard:
		return r.OwnerID == p.UserID

	case ViewAdminDashboard:
		return r.HasAdminMembership || p.IsOrgAdmin()
	}
	return false
}

var denyMessages = map[Action]string{
	CreateOrganization:     "Only Super Admin can create organizations",
	AssignOrganizationUser: "Not authorized to assign users to this organization",
	CreateTeam:             "Not authorized to create team",
	DeleteTeam:             "Not authorized to delete team",
	AddTeamMember:          "Not authorized to add team member",
	RemoveTeamMember:       "Not authorized to remove team member",
	ViewTeamMembers:        "You are not a member of this team",
	CreateTask:             "You do not have permission to create tasks in this team",
	ViewTask:               "You do not have permission to view this task",
	UpdateTask:             "You do not have permission to update this task",
	DeleteTask:             "You do not have permission to delete this task",
	ViewUserDashboard:      "You can only view your own dashboard",
	ViewTeamDashboard:      "You are not a member of this team",
	ViewAdminDashboard:     "You do not have permission to access the admin dashboard",
}

// Authorize returns nil when allowed and a Forbidden error otherwise.
func Authorize(p auth.Principal, a Action, r Resource) error {
	if Allowed(p, a, r) {
		return nil
	}
	msg, ok := denyMessages[a]
	if !ok {
		msg = "Forbidden"
	}
	return apperror.Forbidden(msg)
}

// RegistrationRole is the org role of a new registrant: the first user of an
// organization becomes its admin, everyone after that a member.
func RegistrationRole(existingUsersInOrg int64) string {
	if existingUsersInOrg == 0 {
		return model.UserRoleAdmin
	}
	return model.UserRoleMember
}
