package service

import (
	"context"
	"errors"
	"strings"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TeamService struct {
	store *repository.Store
	log   *logrus.Logger
}

func NewTeamService(store *repository.Store, log *logrus.Logger) *TeamService {
	return &TeamService{store: store, log: log}
}

// loadTeam returns NotFound for a missing team.
func loadTeam(ctx context.Context, tx *repository.Store, teamID uuid.UUID) (*model.Team, error) {
	team, err := tx.Teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, storeError("Failed to retrieve team", err)
	}
	if team == nil {
		return nil, apperror.NotFound("Team not found")
	}
	return team, nil
}

// Create adds a team to orgID, or to p's organization when orgID is nil.
func (s *TeamService) Create(ctx context.Context, p auth.Principal, name string, orgID *uuid.UUID) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.BadRequest("Team name is required")
	}
	if orgID == nil {
		orgID = p.OrganizationID
	}
	if orgID == nil {
		return nil, apperror.BadRequest("organization_id is required")
	}

	var team *model.Team
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		org, err := tx.Organizations.GetByID(ctx, *orgID)
		if err != nil {
			return storeError("Failed to retrieve organization", err)
		}
		if org == nil {
			return apperror.NotFound("Organization not found")
		}
		if err := policy.Authorize(p, policy.CreateTeam, policy.Resource{OrganizationID: &org.ID}); err != nil {
			return err
		}

		existing, err := tx.Teams.FindByName(ctx, name)
		if err != nil {
			return storeError("Failed to check team name", err)
		}
		if existing != nil {
			return apperror.Conflict("Team with this name already exists")
		}

		team = &model.Team{Name: name, OrganizationID: org.ID}
		if err := tx.Teams.Create(ctx, team); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("Team with this name already exists")
			}
			return storeError("Failed to create team", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"team_id": team.ID, "user_id": p.UserID}).Info("team created")
	return team, nil
}

// Delete removes a team with its tasks and memberships.
func (s *TeamService) Delete(ctx context.Context, p auth.Principal, teamID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		team, err := loadTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(p, policy.DeleteTeam, policy.Resource{OrganizationID: &team.OrganizationID}); err != nil {
			return err
		}
		if err := tx.Teams.Delete(ctx, team.ID); err != nil {
			return storeError("Failed to delete team", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "user_id": p.UserID}).Info("team deleted")
	return nil
}

// AddMember adds userID to teamID with roleName, member when empty. The user
// must belong to the team's organization.
func (s *TeamService) AddMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID, roleName string) (*model.TeamMembership, error) {
	if roleName == "" {
		roleName = model.TeamRoleMember
	}
	if !model.IsValidTeamRole(roleName) {
		return nil, apperror.BadRequest("Invalid role")
	}

	var membership *model.TeamMembership
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		team, err := loadTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(p, policy.AddTeamMember, policy.Resource{OrganizationID: &team.OrganizationID}); err != nil {
			return err
		}

		user, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return storeError("Failed to retrieve user", err)
		}
		if user == nil {
			return apperror.NotFound("User not found")
		}
		if user.OrganizationID == nil || *user.OrganizationID != team.OrganizationID {
			return apperror.BadRequest("User does not belong to the team's organization")
		}

		role, err := tx.Roles.GetByName(ctx, roleName)
		if err != nil {
			return storeError("Failed to retrieve role", err)
		}
		if role == nil {
			return apperror.BadRequest("Invalid role")
		}

		membership, err = tx.Memberships.Add(ctx, team.ID, user.ID, &role.ID)
		if err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("User is already a member of the team")
			}
			return storeError("Failed to add team member", err)
		}
		membership.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "member_id": userID, "role": roleName}).Info("team member added")
	return membership, nil
}

// RemoveMember deletes the membership of userID in teamID.
func (s *TeamService) RemoveMember(ctx context.Context, p auth.Principal, teamID, userID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		team, err := loadTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(p, policy.RemoveTeamMember, policy.Resource{OrganizationID: &team.OrganizationID}); err != nil {
			return err
		}
		if err := tx.Memberships.Remove(ctx, team.ID, userID); err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return apperror.NotFound("User is not a member of the team")
			}
			return storeError("Failed to remove team member", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"team_id": teamID, "member_id": userID}).Info("team member removed")
	return nil
}

// ListMembers returns the memberships of teamID with users and roles loaded.
func (s *TeamService) ListMembers(ctx context.Context, p auth.Principal, teamID uuid.UUID) ([]model.TeamMembership, error) {
	team, err := loadTeam(ctx, s.store, teamID)
	if err != nil {
		return nil, err
	}
	membership, err := s.store.Memberships.Get(ctx, p.UserID, teamID)
	if err != nil {
		return nil, storeError("Failed to check membership", err)
	}
	if err := policy.Authorize(p, policy.ViewTeamMembers, policy.Resource{
		OrganizationID: &team.OrganizationID,
		Membership:     membership,
	}); err != nil {
		return nil, err
	}

	members, err := s.store.Memberships.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("Failed to list team members", err)
	}
	return members, nil
}

// Roles returns the team role catalog.
func (s *TeamService) Roles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.store.Roles.List(ctx)
	if err != nil {
		return nil, storeError("Failed to list roles", err)
	}
	return roles, nil
}
