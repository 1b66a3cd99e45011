package service

import (
	"context"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/google/uuid"
)

const recentLimit = 5

type UserDashboard struct {
	User          *model.User
	AssignedTasks []model.Task
	CreatedTasks  []model.Task
	ReviewTasks   []model.Task
}

type AdminDashboard struct {
	TotalTasks  int64
	TotalUsers  int64
	TotalTeams  int64
	RecentTasks []model.Task
	RecentUsers []model.User
	RecentTeams []model.Team
}

type TeamDashboard struct {
	Team            *model.Team
	AssignedTasks   []model.Task
	InProgressTasks []model.Task
	AwaitingReview  []model.Task
}

type DashboardService struct {
	store *repository.Store
}

func NewDashboardService(store *repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// User returns the tasks p is assigned to, created and reviews.
func (s *DashboardService) User(ctx context.Context, p auth.Principal) (*UserDashboard, error) {
	if err := policy.Authorize(p, policy.ViewUserDashboard, policy.Resource{OwnerID: p.UserID}); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, storeError("Failed to retrieve user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}

	d := &UserDashboard{User: user}
	id := p.UserID
	if d.AssignedTasks, err = s.store.Tasks.List(ctx, repository.TaskFilter{AssigneeID: &id}); err != nil {
		return nil, storeError("Failed to load assigned tasks", err)
	}
	if d.CreatedTasks, err = s.store.Tasks.List(ctx, repository.TaskFilter{CreatorID: &id}); err != nil {
		return nil, storeError("Failed to load created tasks", err)
	}
	if d.ReviewTasks, err = s.store.Tasks.List(ctx, repository.TaskFilter{ReviewerID: &id}); err != nil {
		return nil, storeError("Failed to load review tasks", err)
	}
	return d, nil
}

// Admin returns totals and the newest records of p's organization, or of the
// whole system for a super admin without one.
func (s *DashboardService) Admin(ctx context.Context, p auth.Principal) (*AdminDashboard, error) {
	hasAdmin, err := s.store.Memberships.HasAdminMembership(ctx, p.UserID)
	if err != nil {
		return nil, storeError("Failed to check memberships", err)
	}
	if err := policy.Authorize(p, policy.ViewAdminDashboard, policy.Resource{HasAdminMembership: hasAdmin}); err != nil {
		return nil, err
	}

	var scope *uuid.UUID
	if p.OrganizationID != nil {
		scope = p.OrganizationID
	} else if !p.IsSuperAdmin() {
		return &AdminDashboard{RecentTasks: []model.Task{}, RecentUsers: []model.User{}, RecentTeams: []model.Team{}}, nil
	}

	d := &AdminDashboard{}
	if d.TotalTasks, err = s.store.Tasks.Count(ctx, scope); err != nil {
		return nil, storeError("Failed to count tasks", err)
	}
	if d.TotalUsers, err = s.store.Users.Count(ctx, scope); err != nil {
		return nil, storeError("Failed to count users", err)
	}
	if d.TotalTeams, err = s.store.Teams.Count(ctx, scope); err != nil {
		return nil, storeError("Failed to count teams", err)
	}
	if d.RecentTasks, err = s.store.Tasks.List(ctx, repository.TaskFilter{
		OrganizationID: scope,
		SortBy:         repository.SortCreatedAt,
		Desc:           true,
		Limit:          recentLimit,
	}); err != nil {
		return nil, storeError("Failed to load recent tasks", err)
	}
	if d.RecentUsers, err = s.store.Users.Recent(ctx, scope, recentLimit); err != nil {
		return nil, storeError("Failed to load recent users", err)
	}
	if d.RecentTeams, err = s.store.Teams.Recent(ctx, scope, recentLimit); err != nil {
		return nil, storeError("Failed to load recent teams", err)
	}
	return d, nil
}

// Team returns p's tasks within teamID grouped by progress.
func (s *DashboardService) Team(ctx context.Context, p auth.Principal, teamID uuid.UUID) (*TeamDashboard, error) {
	team, err := loadTeam(ctx, s.store, teamID)
	if err != nil {
		return nil, err
	}
	membership, err := s.store.Memberships.Get(ctx, p.UserID, teamID)
	if err != nil {
		return nil, storeError("Failed to check membership", err)
	}
	if err := policy.Authorize(p, policy.ViewTeamDashboard, policy.Resource{
		OrganizationID: &team.OrganizationID,
		Membership:     membership,
	}); err != nil {
		return nil, err
	}

	id := p.UserID
	assigned, err := s.store.Tasks.List(ctx, repository.TaskFilter{TeamID: &team.ID, AssigneeID: &id})
	if err != nil {
		return nil, storeError("Failed to load team tasks", err)
	}

	d := &TeamDashboard{
		Team:            team,
		AssignedTasks:   assigned,
		InProgressTasks: []model.Task{},
		AwaitingReview:  []model.Task{},
	}
	for _, task := range assigned {
		switch task.Status {
		case model.StatusInProgress:
			d.InProgressTasks = append(d.InProgressTasks, task)
		case model.StatusInReview:
			d.AwaitingReview = append(d.AwaitingReview, task)
		}
	}
	return d, nil
}
