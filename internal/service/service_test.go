package service_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/database"
	"taskflow/internal/model"
	"taskflow/internal/notify"
	"taskflow/internal/repository"
	"taskflow/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recorder) Publish(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.notes...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

// env is an organization "Acme" with team "Platform":
// teamAdmin (team admin), manager (team manager), u2 and u3 (members),
// orgAdmin (org admin, no team), outsider (same org, no team),
// stranger (admin of another organization).
type env struct {
	ctx   context.Context
	store *repository.Store
	notes *recorder
	log   *logrus.Logger

	tasks      *service.TaskService
	teams      *service.TeamService
	orgs       *service.OrganizationService
	users      *service.UserService
	dashboards *service.DashboardService

	org   *model.Organization
	team  *model.Team
	other *model.Organization

	orgAdmin, teamAdmin, manager, u2, u3, outsider, stranger *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	e := &env{
		ctx:   context.Background(),
		store: repository.NewStore(db),
		notes: &recorder{},
		log:   log,
	}
	e.tasks = service.NewTaskService(e.store, e.notes, log)
	e.teams = service.NewTeamService(e.store, log)
	e.orgs = service.NewOrganizationService(e.store, log)
	e.users = service.NewUserService(e.store, auth.NewTokenManager("test-secret", 1), log).WithHashCost(4)
	e.dashboards = service.NewDashboardService(e.store)

	e.org = &model.Organization{Name: "Acme"}
	require.NoError(t, e.store.Organizations.Create(e.ctx, e.org))
	e.other = &model.Organization{Name: "Globex"}
	require.NoError(t, e.store.Organizations.Create(e.ctx, e.other))

	e.team = &model.Team{Name: "Platform", OrganizationID: e.org.ID}
	require.NoError(t, e.store.Teams.Create(e.ctx, e.team))

	e.orgAdmin = e.user(t, "olga", model.UserRoleAdmin, e.org)
	e.teamAdmin = e.user(t, "tom", model.UserRoleMember, e.org)
	e.manager = e.user(t, "pavel", model.UserRoleMember, e.org)
	e.u2 = e.user(t, "u2", model.UserRoleMember, e.org)
	e.u3 = e.user(t, "u3", model.UserRoleMember, e.org)
	e.outsider = e.user(t, "oscar", model.UserRoleMember, e.org)
	e.stranger = e.user(t, "sam", model.UserRoleAdmin, e.other)

	e.member(t, e.team, e.teamAdmin, model.TeamRoleAdmin)
	e.member(t, e.team, e.manager, model.TeamRoleManager)
	e.member(t, e.team, e.u2, model.TeamRoleMember)
	e.member(t, e.team, e.u3, model.TeamRoleMember)
	return e
}

func (e *env) user(t *testing.T, name, role string, org *model.Organization) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", HashedPassword: "x", Role: role}
	if org != nil {
		u.OrganizationID = &org.ID
	}
	require.NoError(t, e.store.Users.Create(e.ctx, u))
	return u
}

func (e *env) member(t *testing.T, team *model.Team, u *model.User, role string) {
	t.Helper()
	r, err := e.store.Roles.GetByName(e.ctx, role)
	require.NoError(t, err)
	_, err = e.store.Memberships.Add(e.ctx, team.ID, u.ID, &r.ID)
	require.NoError(t, err)
}

func as(u *model.User) auth.Principal {
	return auth.Principal{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role}
}

func (e *env) createTask(t *testing.T, title string, in service.CreateTaskInput) *model.Task {
	t.Helper()
	in.Title = title
	if in.Deadline == nil {
		deadline := time.Now().Add(48 * time.Hour)
		in.Deadline = &deadline
	}
	task, err := e.tasks.Create(e.ctx, as(e.manager), e.team.ID, in)
	require.NoError(t, err)
	return task
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
