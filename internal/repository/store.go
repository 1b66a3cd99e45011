package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or one transaction.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Organizations *OrganizationRepository
	Teams         *TeamRepository
	Roles         *RoleRepository
	Memberships   *MembershipRepository
	Tasks         *TaskRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Organizations: NewOrganizationRepository(db),
		Teams:         NewTeamRepository(db),
		Roles:         NewRoleRepository(db),
		Memberships:   NewMembershipRepository(db),
		Tasks:         NewTaskRepository(db),
	}
}

// WithTx runs fn inside a single transaction. The transaction commits only if
// fn returns nil; a cancelled ctx rolls it back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
