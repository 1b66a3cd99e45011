package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Omit("Organization").Create(user).Error)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CountByOrganization counts users that belong to orgID.
func (r *UserRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}

// AssignOrganization moves a user into orgID with the given org role.
func (r *UserRepository) AssignOrganization(ctx context.Context, userID, orgID uuid.UUID, role string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"organization_id": orgID, "role": role}).Error
}

// Count counts users, limited to orgID when it is set.
func (r *UserRepository) Count(ctx context.Context, orgID *uuid.UUID) (int64, error) {
	var count int64
	err := scopeOrg(r.db.WithContext(ctx).Model(&model.User{}), "organization_id", orgID).Count(&count).Error
	return count, err
}

// Recent returns the newest users, limited to orgID when it is set.
func (r *UserRepository) Recent(ctx context.Context, orgID *uuid.UUID, limit int) ([]model.User, error) {
	var users []model.User
	err := scopeOrg(r.db.WithContext(ctx), "organization_id", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func scopeOrg(db *gorm.DB, column string, orgID *uuid.UUID) *gorm.DB {
	if orgID == nil {
		return db
	}
	return db.Where(column+" = ?", *orgID)
}
