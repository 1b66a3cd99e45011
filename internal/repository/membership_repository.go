package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Get возвращает членство пользователя в команде вместе с ролью (или nil, если его нет)
func (r *MembershipRepository) Get(ctx context.Context, userID, teamID uuid.UUID) (*model.TeamMembership, error) {
	var membership model.TeamMembership

	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ? AND team_id = ?", userID, teamID).
		First(&membership).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// IsMember проверяет, есть ли у пользователя активное членство в команде
func (r *MembershipRepository) IsMember(ctx context.Context, userID, teamID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamMembership{}).
		Where("user_id = ? AND team_id = ? AND is_active = ?", userID, teamID, true).
		Count(&count).Error
	return count > 0, err
}

// Add добавляет пользователя в команду. Повторное добавление возвращает ErrDuplicate;
// уникальный индекс (user_id, team_id) ловит гонки, которые пропустила проверка.
func (r *MembershipRepository) Add(ctx context.Context, teamID, userID uuid.UUID, roleID *uuid.UUID) (*model.TeamMembership, error) {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.TeamMembership{}).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	membership := &model.TeamMembership{
		TeamID:   teamID,
		UserID:   userID,
		RoleID:   roleID,
		IsActive: true,
	}
	if err := db.Omit("Team", "User", "Role").Create(membership).Error; err != nil {
		return nil, translate(err)
	}
	return membership, nil
}

// Remove удаляет членство пользователя в команде
func (r *MembershipRepository) Remove(ctx context.Context, teamID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&model.TeamMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// ListByTeam возвращает участников команды с пользователями и ролями
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamMembership, error) {
	var memberships []model.TeamMembership

	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Role").
		Where("team_id = ?", teamID).
		Order("created_at").
		Find(&memberships).Error

	return memberships, err
}

// MemberIDs returns the user ids of the active members of a team.
func (r *MembershipRepository) MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.TeamMembership{}).
		Where("team_id = ? AND is_active = ?", teamID, true).
		Pluck("user_id", &ids).Error
	return ids, err
}

// HasAdminMembership reports whether the user is admin of at least one team.
func (r *MembershipRepository) HasAdminMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamMembership{}).
		Joins("JOIN roles ON roles.id = team_memberships.role_id").
		Where("team_memberships.user_id = ? AND team_memberships.is_active = ? AND roles.name = ?",
			userID, true, model.TeamRoleAdmin).
		Count(&count).Error
	return count > 0, err
}
