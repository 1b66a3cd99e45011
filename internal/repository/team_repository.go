package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	return translate(r.db.WithContext(ctx).Omit("Organization").Create(team).Error)
}

func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate that the team was not found
		}
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

// Delete removes a team together with its tasks and memberships. Callers run
// it inside a transaction.
func (r *TeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("team_id = ?", id).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := db.Where("team_id = ?", id).Delete(&model.TeamMembership{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Team{}, "id = ?", id).Error
}

func (r *TeamRepository) Count(ctx context.Context, orgID *uuid.UUID) (int64, error) {
	var count int64
	err := scopeOrg(r.db.WithContext(ctx).Model(&model.Team{}), "organization_id", orgID).Count(&count).Error
	return count, err
}

func (r *TeamRepository) Recent(ctx context.Context, orgID *uuid.UUID, limit int) ([]model.Team, error) {
	var teams []model.Team
	err := scopeOrg(r.db.WithContext(ctx), "organization_id", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&teams).Error
	return teams, err
}
