package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return translate(r.db.WithContext(ctx).Create(org).Error)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// GetByIDForUpdate блокирует строку организации до конца транзакции, чтобы
// регистрации в одну организацию выполнялись по очереди.
func (r *OrganizationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *OrganizationRepository) first(q *gorm.DB, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := q.Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByName(ctx context.Context, name string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
