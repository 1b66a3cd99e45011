package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name         string     `gorm:"uniqueIndex;not null"`
	SuperAdminID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type Team struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"uniqueIndex;not null"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}
