package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization-scoped user roles. They are independent of the per-team role
// carried by TeamMembership.
const (
	UserRoleSuperAdmin = "super_admin"
	UserRoleAdmin      = "admin"
	UserRoleMember     = "member"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username       string     `gorm:"uniqueIndex;not null"`
	Email          string     `gorm:"uniqueIndex;not null"`
	HashedPassword string     `gorm:"not null"`
	Role           string     `gorm:"not null"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:SET NULL"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = UserRoleMember
	}
	return nil
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
