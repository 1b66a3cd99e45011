package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team roles, ordered admin > manager > member.
const (
	TeamRoleAdmin   = "admin"
	TeamRoleManager = "manager"
	TeamRoleMember  = "member"
)

// TeamRoles lists the seeded role catalog.
var TeamRoles = []string{TeamRoleAdmin, TeamRoleManager, TeamRoleMember}

// Role is a catalog entry referenced by TeamMembership.
type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"uniqueIndex;not null"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// TeamMembership связывает пользователя с командой; пара (user, team) уникальна
type TeamMembership struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_team"`
	TeamID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_team;index"`
	RoleID    *uuid.UUID `gorm:"type:uuid"`
	IsActive  bool       `gorm:"not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`

	Team *Team `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Role *Role `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL"`
}

func (m *TeamMembership) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// RoleName returns the effective team role. A membership without a role is a
// plain member.
func (m *TeamMembership) RoleName() string {
	if m.Role == nil || m.Role.Name == "" {
		return TeamRoleMember
	}
	return m.Role.Name
}

// IsValidTeamRole reports whether name is a catalog role.
func IsValidTeamRole(name string) bool {
	for _, r := range TeamRoles {
		if r == name {
			return true
		}
	}
	return false
}
