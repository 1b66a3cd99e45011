package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusReviewed   TaskStatus = "reviewed"
	StatusCompleted  TaskStatus = "completed"
)

var TaskStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusInReview, StatusReviewed, StatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities low < medium < high; unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// Task titles are unique within an organization.
type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title          string     `gorm:"not null;uniqueIndex:idx_task_org_title"`
	Description    string
	Status         TaskStatus `gorm:"not null;index"`
	Priority       Priority   `gorm:"not null"`
	Deadline       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatorID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssigneeID     *uuid.UUID `gorm:"type:uuid;index"`
	ReviewerID     *uuid.UUID `gorm:"type:uuid;index"`
	TeamID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_task_org_title"`

	Team         *Team         `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	Creator      *User         `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Assignee     *User         `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL"`
	Reviewer     *User         `gorm:"foreignKey:ReviewerID;constraint:OnDelete:SET NULL"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

// AllModels is the AutoMigrate set, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&Team{},
		&Role{},
		&TeamMembership{},
		&Task{},
	}
}
