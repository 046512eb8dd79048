package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID      `gorm:"type:uuid;not null;index:tasks_board_column_position"`
	Column      string         `gorm:"column:column_title;not null;index:tasks_board_column_position"`
	Order       int            `gorm:"column:position;not null;index:tasks_board_column_position"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"not null;default:''"`
	Priority    string         `gorm:"not null;default:'medium'"`
	AssignedTo  *uuid.UUID     `gorm:"type:uuid"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null"`
	DueDate     *time.Time
	Tags        pq.StringArray `gorm:"type:text[]"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Assignee *User `gorm:"foreignKey:AssignedTo"`
	Creator  User  `gorm:"foreignKey:CreatedBy"`
}
