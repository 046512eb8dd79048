package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const DefaultBackground = "#4c6ef5"

// Column is a lane of a board. Tasks reference it by title.
type Column struct {
	Title string `json:"title"`
	Order int    `json:"order"`
}

type Board struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string                      `gorm:"not null"`
	Description string                      `gorm:"not null;default:''"`
	Background  string                      `gorm:"not null;default:'#4c6ef5'"`
	OwnerID     uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Columns     datatypes.JSONSlice[Column] `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner   User          `gorm:"foreignKey:OwnerID"`
	Members []BoardMember `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

// DefaultColumns is the lane set every new board starts with.
func DefaultColumns() []Column {
	return []Column{
		{Title: "To Do", Order: 0},
		{Title: "In Progress", Order: 1},
		{Title: "Done", Order: 2},
	}
}

func (b *Board) HasColumn(title string) bool {
	for _, c := range b.Columns {
		if c.Title == title {
			return true
		}
	}
	return false
}

// Member returns the membership row of userID, or nil.
func (b *Board) Member(userID uuid.UUID) *BoardMember {
	for i := range b.Members {
		if b.Members[i].UserID == userID {
			return &b.Members[i]
		}
	}
	return nil
}
