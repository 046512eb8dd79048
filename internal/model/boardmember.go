package model

import (
	"time"

	"github.com/google/uuid"
)

// BoardMember grants a user access to a board.
type BoardMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:board_members_board_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:board_members_board_user;index"`
	Role      string    `gorm:"not null;check:role IN ('admin', 'member')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}

const (
	RoleAdmin  = "admin"  // may edit the board and manage members
	RoleMember = "member" // may view the board and work on its tasks
)

func ValidMemberRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
