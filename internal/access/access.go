// Package access derives what a user may do on a board.
//
// All rights flow from Resolve: the owner is always admin-equivalent, other
// users get the role recorded in the member list, everybody else gets nothing.
package access

import (
	"github.com/google/uuid"

	"taskboard/internal/model"
)

type Role int

const (
	RoleNone Role = iota
	RoleMember
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	}
	return "none"
}

// ParseRole maps a stored member role. Unknown values grant nothing.
func ParseRole(role string) Role {
	switch role {
	case model.RoleAdmin:
		return RoleAdmin
	case model.RoleMember:
		return RoleMember
	}
	return RoleNone
}

type Member struct {
	UserID uuid.UUID
	Role   Role
}

// Subject is the part of a board that access decisions depend on.
type Subject struct {
	OwnerID uuid.UUID
	Members []Member
}

func FromBoard(b *model.Board) Subject {
	s := Subject{OwnerID: b.OwnerID, Members: make([]Member, 0, len(b.Members))}
	for _, m := range b.Members {
		s.Members = append(s.Members, Member{UserID: m.UserID, Role: ParseRole(m.Role)})
	}
	return s
}

func Resolve(s Subject, userID uuid.UUID) Role {
	if userID == uuid.Nil {
		return RoleNone
	}
	if s.OwnerID == userID {
		return RoleOwner
	}
	for _, m := range s.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return RoleNone
}

func CanView(s Subject, userID uuid.UUID) bool {
	return Resolve(s, userID) >= RoleMember
}

func CanAdminister(s Subject, userID uuid.UUID) bool {
	return Resolve(s, userID) >= RoleAdmin
}

// CanDelete is reserved to the owner.
func CanDelete(s Subject, userID uuid.UUID) bool {
	return Resolve(s, userID) == RoleOwner
}
