package service

import (
	"time"

	"github.com/google/uuid"
)

type CreateBoardInput struct {
	Title       string
	Description string
	Background  string
}

// UpdateBoardInput changes only the fields that are set.
type UpdateBoardInput struct {
	Title       *string
	Description *string
	Background  *string
}

type AddMemberInput struct {
	Email string
	Role  string
}

type CreateTaskInput struct {
	BoardID     uuid.UUID
	Column      string
	Title       string
	Description string
	Priority    string
	AssignedTo  *uuid.UUID
	DueDate     *time.Time
	Tags        []string
}

// UpdateTaskInput is a partial update. Assignee and due date can be cleared,
// so they carry an explicit Set flag.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Column      *string
	Tags        *[]string

	SetAssignee bool
	AssignedTo  *uuid.UUID

	SetDueDate bool
	DueDate    *time.Time
}

// MoveTaskInput drops a task into Column, before the Reference task or at
// the tail when Reference is nil.
type MoveTaskInput struct {
	Column    string
	Reference *uuid.UUID
}
