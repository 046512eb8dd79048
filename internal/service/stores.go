package service

import (
	"context"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/reorder"
)

// BoardStore is implemented by repository.BoardRepository.
type BoardStore interface {
	Create(ctx context.Context, board *model.Board) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error)
	// GetByID returns nil, nil when the board does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *model.BoardMember) error
	RemoveMember(ctx context.Context, boardID, userID uuid.UUID) error
}

// TaskStore is implemented by repository.TaskRepository.
type TaskStore interface {
	CreateAtTail(ctx context.Context, task *model.Task) error
	// GetByID returns repository.ErrTaskNotFound when the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Task, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task, placements []reorder.Placement) error
	Delete(ctx context.Context, id uuid.UUID) error
	ApplyPlacements(ctx context.Context, boardID uuid.UUID, placements []reorder.Placement) error
}

// UserStore is the read side of repository.UserRepository.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}
