package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskboard/internal/access"
	"taskboard/internal/dto"
	"taskboard/internal/model"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"
)

type BoardService struct {
	boards BoardStore
	users  UserStore
	pub    realtime.Publisher
	log    *logrus.Logger
}

func NewBoardService(boards BoardStore, users UserStore, pub realtime.Publisher, log *logrus.Logger) *BoardService {
	return &BoardService{boards: boards, users: users, pub: pub, log: log}
}

// List returns the boards the user owns or belongs to.
func (s *BoardService) List(ctx context.Context, userID uuid.UUID) (_ []dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.List", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	boards, err := s.boards.ListForUser(ctx, userID)
	if err != nil {
		return nil, Unexpected("Failed to retrieve boards", err)
	}
	return dto.BoardsFromModel(boards), nil
}

func (s *BoardService) Get(ctx context.Context, userID, boardID uuid.UUID) (_ *dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.Get", boardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireView(board, userID); err != nil {
		return nil, err
	}
	out := dto.BoardFromModel(board)
	return &out, nil
}

// CanView reports whether the user may watch the board's events.
func (s *BoardService) CanView(ctx context.Context, userID, boardID uuid.UUID) error {
	_, err := s.Get(ctx, userID, boardID)
	return err
}

func (s *BoardService) Create(ctx context.Context, userID uuid.UUID, in CreateBoardInput) (_ *dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.Create", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Validation("Title is required")
	}
	background := strings.TrimSpace(in.Background)
	if background == "" {
		background = model.DefaultBackground
	}

	board := &model.Board{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Background:  background,
		OwnerID:     userID,
		Columns:     model.DefaultColumns(),
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, Unexpected("Failed to create board", err)
	}

	created, err := loadBoard(ctx, s.boards, board.ID)
	if err != nil {
		return nil, err
	}
	out := dto.BoardFromModel(created)
	return &out, nil
}

func (s *BoardService) Update(ctx context.Context, userID, boardID uuid.UUID, in UpdateBoardInput) (_ *dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.Update", boardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(board, userID, "edit this board"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, Validation("Title cannot be empty")
		}
		board.Title = title
	}
	if in.Description != nil {
		board.Description = strings.TrimSpace(*in.Description)
	}
	if in.Background != nil && strings.TrimSpace(*in.Background) != "" {
		board.Background = strings.TrimSpace(*in.Background)
	}

	if err := s.boards.Update(ctx, board); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, NotFound("Board not found")
		}
		return nil, Unexpected("Failed to update board", err)
	}

	out := dto.BoardFromModel(board)
	publish(ctx, s.pub, realtime.BoardUpdated, board.ID, out)
	return &out, nil
}

// Delete removes the board and everything on it. Only the owner may do this.
func (s *BoardService) Delete(ctx context.Context, userID, boardID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "BoardService.Delete", boardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return err
	}
	if !access.CanDelete(access.FromBoard(board), userID) {
		return Forbidden("Only the owner can delete this board")
	}

	if err := s.boards.Delete(ctx, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return NotFound("Board not found")
		}
		return Unexpected("Failed to delete board", err)
	}

	s.log.WithFields(logrus.Fields{"board_id": boardID, "user_id": userID}).Info("board deleted")
	publish(ctx, s.pub, realtime.BoardDeleted, boardID, dto.BoardDeletedPayload{BoardID: boardID})
	return nil
}

// AddMember invites the user registered under in.Email and returns the updated board.
func (s *BoardService) AddMember(ctx context.Context, userID, boardID uuid.UUID, in AddMemberInput) (_ *dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.AddMember", boardID)
	defer func() { finishSpan(span, err) }()

	role := in.Role
	if role == "" {
		role = model.RoleMember
	}
	if !model.ValidMemberRole(role) {
		return nil, Validation("Role must be admin or member")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, Validation("Email is required")
	}

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(board, userID, "add members"); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, Unexpected("Failed to retrieve user", err)
	}
	if user == nil {
		return nil, NotFound("User not found")
	}
	if user.ID == board.OwnerID || board.Member(user.ID) != nil {
		return nil, Validation("User is already a member of this board")
	}

	member := &model.BoardMember{BoardID: board.ID, UserID: user.ID, Role: role}
	if err := s.boards.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return nil, Validation("User is already a member of this board")
		}
		return nil, Unexpected("Failed to add member", err)
	}
	member.User = *user
	board.Members = append(board.Members, *member)

	publish(ctx, s.pub, realtime.MemberAdded, board.ID, dto.MemberAddedPayload{
		BoardID: board.ID,
		Member:  dto.MemberFromModel(*member),
	})

	out := dto.BoardFromModel(board)
	return &out, nil
}

// RemoveMember revokes access of memberID. The owner cannot be removed.
func (s *BoardService) RemoveMember(ctx context.Context, userID, boardID, memberID uuid.UUID) (_ *dto.Board, err error) {
	ctx, span := startSpan(ctx, "BoardService.RemoveMember", boardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(board, userID, "remove members"); err != nil {
		return nil, err
	}
	if memberID == board.OwnerID {
		return nil, Validation("Cannot remove the board owner")
	}
	if board.Member(memberID) == nil {
		return nil, NotFound("Member not found")
	}

	if err := s.boards.RemoveMember(ctx, boardID, memberID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, NotFound("Member not found")
		}
		return nil, Unexpected("Failed to remove member", err)
	}

	kept := board.Members[:0]
	for _, m := range board.Members {
		if m.UserID != memberID {
			kept = append(kept, m)
		}
	}
	board.Members = kept

	publish(ctx, s.pub, realtime.MemberRemoved, board.ID, dto.MemberRemovedPayload{
		BoardID: board.ID,
		UserID:  memberID,
	})

	out := dto.BoardFromModel(board)
	return &out, nil
}
