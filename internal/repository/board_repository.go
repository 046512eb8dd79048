package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func withMembers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Members.User")
}

// Create inserts the board together with its owner as an admin member.
func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	if board.ID == uuid.Nil {
		board.ID = uuid.New()
	}
	owner := model.BoardMember{
		ID:      uuid.New(),
		BoardID: board.ID,
		UserID:  board.OwnerID,
		Role:    model.RoleAdmin,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(board).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&owner).Error
	})
	if err != nil {
		return err
	}

	board.Members = []model.BoardMember{owner}
	return nil
}

// ListForUser returns boards the user owns or is a member of, most recently updated first.
func (r *BoardRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	db := r.db.WithContext(ctx)
	memberOf := db.Model(&model.BoardMember{}).Select("board_id").Where("user_id = ?", userID)

	var boards []model.Board
	err := withMembers(db).
		Where("owner_id = ? OR id IN (?)", userID, memberOf).
		Order("updated_at DESC").
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := withMembers(r.db.WithContext(ctx)).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate that the board was not found
		}
		return nil, err
	}
	return &board, nil
}

// Update writes the editable board fields.
func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	board.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", board.ID).
		Updates(map[string]any{
			"title":       board.Title,
			"description": board.Description,
			"background":  board.Background,
			"updated_at":  board.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Delete removes the board with its tasks and memberships in one transaction.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&model.BoardMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Board{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBoardNotFound
		}
		return nil
	})
}

// AddMember inserts a membership row.
func (r *BoardRepository) AddMember(ctx context.Context, member *model.BoardMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}

// RemoveMember удаляет доступ пользователя к доске
func (r *BoardRepository) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&model.BoardMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
