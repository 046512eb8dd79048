package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
	"taskboard/internal/reorder"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func withUsers(db *gorm.DB) *gorm.DB {
	return db.Preload("Assignee").Preload("Creator")
}

// CreateAtTail inserts the task as the last one of its column.
// The board row is locked so concurrent creates get distinct positions.
func (r *TaskRepository) CreateAtTail(ctx context.Context, task *model.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", task.BoardID).First(&board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}

		var next int
		if err := tx.Model(&model.Task{}).
			Select("COALESCE(MAX(position) + 1, 0)").
			Where("board_id = ? AND column_title = ?", task.BoardID, task.Column).
			Scan(&next).Error; err != nil {
			return err
		}
		task.Order = next

		return tx.Omit(clause.Associations).Create(task).Error
	})
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := withUsers(r.db.WithContext(ctx)).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// ListByBoard returns every task of the board sorted by order.
func (r *TaskRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := withUsers(r.db.WithContext(ctx)).
		Where("board_id = ?", boardID).
		Order("position, created_at").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// FindByIDs loads the tasks that exist among ids; missing ids are simply absent.
func (r *TaskRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error
	return tasks, err
}

// Update saves the task's content fields and applies the placements produced
// by a column change, all in one transaction.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, placements []reorder.Placement) error {
	task.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Task{}).
			Where("id = ?", task.ID).
			Updates(map[string]any{
				"title":       task.Title,
				"description": task.Description,
				"priority":    task.Priority,
				"assigned_to": task.AssignedTo,
				"due_date":    task.DueDate,
				"tags":        task.Tags,
				"updated_at":  task.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return applyPlacements(tx, task.BoardID, placements, task.UpdatedAt)
	})
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ApplyPlacements writes a reorder result. Either every placement is written
// or none is: a row that does not match rolls the whole batch back.
func (r *TaskRepository) ApplyPlacements(ctx context.Context, boardID uuid.UUID, placements []reorder.Placement) error {
	if len(placements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyPlacements(tx, boardID, placements, time.Now())
	})
}

func applyPlacements(tx *gorm.DB, boardID uuid.UUID, placements []reorder.Placement, now time.Time) error {
	for _, p := range placements {
		result := tx.Model(&model.Task{}).
			Where("id = ? AND board_id = ?", p.ID, boardID).
			Updates(map[string]any{
				"column_title": p.Column,
				"position":     p.Order,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
	}
	return nil
}
