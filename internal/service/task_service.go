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
	"taskboard/internal/reorder"
	"taskboard/internal/repository"
)

type TaskService struct {
	boards BoardStore
	tasks  TaskStore
	pub    realtime.Publisher
	log    *logrus.Logger
}

func NewTaskService(boards BoardStore, tasks TaskStore, pub realtime.Publisher, log *logrus.Logger) *TaskService {
	return &TaskService{boards: boards, tasks: tasks, pub: pub, log: log}
}

func (s *TaskService) ListByBoard(ctx context.Context, userID, boardID uuid.UUID) (_ []dto.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.ListByBoard", boardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireView(board, userID); err != nil {
		return nil, err
	}
	return s.listTasks(ctx, boardID)
}

// Create places the new task at the tail of its column.
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (_ *dto.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.Create", in.BoardID)
	defer func() { finishSpan(span, err) }()

	board, err := loadBoard(ctx, s.boards, in.BoardID)
	if err != nil {
		return nil, err
	}
	if err := requireView(board, userID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Validation("Title is required")
	}
	if !board.HasColumn(in.Column) {
		return nil, Validation("Column does not exist on this board")
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, Validation("Priority must be low, medium or high")
	}
	if err := checkAssignee(board, in.AssignedTo); err != nil {
		return nil, err
	}

	task := &model.Task{
		BoardID:     board.ID,
		Column:      in.Column,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   userID,
		DueDate:     in.DueDate,
		Tags:        normalizeTags(in.Tags),
	}
	if err := s.tasks.CreateAtTail(ctx, task); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, NotFound("Board not found")
		}
		return nil, Unexpected("Failed to create task", err)
	}

	out, err := s.reload(ctx, task)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.pub, realtime.TaskCreated, board.ID, out)
	return &out, nil
}

// Update applies a partial update. A column change appends the task to the
// tail of the new column and closes the gap it left behind.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateTaskInput) (_ *dto.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.Update", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	task, board, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, Validation("Title cannot be empty")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		if !model.ValidPriority(*in.Priority) {
			return nil, Validation("Priority must be low, medium or high")
		}
		task.Priority = *in.Priority
	}
	if in.SetAssignee {
		if err := checkAssignee(board, in.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = in.AssignedTo
		task.Assignee = nil
	}
	if in.SetDueDate {
		task.DueDate = in.DueDate
	}
	if in.Tags != nil {
		task.Tags = normalizeTags(*in.Tags)
	}

	var placements []reorder.Placement
	if in.Column != nil && *in.Column != task.Column {
		if !board.HasColumn(*in.Column) {
			return nil, Validation("Column does not exist on this board")
		}
		plan, err := s.plan(ctx, board.ID)
		if err != nil {
			return nil, err
		}
		if err := plan.Apply(reorder.Move{TaskID: task.ID, Column: *in.Column}); err != nil {
			return nil, moveError(err)
		}
		placements = plan.Changes()
	}

	if err := s.tasks.Update(ctx, task, placements); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, NotFound("Task not found")
		}
		return nil, Unexpected("Failed to update task", err)
	}

	out, err := s.reload(ctx, task)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.pub, realtime.TaskUpdated, board.ID, out)
	if shiftedOthers(placements, task.ID) {
		s.publishReordered(ctx, board.ID)
	}
	return &out, nil
}

// Delete removes the task. Remaining orders in its column are left as they
// are; the next reorder of that column makes them dense again.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "TaskService.Delete", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	task, board, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return NotFound("Task not found")
		}
		return Unexpected("Failed to delete task", err)
	}

	publish(ctx, s.pub, realtime.TaskDeleted, board.ID, task.ID)
	return nil
}

// Reorder applies a drag and drop batch of {id, column, order} entries.
// The batch is all or nothing: any unknown task fails the whole request and
// nothing is written.
func (s *TaskService) Reorder(ctx context.Context, userID uuid.UUID, entries []reorder.Placement) (_ []dto.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.Reorder", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	if err := reorder.ValidateBatch(entries); err != nil {
		return nil, ValidationErr("Invalid reorder request", err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	found, err := s.tasks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, Unexpected("Failed to retrieve tasks", err)
	}
	if len(found) != len(ids) {
		return nil, NotFound("Task not found")
	}
	boardID := found[0].BoardID
	for _, t := range found[1:] {
		if t.BoardID != boardID {
			return nil, Validation("Tasks must belong to a single board")
		}
	}

	board, err := loadBoard(ctx, s.boards, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireView(board, userID); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !board.HasColumn(e.Column) {
			return nil, Validation("Column does not exist on this board")
		}
	}

	plan, err := s.plan(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := plan.ApplyBatch(entries); err != nil {
		return nil, moveError(err)
	}
	return s.commit(ctx, boardID, plan.Changes())
}

// Move drops a single task next to a reference task or at a column tail.
func (s *TaskService) Move(ctx context.Context, userID, taskID uuid.UUID, in MoveTaskInput) (_ []dto.Task, err error) {
	ctx, span := startSpan(ctx, "TaskService.Move", uuid.Nil)
	defer func() { finishSpan(span, err) }()

	task, board, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !board.HasColumn(in.Column) {
		return nil, Validation("Column does not exist on this board")
	}

	plan, err := s.plan(ctx, board.ID)
	if err != nil {
		return nil, err
	}
	if err := plan.Apply(reorder.Move{TaskID: task.ID, Column: in.Column, Before: in.Reference}); err != nil {
		return nil, moveError(err)
	}
	return s.commit(ctx, board.ID, plan.Changes())
}

func (s *TaskService) commit(ctx context.Context, boardID uuid.UUID, changes []reorder.Placement) ([]dto.Task, error) {
	if err := s.tasks.ApplyPlacements(ctx, boardID, changes); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, NotFound("Task not found")
		}
		return nil, Unexpected("Failed to reorder tasks", err)
	}

	tasks, err := s.listTasks(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		publish(ctx, s.pub, realtime.TasksReordered, boardID, tasks)
	}
	s.log.WithFields(logrus.Fields{"board_id": boardID, "changed": len(changes)}).Debug("tasks reordered")
	return tasks, nil
}

func (s *TaskService) loadTask(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, *model.Board, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, nil, NotFound("Task not found")
		}
		return nil, nil, Unexpected("Failed to retrieve task", err)
	}
	board, err := loadBoard(ctx, s.boards, task.BoardID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireView(board, userID); err != nil {
		return nil, nil, err
	}
	return task, board, nil
}

func (s *TaskService) plan(ctx context.Context, boardID uuid.UUID) (*reorder.Board, error) {
	tasks, err := s.tasks.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, Unexpected("Failed to retrieve tasks", err)
	}
	items := make([]reorder.Item, len(tasks))
	for i, t := range tasks {
		items[i] = reorder.Item{ID: t.ID, Column: t.Column, Order: t.Order, CreatedAt: t.CreatedAt}
	}
	return reorder.NewBoard(items), nil
}

func (s *TaskService) listTasks(ctx context.Context, boardID uuid.UUID) ([]dto.Task, error) {
	tasks, err := s.tasks.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, Unexpected("Failed to retrieve tasks", err)
	}
	return dto.TasksFromModel(tasks), nil
}

func (s *TaskService) publishReordered(ctx context.Context, boardID uuid.UUID) {
	tasks, err := s.listTasks(ctx, boardID)
	if err != nil {
		s.log.WithError(err).WithField("board_id", boardID).Warn("skip tasks-reordered event")
		return
	}
	publish(ctx, s.pub, realtime.TasksReordered, boardID, tasks)
}

// reload fetches the task with its users for the response.
func (s *TaskService) reload(ctx context.Context, task *model.Task) (dto.Task, error) {
	fresh, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return dto.Task{}, Unexpected("Failed to retrieve task", err)
	}
	return dto.TaskFromModel(fresh), nil
}

// checkAssignee requires the assignee to be able to see the board.
func checkAssignee(board *model.Board, assignee *uuid.UUID) error {
	if assignee == nil {
		return nil
	}
	if !access.CanView(access.FromBoard(board), *assignee) {
		return Validation("Assignee must be a member of this board")
	}
	return nil
}

func moveError(err error) error {
	switch {
	case errors.Is(err, reorder.ErrUnknownTask):
		return NotFound("Task not found")
	case errors.Is(err, reorder.ErrUnknownReference):
		return Validation("Reference task not found on this board")
	case errors.Is(err, reorder.ErrReferenceColumn):
		return Validation("Reference task is in another column")
	}
	return Unexpected("Failed to plan move", err)
}

func shiftedOthers(placements []reorder.Placement, taskID uuid.UUID) bool {
	for _, p := range placements {
		if p.ID != taskID {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
