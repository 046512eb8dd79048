package handler

import (
	"context"
	"net/http"

	"taskboard/internal/dto"
	"taskboard/internal/reorder"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TaskService interface {
	ListByBoard(ctx context.Context, userID, boardID uuid.UUID) ([]dto.Task, error)
	Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*dto.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, in service.UpdateTaskInput) (*dto.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	Reorder(ctx context.Context, userID uuid.UUID, entries []reorder.Placement) ([]dto.Task, error)
	Move(ctx context.Context, userID, taskID uuid.UUID, in service.MoveTaskInput) ([]dto.Task, error)
}

var _ TaskService = (*service.TaskService)(nil)

type TaskHandler struct {
	tasks TaskService
	log   *logrus.Logger
}

func NewTaskHandler(tasks TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// GetByBoard возвращает задачи доски, отсортированные по колонке и позиции
func (h *TaskHandler) GetByBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "boardId", "board")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListByBoard(c.Request.Context(), userID, boardID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create добавляет задачу в конец колонки
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		BoardID:     req.Board,
		Column:      req.Column,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo.Value,
		DueDate:     req.DueDate.Value,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update обновляет только переданные поля. Смена колонки ставит задачу в конец новой колонки.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Column:      req.Column,
		Tags:        req.Tags,
		SetAssignee: req.AssignedTo.Set,
		AssignedTo:  req.AssignedTo.Value,
		SetDueDate:  req.DueDate.Set,
		DueDate:     req.DueDate.Value,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), userID, taskID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Reorder принимает пакет {id, column, order} после drag and drop.
// Пакет применяется целиком или не применяется вовсе.
func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	entries := make([]reorder.Placement, len(req.Tasks))
	for i, e := range req.Tasks {
		entries[i] = reorder.Placement{ID: e.ID, Column: e.Column, Order: e.Order}
	}
	tasks, err := h.tasks.Reorder(c.Request.Context(), userID, entries)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered successfully", "tasks": tasks})
}

func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "task")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	tasks, err := h.tasks.Move(c.Request.Context(), userID, taskID, service.MoveTaskInput{
		Column:    req.Column,
		Reference: req.Before,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task moved successfully", "tasks": tasks})
}
