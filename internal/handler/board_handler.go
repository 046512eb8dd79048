package handler

import (
	"context"
	"net/http"
	"strings"

	"taskboard/internal/dto"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BoardService is the part of service.BoardService the HTTP layer needs.
type BoardService interface {
	List(ctx context.Context, userID uuid.UUID) ([]dto.Board, error)
	Get(ctx context.Context, userID, boardID uuid.UUID) (*dto.Board, error)
	CanView(ctx context.Context, userID, boardID uuid.UUID) error
	Create(ctx context.Context, userID uuid.UUID, in service.CreateBoardInput) (*dto.Board, error)
	Update(ctx context.Context, userID, boardID uuid.UUID, in service.UpdateBoardInput) (*dto.Board, error)
	Delete(ctx context.Context, userID, boardID uuid.UUID) error
	AddMember(ctx context.Context, userID, boardID uuid.UUID, in service.AddMemberInput) (*dto.Board, error)
	RemoveMember(ctx context.Context, userID, boardID, memberID uuid.UUID) (*dto.Board, error)
}

var _ BoardService = (*service.BoardService)(nil)

type BoardHandler struct {
	boards BoardService
	log    *logrus.Logger
}

func NewBoardHandler(boards BoardService, log *logrus.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, log: log}
}

// GetAll возвращает доски, где пользователь владелец или участник.
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boards, err := h.boards.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	board, err := h.boards.Get(c.Request.Context(), userID, boardID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Create creates a new board owned by the authenticated user
func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	board, err := h.boards.Create(c.Request.Context(), userID, service.CreateBoardInput{
		Title:       req.Title,
		Description: req.Description,
		Background:  req.Background,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	board, err := h.boards.Update(c.Request.Context(), userID, boardID, service.UpdateBoardInput{
		Title:       req.Title,
		Description: req.Description,
		Background:  req.Background,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Delete удаляет доску вместе с задачами. Только владелец.
func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	if err := h.boards.Delete(c.Request.Context(), userID, boardID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

func (h *BoardHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	board, err := h.boards.AddMember(c.Request.Context(), userID, boardID, service.AddMemberInput{
		Email: strings.TrimSpace(req.Email),
		Role:  req.Role,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	memberID, ok := uuidParam(c, "userId", "user")
	if !ok {
		return
	}
	board, err := h.boards.RemoveMember(c.Request.Context(), userID, boardID, memberID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
