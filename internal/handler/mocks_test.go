package handler_test

import (
	"context"

	"taskboard/internal/dto"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/reorder"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

// Мок сервиса досок
type MockBoardService struct {
	mock.Mock
}

func boardOrNil(v any) *dto.Board {
	if v == nil {
		return nil
	}
	return v.(*dto.Board)
}

func (m *MockBoardService) List(ctx context.Context, userID uuid.UUID) ([]dto.Board, error) {
	args := m.Called(ctx, userID)
	boards, _ := args.Get(0).([]dto.Board)
	return boards, args.Error(1)
}

func (m *MockBoardService) Get(ctx context.Context, userID, boardID uuid.UUID) (*dto.Board, error) {
	args := m.Called(ctx, userID, boardID)
	return boardOrNil(args.Get(0)), args.Error(1)
}

func (m *MockBoardService) CanView(ctx context.Context, userID, boardID uuid.UUID) error {
	args := m.Called(ctx, userID, boardID)
	return args.Error(0)
}

func (m *MockBoardService) Create(ctx context.Context, userID uuid.UUID, in service.CreateBoardInput) (*dto.Board, error) {
	args := m.Called(ctx, userID, in)
	return boardOrNil(args.Get(0)), args.Error(1)
}

func (m *MockBoardService) Update(ctx context.Context, userID, boardID uuid.UUID, in service.UpdateBoardInput) (*dto.Board, error) {
	args := m.Called(ctx, userID, boardID, in)
	return boardOrNil(args.Get(0)), args.Error(1)
}

func (m *MockBoardService) Delete(ctx context.Context, userID, boardID uuid.UUID) error {
	args := m.Called(ctx, userID, boardID)
	return args.Error(0)
}

func (m *MockBoardService) AddMember(ctx context.Context, userID, boardID uuid.UUID, in service.AddMemberInput) (*dto.Board, error) {
	args := m.Called(ctx, userID, boardID, in)
	return boardOrNil(args.Get(0)), args.Error(1)
}

func (m *MockBoardService) RemoveMember(ctx context.Context, userID, boardID, memberID uuid.UUID) (*dto.Board, error) {
	args := m.Called(ctx, userID, boardID, memberID)
	return boardOrNil(args.Get(0)), args.Error(1)
}

// Мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) ListByBoard(ctx context.Context, userID, boardID uuid.UUID) ([]dto.Task, error) {
	args := m.Called(ctx, userID, boardID)
	tasks, _ := args.Get(0).([]dto.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*dto.Task, error) {
	args := m.Called(ctx, userID, in)
	task, _ := args.Get(0).(*dto.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, userID, taskID uuid.UUID, in service.UpdateTaskInput) (*dto.Task, error) {
	args := m.Called(ctx, userID, taskID, in)
	task, _ := args.Get(0).(*dto.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

func (m *MockTaskService) Reorder(ctx context.Context, userID uuid.UUID, entries []reorder.Placement) ([]dto.Task, error) {
	args := m.Called(ctx, userID, entries)
	tasks, _ := args.Get(0).([]dto.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) Move(ctx context.Context, userID, taskID uuid.UUID, in service.MoveTaskInput) ([]dto.Task, error) {
	args := m.Called(ctx, userID, taskID, in)
	tasks, _ := args.Get(0).([]dto.Task)
	return tasks, args.Error(1)
}

var (
	_ handler.BoardService = (*MockBoardService)(nil)
	_ handler.TaskService  = (*MockTaskService)(nil)
)

// newRouter returns a test engine that authenticates every request as userID.
func newRouter(userID uuid.UUID) (*gin.Engine, *logrus.Logger, *test.Hook) {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	return r, log, hook
}
