package repository_test

import (
	"context"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRepository_Create_AddsOwnerAsAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	ownerID := uuid.New()
	board := &model.Board{Title: "Roadmap", OwnerID: ownerID, Columns: model.DefaultColumns()}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "boards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "board_members"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), board)

	require.NoError(t, err)
	require.Len(t, board.Members, 1)
	assert.Equal(t, ownerID, board.Members[0].UserID)
	assert.Equal(t, model.RoleAdmin, board.Members[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_Create_MemberInsertFails(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "boards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "board_members"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	board := &model.Board{Title: "Roadmap", OwnerID: uuid.New()}
	err := repo.Create(context.Background(), board)

	assert.Error(t, err)
	assert.Empty(t, board.Members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_ListForUser_OwnedOrMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE owner_id = \$1 OR id IN \(SELECT .*board_id.* FROM "board_members" WHERE user_id = \$2\) ORDER BY updated_at DESC`).
		WithArgs(userID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id"}))

	boards, err := repo.ListForUser(context.Background(), userID)

	require.NoError(t, err)
	assert.Empty(t, boards)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_ListForUser_CanceledContext(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListForUser(ctx, uuid.New())

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = .* LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id"}))

	board, err := repo.GetByID(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, board)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_Update_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "boards" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &model.Board{ID: uuid.New(), Title: "x"})

	assert.ErrorIs(t, err, repository.ErrBoardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_Delete_CascadesTasksAndMembers(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE board_id = `).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "board_members" WHERE board_id = `).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "boards" WHERE id = `).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_Delete_NotFoundRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "board_members"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "boards"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrBoardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_AddMember_Duplicate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "board_members"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.AddMember(context.Background(), &model.BoardMember{
		BoardID: uuid.New(),
		UserID:  uuid.New(),
		Role:    model.RoleMember,
	})

	assert.ErrorIs(t, err, repository.ErrAlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardRepository_RemoveMember(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewBoardRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "board_members" WHERE board_id = .* AND user_id = `).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.RemoveMember(context.Background(), uuid.New(), uuid.New()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not a member", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewBoardRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "board_members"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.RemoveMember(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrMemberNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
