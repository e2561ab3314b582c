package group

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/settleup/pkg/apperror"
	"github.com/fkhayef/settleup/pkg/middleware"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

var groupCols = []string{"id", "name", "description", "created_by", "created_at"}

func expectGroup(mock sqlmock.Sqlmock, id, createdBy int64) {
	mock.ExpectQuery("SELECT .* FROM groups WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(groupCols).AddRow(id, "Trip", nil, createdBy, time.Now()))
}

func expectMembership(mock sqlmock.Sqlmock, groupID, userID int64, member bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(groupID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(member))
}

func TestRepository_Create_AddsCreatorAndMembers(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO groups").
		WithArgs("Trip", nil, int64(1)).
		WillReturnRows(sqlmock.NewRows(groupCols).AddRow(10, "Trip", nil, 1, time.Now()))
	for _, userID := range []int64{1, 2, 3} {
		mock.ExpectExec("INSERT INTO group_members").
			WithArgs(int64(10), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	g, err := NewRepository(db).Create(context.Background(), 1, &CreateGroupRequest{Name: "Trip", MemberIDs: []int64{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), g.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_RollsBack(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO groups").
		WillReturnRows(sqlmock.NewRows(groupCols).AddRow(10, "Trip", nil, 1, time.Now()))
	mock.ExpectExec("INSERT INTO group_members").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := NewRepository(db).Create(context.Background(), 1, &CreateGroupRequest{Name: "Trip"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_GetByID(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	svc := NewService(NewRepository(db))

	mock.ExpectQuery("SELECT .* FROM groups").WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)
	_, err := svc.GetByID(context.Background(), 4, 1)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 9, false)
	_, err = svc.GetByID(context.Background(), 5, 9)
	assert.ErrorIs(t, err, ErrNotMember)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Delete_CreatorOnly(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	svc := NewService(NewRepository(db))

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 2, true)
	err := svc.Delete(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 1, true)
	mock.ExpectExec("DELETE FROM groups").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.Delete(context.Background(), 5, 1))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RemoveMember(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 2, true)
	assert.ErrorIs(t, svc.RemoveMember(ctx, 5, 2, 1), ErrRemoveCreator)

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 2, true)
	assert.ErrorIs(t, svc.RemoveMember(ctx, 5, 2, 3), ErrNotAuthorized)

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 2, true)
	mock.ExpectExec("DELETE FROM group_members").WithArgs(int64(5), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.RemoveMember(ctx, 5, 2, 2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_AddMember_AlreadyMember(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 1, true)
	mock.ExpectExec("INSERT INTO group_members").WithArgs(int64(5), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewService(NewRepository(db)).AddMember(context.Background(), 5, 1, &AddMemberRequest{UserID: 2})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestHandler_GetByID_Forbidden(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	expectGroup(mock, 5, 1)
	expectMembership(mock, 5, 8, false)

	router := middleware.UserIdentity(NewHandler(NewService(NewRepository(db))).Routes())
	req := httptest.NewRequest(http.MethodGet, "/5", nil)
	req.Header.Set(middleware.UserIDHeader, "8")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a member")
}

func TestHandler_Create_Validation(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()

	router := NewHandler(NewService(NewRepository(db))).Routes()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}
