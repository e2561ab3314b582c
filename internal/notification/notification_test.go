package notification

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/settleup/internal/expense"
	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/internal/settlement"
	"github.com/fkhayef/settleup/internal/user"
	"github.com/fkhayef/settleup/pkg/apperror"
	"github.com/fkhayef/settleup/pkg/middleware"
)

type fakeDirectory struct {
	users map[int64]*user.User
	err   error
}

func (f *fakeDirectory) Lookup(_ context.Context, ids []int64) (map[int64]*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]*user.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

var notificationCols = []string{"id", "recipient_id", "message", "is_read", "related_entity_type", "related_entity_id", "created_at"}

func TestService_NotifyExpenseAdded_SkipsPayer(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(2), `Alice added "Dinner" (90.00); your share is 30.00`, "EXPENSE", int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(3), sqlmock.AnyArg(), "EXPENSE", int64(7)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	svc := NewService(NewRepository(db), &fakeDirectory{users: map[int64]*user.User{1: {ID: 1, Name: "Alice"}}})
	err := svc.NotifyExpenseAdded(context.Background(), &expense.Expense{
		ID:          7,
		PaidBy:      1,
		Description: "Dinner",
		Amount:      money.Cents(9000),
		Splits: []split.Share{
			{UserID: 1, Amount: money.Cents(3000)},
			{UserID: 2, Amount: money.Cents(3000)},
			{UserID: 3, Amount: money.Cents(3000)},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_NotifySettlementRecorded_NameFallback(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(1), "User 2 paid you 30.00", "SETTLEMENT", int64(4)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	svc := NewService(NewRepository(db), &fakeDirectory{err: errors.New("db down")})
	err := svc.NotifySettlementRecorded(context.Background(), &settlement.Settlement{ID: 4, FromUser: 2, ToUser: 1, Amount: money.Cents(3000)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_MarkAsRead(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	mock.ExpectQuery("SELECT .* FROM notifications WHERE id = \\$1").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
	err := svc.MarkAsRead(ctx, 9, 1)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	mock.ExpectQuery("SELECT .* FROM notifications WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(notificationCols).AddRow(9, 2, "hi", false, nil, nil, time.Now()))
	err = svc.MarkAsRead(ctx, 9, 1)
	assert.ErrorIs(t, err, ErrNotRecipient)

	mock.ExpectQuery("SELECT .* FROM notifications WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(notificationCols).AddRow(9, 1, "hi", false, nil, nil, time.Now()))
	mock.ExpectExec("UPDATE notifications SET is_read = true WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.MarkAsRead(ctx, 9, 1))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_List_UnreadOnly(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM notifications WHERE recipient_id = \\$1 AND is_read = false").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM notifications WHERE recipient_id = \\$1 AND is_read = false ORDER BY").
		WithArgs(int64(3), 20, 0).
		WillReturnRows(sqlmock.NewRows(notificationCols).AddRow(5, 3, "Alice paid you 10.00", false, "SETTLEMENT", 2, time.Now()))

	router := middleware.UserIdentity(NewHandler(NewService(NewRepository(db), nil)).Routes())
	req := httptest.NewRequest(http.MethodGet, "/?unread_only=true", nil)
	req.Header.Set(middleware.UserIDHeader, "3")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"related_entity_type":"SETTLEMENT"`)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_MarkAllAsRead(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE notifications SET is_read = true WHERE recipient_id = \\$1").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	router := NewHandler(NewService(NewRepository(db), nil)).Routes()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/read-all", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":4`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
