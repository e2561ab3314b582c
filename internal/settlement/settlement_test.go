package settlement

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
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/settleup/internal/ledger"
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
	"github.com/fkhayef/settleup/pkg/middleware"
)

type fakeGroups struct {
	members map[int64]bool
}

func (f *fakeGroups) RequireMember(_ context.Context, _, userID int64) error {
	if !f.members[userID] {
		return apperror.Forbidden(errors.New("not a member of this group"))
	}
	return nil
}

func (f *fakeGroups) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

type fakeNotifier struct {
	payees []int64
}

func (f *fakeNotifier) NotifySettlementRecorded(_ context.Context, s *Settlement) error {
	f.payees = append(f.payees, s.ToUser)
	return nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

var settlementCols = []string{"id", "group_id", "from_user", "to_user", "amount", "note", "created_by", "created_at"}

func TestService_CreateSettlement(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO settlements").
		WithArgs(nil, int64(2), int64(1), "30.00", nil, int64(2)).
		WillReturnRows(sqlmock.NewRows(settlementCols).AddRow(1, nil, 2, 1, "30.00", nil, 2, time.Now()))

	notifier := &fakeNotifier{}
	svc := NewService(NewRepository(db), &fakeGroups{}, notifier)

	s, err := svc.CreateSettlement(context.Background(), 2, &CreateSettlementRequest{
		FromUser: 2,
		ToUser:   1,
		Amount:   money.MustParse("30"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.ID)
	assert.Nil(t, s.GroupID)
	assert.Equal(t, ledger.SettlementRecord{FromUser: 2, ToUser: 1, Amount: money.Cents(3000)}, s.Record())
	assert.Equal(t, []int64{1}, notifier.payees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateSettlement_Rejected(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	groupID := int64(4)
	svc := NewService(NewRepository(db), &fakeGroups{members: map[int64]bool{1: true, 2: true}}, nil)

	tests := []struct {
		name   string
		caller int64
		req    CreateSettlementRequest
		want   error
		kind   apperror.Kind
	}{
		{
			name:   "self settlement",
			caller: 1,
			req:    CreateSettlementRequest{FromUser: 1, ToUser: 1, Amount: money.Cents(100)},
			want:   ledger.ErrSelfSettlement,
			kind:   apperror.KindValidation,
		},
		{
			name:   "zero amount",
			caller: 1,
			req:    CreateSettlementRequest{FromUser: 1, ToUser: 2, Amount: money.Zero},
			want:   ledger.ErrNonPositiveSettlement,
			kind:   apperror.KindValidation,
		},
		{
			name:   "third party outside a group",
			caller: 3,
			req:    CreateSettlementRequest{FromUser: 1, ToUser: 2, Amount: money.Cents(100)},
			want:   ErrNotParty,
			kind:   apperror.KindForbidden,
		},
		{
			name:   "payee not in group",
			caller: 1,
			req:    CreateSettlementRequest{GroupID: &groupID, FromUser: 1, ToUser: 7, Amount: money.Cents(100)},
			want:   ErrPartyNotInGroup,
			kind:   apperror.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSettlement(context.Background(), tt.caller, &tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateSettlement_UnknownUser(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO settlements").WillReturnError(&pq.Error{Code: "23503"})

	svc := NewService(NewRepository(db), &fakeGroups{}, nil)
	_, err := svc.CreateSettlement(context.Background(), 1, &CreateSettlementRequest{FromUser: 1, ToUser: 99, Amount: money.Cents(100)})
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRepository_UserRecords(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT from_user, to_user, amount FROM settlements WHERE from_user = \\$1 OR to_user = \\$1").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"from_user", "to_user", "amount"}).
			AddRow(2, 1, "30.00").
			AddRow(3, 2, "12.5"))

	records, err := NewRepository(db).UserRecords(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []ledger.SettlementRecord{
		{FromUser: 2, ToUser: 1, Amount: money.Cents(3000)},
		{FromUser: 3, ToUser: 2, Amount: money.Cents(1250)},
	}, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ListByGroupID_RequiresMembership(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	svc := NewService(NewRepository(db), &fakeGroups{members: map[int64]bool{1: true}}, nil)

	_, err := svc.ListByGroupID(context.Background(), 4, 9)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	mock.ExpectQuery("SELECT .* FROM settlements WHERE group_id = \\$1").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(settlementCols))
	settlements, err := svc.ListByGroupID(context.Background(), 4, 1)
	require.NoError(t, err)
	assert.NotNil(t, settlements)
	assert.Empty(t, settlements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Create(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO settlements").
		WillReturnRows(sqlmock.NewRows(settlementCols).AddRow(5, 3, 2, 1, "30.00", "cash", 2, time.Now()))

	router := middleware.UserIdentity(NewHandler(NewService(NewRepository(db), &fakeGroups{members: map[int64]bool{1: true, 2: true}}, nil)).Routes())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"group_id":3,"from_user":2,"to_user":1,"amount":30,"note":"cash"}`))
	req.Header.Set(middleware.UserIDHeader, "2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"group_id":3`)
	assert.Contains(t, body, `"amount":30.00`)
	assert.Contains(t, body, `"created_by":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Create_Invalid(t *testing.T) {
	db, _, cleanup := setupMockDB(t)
	defer cleanup()

	router := NewHandler(NewService(NewRepository(db), &fakeGroups{}, nil)).Routes()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"from_user":1,"to_user":2,"amount":-5}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ledger.ErrNonPositiveSettlement.Error())
}
