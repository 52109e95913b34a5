package rebooksvc

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Excellent-84/library-api/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ----- in-memory fakes -----

type fakeLedger struct {
	nextID int64
	loans  []model.Rebook
}

func (f *fakeLedger) Insert(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowedAt, dueDate time.Time) (*model.Rebook, error) {
	f.nextID++
	rb := model.Rebook{
		ID:         f.nextID,
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: borrowedAt,
		DueDate:    dueDate,
	}
	f.loans = append(f.loans, rb)
	out := rb
	return &out, nil
}

func (f *fakeLedger) FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Rebook, error) {
	for i := range f.loans {
		l := f.loans[i]
		if l.UserID == userID && l.BookID == bookID && l.ReturnedAt == nil {
			out := l
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLedger) CountOpen(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var n int64
	for _, l := range f.loans {
		if l.UserID == userID && l.ReturnedAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) Close(ctx context.Context, tx *sql.Tx, rebookID int64, returnedAt time.Time) error {
	for i := range f.loans {
		if f.loans[i].ID == rebookID && f.loans[i].ReturnedAt == nil {
			t := returnedAt
			f.loans[i].ReturnedAt = &t
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeLedger) ByID(ctx context.Context, id int64) (*model.Rebook, error) {
	for i := range f.loans {
		if f.loans[i].ID == id {
			out := f.loans[i]
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLedger) List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error) {
	var out []model.Rebook
	for _, l := range f.loans {
		if userID != nil && l.UserID != *userID {
			continue
		}
		out = append(out, l)
	}
	if offset > int64(len(out)) {
		offset = int64(len(out))
	}
	out = out[offset:]
	if limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedger) CountOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, l := range f.loans {
		if l.ReturnedAt == nil && l.DueDate.Before(asOf) {
			n++
		}
	}
	return n, nil
}

type fakeCatalog struct {
	books     map[int64]*model.Book
	adjustErr error
}

func (f *fakeCatalog) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *b
	return &out, nil
}

func (f *fakeCatalog) AdjustAvailability(ctx context.Context, tx *sql.Tx, id int64, delta int64) error {
	if f.adjustErr != nil {
		return f.adjustErr
	}
	b, ok := f.books[id]
	if !ok || b.AvailableCopies+delta < 0 {
		return sql.ErrNoRows
	}
	b.AvailableCopies += delta
	return nil
}

// ----- helpers -----

func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func newService(db *sql.DB, ledger *fakeLedger, catalog *fakeCatalog) Service {
	return New(db, ledger, catalog, 5, 14)
}

// ----- tests -----

func TestBorrow_Success(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 3}}}
	svc := newService(db, ledger, catalog)

	expectTx(mock, true)
	rb, err := svc.Borrow(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, rb)
	require.Equal(t, int64(1), rb.UserID)
	require.Equal(t, int64(7), rb.BookID)
	require.Nil(t, rb.ReturnedAt)
	require.Equal(t, 14*24*time.Hour, rb.DueDate.Sub(rb.BorrowedAt))
	require.Equal(t, int64(2), catalog.books[7].AvailableCopies)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrow_BookNotFound(t *testing.T) {
	db, mock := newTxDB(t)
	svc := newService(db, &fakeLedger{}, &fakeCatalog{books: map[int64]*model.Book{}})

	expectTx(mock, false)
	_, err := svc.Borrow(context.Background(), 1, 99)
	require.Error(t, err)
	require.Equal(t, ErrBookNotFound, Code(err))
}

func TestBorrow_NoCopies(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 0}}}
	svc := newService(db, ledger, catalog)

	expectTx(mock, false)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.Error(t, err)
	require.Equal(t, ErrNoCopies, Code(err))
	require.Empty(t, ledger.loans)
	require.Equal(t, int64(0), catalog.books[7].AvailableCopies)
}

func TestBorrow_LimitExceeded(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 10}}}
	svc := newService(db, ledger, catalog)

	for bookID := int64(1); bookID <= 5; bookID++ {
		catalog.books[bookID] = &model.Book{ID: bookID, AvailableCopies: 1}
		expectTx(mock, true)
		_, err := svc.Borrow(context.Background(), 1, bookID)
		require.NoError(t, err)
	}

	expectTx(mock, false)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.Error(t, err)
	require.Equal(t, ErrBorrowLimit, Code(err))
	require.Len(t, ledger.loans, 5)
	require.Equal(t, int64(10), catalog.books[7].AvailableCopies)
}

func TestBorrowReturn_RoundTrip(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 3}}}
	svc := newService(db, ledger, catalog)

	expectTx(mock, true)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(2), catalog.books[7].AvailableCopies)

	expectTx(mock, true)
	rb, err := svc.Return(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, rb.ReturnedAt)
	require.Equal(t, int64(3), catalog.books[7].AvailableCopies)
}

func TestReturn_NeverBorrowed(t *testing.T) {
	db, mock := newTxDB(t)
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 3}}}
	svc := newService(db, &fakeLedger{}, catalog)

	expectTx(mock, false)
	_, err := svc.Return(context.Background(), 1, 7)
	require.Error(t, err)
	require.Equal(t, ErrLoanNotFound, Code(err))
	require.Equal(t, int64(3), catalog.books[7].AvailableCopies)
}

func TestReturn_Twice(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 1}}}
	svc := newService(db, ledger, catalog)

	expectTx(mock, true)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.NoError(t, err)

	expectTx(mock, true)
	_, err = svc.Return(context.Background(), 1, 7)
	require.NoError(t, err)

	// Second return: the open-only lookup misses, indistinguishable from a
	// loan that never existed.
	expectTx(mock, false)
	_, err = svc.Return(context.Background(), 1, 7)
	require.Error(t, err)
	require.Equal(t, ErrLoanNotFound, Code(err))
	require.Equal(t, int64(1), catalog.books[7].AvailableCopies)
}

func TestBorrow_LastCopyContention(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 1}}}
	svc := newService(db, ledger, catalog)

	// User A takes the last copy.
	expectTx(mock, true)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), catalog.books[7].AvailableCopies)

	// User C arrives once the row lock is released: nothing left.
	expectTx(mock, false)
	_, err = svc.Borrow(context.Background(), 2, 7)
	require.Error(t, err)
	require.Equal(t, ErrNoCopies, Code(err))
	require.Equal(t, int64(0), catalog.books[7].AvailableCopies)

	// A returns, the copy is lendable again.
	expectTx(mock, true)
	_, err = svc.Return(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), catalog.books[7].AvailableCopies)
}

func TestBorrow_SerializationFailureIsRetryable(t *testing.T) {
	db, mock := newTxDB(t)
	catalog := &fakeCatalog{
		books:     map[int64]*model.Book{7: {ID: 7, AvailableCopies: 1}},
		adjustErr: &pgconn.PgError{Code: "40001"},
	}
	svc := newService(db, &fakeLedger{}, catalog)

	expectTx(mock, false)
	_, err := svc.Borrow(context.Background(), 1, 7)
	require.Error(t, err)
	require.Equal(t, ErrTxConflict, Code(err))
}

func TestGetByID_NotFound(t *testing.T) {
	db, _ := newTxDB(t)
	svc := newService(db, &fakeLedger{}, &fakeCatalog{books: map[int64]*model.Book{}})

	_, err := svc.GetByID(context.Background(), 42)
	require.Error(t, err)
	require.Equal(t, ErrLoanNotFound, Code(err))
}

func TestList_ClampsPaging(t *testing.T) {
	db, mock := newTxDB(t)
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{books: map[int64]*model.Book{7: {ID: 7, AvailableCopies: 5}}}
	svc := newService(db, ledger, catalog)

	for userID := int64(1); userID <= 3; userID++ {
		expectTx(mock, true)
		_, err := svc.Borrow(context.Background(), userID, 7)
		require.NoError(t, err)
	}

	rows, err := svc.List(context.Background(), 0, -5, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	uid := int64(2)
	rows, err = svc.List(context.Background(), 10, 0, &uid)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uid, rows[0].UserID)
}

func TestReportOverdue(t *testing.T) {
	ledger := &fakeLedger{}
	past := time.Now().UTC().Add(-48 * time.Hour)
	ledger.loans = []model.Rebook{
		{ID: 1, UserID: 1, BookID: 7, BorrowedAt: past.Add(-14 * 24 * time.Hour), DueDate: past},
		{ID: 2, UserID: 2, BookID: 7, BorrowedAt: past, DueDate: time.Now().UTC().Add(24 * time.Hour)},
	}

	rep := NewReporter(ledger, discardLogger())
	n, err := rep.ReportOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
