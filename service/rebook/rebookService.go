package rebooksvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Excellent-84/library-api/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrNoCopies     ErrCode = "NO_COPIES_AVAILABLE"
	ErrBorrowLimit  ErrCode = "BORROW_LIMIT_EXCEEDED"
	ErrLoanNotFound ErrCode = "LOAN_NOT_FOUND"

	// ErrTxConflict marks storage-level serialization failures. The whole
	// operation rolled back and may be retried by the caller; the service
	// itself never retries.
	ErrTxConflict ErrCode = "TX_CONFLICT"
)

type codedError struct {
	code  ErrCode
	cause error
}

func (e codedError) Error() string {
	if e.cause != nil {
		return string(e.code) + ": " + e.cause.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func makeErr(c ErrCode) error { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Repo is the loan ledger as the service consumes it.
type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowedAt, dueDate time.Time) (*model.Rebook, error)
	FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Rebook, error)
	CountOpen(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	Close(ctx context.Context, tx *sql.Tx, rebookID int64, returnedAt time.Time) error

	ByID(ctx context.Context, id int64) (*model.Rebook, error)
	List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error)
	CountOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// BookStore is the availability slice of the catalog.
type BookStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	AdjustAvailability(ctx context.Context, tx *sql.Tx, id int64, delta int64) error
}

type Service interface {
	// Borrow checks availability and the per-user open-loan limit, creates an
	// open loan and decrements the counter, all in one transaction.
	Borrow(ctx context.Context, userID, bookID int64) (*model.Rebook, error)

	// Return closes the open loan for (user, book) and frees one copy.
	Return(ctx context.Context, userID, bookID int64) (*model.Rebook, error)

	GetByID(ctx context.Context, id int64) (*model.Rebook, error)
	List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error)
}

// ----- Service implementation -----

type service struct {
	db    *sql.DB
	r     Repo
	books BookStore

	borrowLimit int64
	loanPeriod  time.Duration

	now func() time.Time
}

func New(db *sql.DB, r Repo, books BookStore, borrowLimit int, loanPeriodDays int) Service {
	return &service{
		db:          db,
		r:           r,
		books:       books,
		borrowLimit: int64(borrowLimit),
		loanPeriod:  time.Duration(loanPeriodDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64) (rb *model.Rebook, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = classify(err)
		}
	}()

	// Locking the book row serializes concurrent borrows of the same book.
	book, err := s.books.GetForUpdate(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}

	if book.AvailableCopies < 1 {
		return nil, makeErr(ErrNoCopies)
	}

	open, err := s.r.CountOpen(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if open >= s.borrowLimit {
		return nil, makeErr(ErrBorrowLimit)
	}

	borrowedAt := s.now().UTC()
	rb, err = s.r.Insert(ctx, tx, userID, bookID, borrowedAt, borrowedAt.Add(s.loanPeriod))
	if err != nil {
		return nil, err
	}

	if err = s.books.AdjustAvailability(ctx, tx, bookID, -1); err != nil {
		// The guarded update refusing under the row lock means the counter
		// was already at zero.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNoCopies)
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return rb, nil
}

func (s *service) Return(ctx context.Context, userID, bookID int64) (rb *model.Rebook, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = classify(err)
		}
	}()

	// Filters on open rows only, so "never borrowed" and "already returned"
	// both come back as LOAN_NOT_FOUND.
	rb, err = s.r.FindOpenForUpdate(ctx, tx, userID, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}

	returnedAt := s.now().UTC()
	if err = s.r.Close(ctx, tx, rb.ID, returnedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}

	if err = s.books.AdjustAvailability(ctx, tx, bookID, 1); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	rb.ReturnedAt = &returnedAt
	return rb, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*model.Rebook, error) {
	rb, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}
	return rb, nil
}

func (s *service) List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.r.List(ctx, limit, offset, userID)
}

// classify wraps deadlock and serialization failures so controllers can tell
// "try again" apart from business-rule rejection.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return codedError{code: ErrTxConflict, cause: err}
		}
	}
	return err
}
