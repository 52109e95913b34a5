package rebookrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Excellent-84/library-api/model"
)

type Repo interface {
	// Transaction-scoped operations used by the loan service.
	Insert(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowedAt, dueDate time.Time) (*model.Rebook, error)
	FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Rebook, error)
	CountOpen(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	Close(ctx context.Context, tx *sql.Tx, rebookID int64, returnedAt time.Time) error

	// Plain reads.
	ByID(ctx context.Context, id int64) (*model.Rebook, error)
	List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error)
	ByUser(ctx context.Context, userID int64) ([]model.Rebook, error)
	CountOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const rebookCols = `id, user_id, book_id, borrowed_at, due_date, returned_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, userID, bookID int64, borrowedAt, dueDate time.Time) (*model.Rebook, error) {
	rb := &model.Rebook{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: borrowedAt,
		DueDate:    dueDate,
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO rebooks (user_id, book_id, borrowed_at, due_date)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		userID, bookID, borrowedAt, dueDate,
	).Scan(&rb.ID, &rb.CreatedAt, &rb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rb, nil
}

// FindOpenForUpdate returns the open loan for (user, book) and locks it.
// A row already closed does not match, so double returns surface as
// sql.ErrNoRows exactly like loans that never existed.
func (r *repo) FindOpenForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.Rebook, error) {
	rb := &model.Rebook{}
	err := tx.QueryRowContext(ctx, `
		SELECT `+rebookCols+`
		FROM rebooks
		WHERE user_id = $1
		AND book_id = $2
		AND returned_at IS NULL
		ORDER BY id
		LIMIT 1
		FOR UPDATE`,
		userID, bookID,
	).Scan(&rb.ID, &rb.UserID, &rb.BookID, &rb.BorrowedAt, &rb.DueDate, &rb.ReturnedAt, &rb.CreatedAt, &rb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rb, nil
}

func (r *repo) CountOpen(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM rebooks
		WHERE user_id = $1
		AND returned_at IS NULL`,
		userID,
	).Scan(&n)
	return n, err
}

func (r *repo) Close(ctx context.Context, tx *sql.Tx, rebookID int64, returnedAt time.Time) error {
	// Guard: a loan closes exactly once.
	res, err := tx.ExecContext(ctx, `
		UPDATE rebooks
		SET returned_at = $2,
			updated_at = NOW()
		WHERE id = $1
		AND returned_at IS NULL`,
		rebookID, returnedAt)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Rebook, error) {
	rb := &model.Rebook{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+rebookCols+`
		FROM rebooks
		WHERE id = $1`,
		id,
	).Scan(&rb.ID, &rb.UserID, &rb.BookID, &rb.BorrowedAt, &rb.DueDate, &rb.ReturnedAt, &rb.CreatedAt, &rb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rb, nil
}

func (r *repo) List(ctx context.Context, limit, offset int64, userID *int64) ([]model.Rebook, error) {
	const q = `
		SELECT ` + rebookCols + `
		FROM rebooks
		WHERE ($3::BIGINT IS NULL OR user_id = $3)
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRebooks(rows)
}

func (r *repo) ByUser(ctx context.Context, userID int64) ([]model.Rebook, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+rebookCols+`
		FROM rebooks
		WHERE user_id = $1
		ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRebooks(rows)
}

func (r *repo) CountOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM rebooks
		WHERE returned_at IS NULL
		AND due_date < $1`,
		asOf,
	).Scan(&n)
	return n, err
}

func scanRebooks(rows *sql.Rows) ([]model.Rebook, error) {
	var out []model.Rebook
	for rows.Next() {
		var rb model.Rebook
		if err := rows.Scan(&rb.ID, &rb.UserID, &rb.BookID, &rb.BorrowedAt, &rb.DueDate, &rb.ReturnedAt, &rb.CreatedAt, &rb.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rb)
	}
	return out, rows.Err()
}
