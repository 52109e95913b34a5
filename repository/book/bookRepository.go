package bookrepo

import (
	"context"
	"database/sql"

	"github.com/Excellent-84/library-api/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book, authorIDs []int64) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, limit, offset int64, genre string) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book, authorIDs []int64) error
	Delete(ctx context.Context, id int64) error

	// Availability slice. Both run inside the caller's transaction so the
	// loan service can lock, decide and mutate atomically.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	AdjustAvailability(ctx context.Context, tx *sql.Tx, id int64, delta int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `id, title, description, publication_date, genre, available_copies, created_at, updated_at`

func (r *repo) Create(ctx context.Context, b *model.Book, authorIDs []int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO books(title, description, publication_date, genre, available_copies)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		b.Title, b.Description, b.PublicationDate, b.Genre, b.AvailableCopies,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}

	if err = linkAuthors(ctx, tx, b.ID, authorIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+bookCols+`
		FROM books
		WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Title, &b.Description, &b.PublicationDate, &b.Genre, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	authors, err := r.authorsFor(ctx, []int64{b.ID})
	if err != nil {
		return nil, err
	}
	b.Authors = authors[b.ID]
	if b.Authors == nil {
		b.Authors = []model.Author{}
	}
	return b, nil
}

func (r *repo) List(ctx context.Context, limit, offset int64, genre string) ([]model.Book, error) {
	const q = `
		SELECT ` + bookCols + `
		FROM books
		WHERE ($3 = '' OR genre ILIKE '%' || $3 || '%')
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset, genre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	var ids []int64
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.PublicationDate, &b.Genre, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	authors, err := r.authorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Authors = authors[out[i].ID]
		if out[i].Authors == nil {
			out[i].Authors = []model.Author{}
		}
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book, authorIDs []int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		UPDATE books
		SET title = $2,
			description = $3,
			publication_date = $4,
			genre = $5,
			available_copies = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.Title, b.Description, b.PublicationDate, b.Genre, b.AvailableCopies,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM book_author WHERE book_id = $1`, b.ID); err != nil {
		return err
	}
	if err = linkAuthors(ctx, tx, b.ID, authorIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM book_author WHERE book_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		err = sql.ErrNoRows
		return err
	}
	return tx.Commit()
}

// GetForUpdate locks the book row for the duration of the caller's
// transaction. Concurrent borrows of the same book serialize here.
func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := tx.QueryRowContext(ctx, `
		SELECT `+bookCols+`
		FROM books
		WHERE id = $1
		FOR UPDATE`,
		id,
	).Scan(&b.ID, &b.Title, &b.Description, &b.PublicationDate, &b.Genre, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) AdjustAvailability(ctx context.Context, tx *sql.Tx, id int64, delta int64) error {
	// Guard: the counter must never go negative.
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_copies = available_copies + $2,
			updated_at = NOW()
		WHERE id = $1
		AND available_copies + $2 >= 0`,
		id, delta)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func linkAuthors(ctx context.Context, tx *sql.Tx, bookID int64, authorIDs []int64) error {
	const q = `INSERT INTO book_author (book_id, author_id) VALUES ($1,$2)`
	for _, aid := range authorIDs {
		if _, err := tx.ExecContext(ctx, q, bookID, aid); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) authorsFor(ctx context.Context, bookIDs []int64) (map[int64][]model.Author, error) {
	const q = `
		SELECT ba.book_id, a.id, a.name, a.biography, a.birth_date, a.created_at, a.updated_at
		FROM book_author ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ANY($1)
		ORDER BY a.id ASC`
	rows, err := r.db.QueryContext(ctx, q, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]model.Author)
	for rows.Next() {
		var bookID int64
		var a model.Author
		if err := rows.Scan(&bookID, &a.ID, &a.Name, &a.Biography, &a.BirthDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[bookID] = append(out[bookID], a)
	}
	return out, rows.Err()
}
