package authorrepo

import (
	"context"
	"database/sql"

	"github.com/Excellent-84/library-api/model"
)

type Repo interface {
	Create(ctx context.Context, a *model.Author) error
	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const authorCols = `id, name, biography, birth_date, created_at, updated_at`

func (r *repo) Create(ctx context.Context, a *model.Author) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO authors(name, biography, birth_date)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`,
		a.Name, a.Biography, a.BirthDate,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Author, error) {
	a := &model.Author{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+authorCols+`
		FROM authors
		WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Biography, &a.BirthDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error) {
	const q = `
		SELECT ` + authorCols + `
		FROM authors
		WHERE ($3 = '' OR name ILIKE '%' || $3 || '%')
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Biography, &a.BirthDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByIDs reports how many of the given ids exist. Book create/update uses
// it to reject payloads referencing unknown authors.
func (r *repo) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM authors
		WHERE id = ANY($1)`,
		ids,
	).Scan(&n)
	return n, err
}

func (r *repo) Update(ctx context.Context, a *model.Author) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE authors
		SET name = $2,
			biography = $3,
			birth_date = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Name, a.Biography, a.BirthDate,
	).Scan(&a.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
