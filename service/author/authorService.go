package authorsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Excellent-84/library-api/model"
)

type ErrCode string

const (
	ErrAuthorExists   ErrCode = "AUTHOR_EXISTS"
	ErrAuthorNotFound ErrCode = "AUTHOR_NOT_FOUND"
	ErrBadInput       ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, a *model.Author) error
	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
}

// UpdateReq carries a partial author update; nil fields stay untouched.
type UpdateReq struct {
	Name      *string
	Biography *string
	BirthDate *time.Time
}

type Service interface {
	Create(ctx context.Context, name string, biography *string, birthDate time.Time) (*model.Author, error)
	GetByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error)
	Update(ctx context.Context, id int64, req UpdateReq) (*model.Author, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, name string, biography *string, birthDate time.Time) (*model.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, makeErr(ErrBadInput)
	}

	a := &model.Author{Name: name, Biography: biography, BirthDate: birthDate}
	if err := s.r.Create(ctx, a); err != nil {
		// Concurrent duplicate inserts land here via the unique index.
		if isUniqueViolation(err) {
			return nil, makeErr(ErrAuthorExists)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrAuthorNotFound)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.r.List(ctx, limit, offset, name)
}

func (s *service) Update(ctx context.Context, id int64, req UpdateReq) (*model.Author, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, makeErr(ErrBadInput)
		}
		a.Name = name
	}
	if req.Biography != nil {
		a.Biography = req.Biography
	}
	if req.BirthDate != nil {
		a.BirthDate = *req.BirthDate
	}

	if err := s.r.Update(ctx, a); err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrAuthorExists)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrAuthorNotFound)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
