package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Excellent-84/library-api/model"
)

type ErrCode string

const (
	ErrBookNotFound   ErrCode = "BOOK_NOT_FOUND"
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
	Create(ctx context.Context, b *model.Book, authorIDs []int64) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, limit, offset int64, genre string) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book, authorIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

// Authors verifies that every referenced author id exists.
type Authors interface {
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
}

// Fields is the create/update payload after DTO validation.
type Fields struct {
	Title           string
	Description     *string
	PublicationDate time.Time
	Genre           string
	AvailableCopies int64
	AuthorIDs       []int64
}

type Service interface {
	Create(ctx context.Context, f Fields) (*model.Book, error)
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, limit, offset int64, genre string) ([]model.Book, error)
	Update(ctx context.Context, id int64, f Fields) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	r       Repo
	authors Authors
}

func New(r Repo, authors Authors) Service { return &service{r: r, authors: authors} }

func (s *service) Create(ctx context.Context, f Fields) (*model.Book, error) {
	if err := s.check(ctx, &f); err != nil {
		return nil, err
	}

	b := &model.Book{
		Title:           f.Title,
		Description:     f.Description,
		PublicationDate: f.PublicationDate,
		Genre:           f.Genre,
		AvailableCopies: f.AvailableCopies,
	}
	if err := s.r.Create(ctx, b, f.AuthorIDs); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, b.ID)
}

func (s *service) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, limit, offset int64, genre string) ([]model.Book, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.r.List(ctx, limit, offset, genre)
}

func (s *service) Update(ctx context.Context, id int64, f Fields) (*model.Book, error) {
	if err := s.check(ctx, &f); err != nil {
		return nil, err
	}

	b := &model.Book{
		ID:              id,
		Title:           f.Title,
		Description:     f.Description,
		PublicationDate: f.PublicationDate,
		Genre:           f.Genre,
		AvailableCopies: f.AvailableCopies,
	}
	if err := s.r.Update(ctx, b, f.AuthorIDs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrBookNotFound)
		}
		return err
	}
	return nil
}

func (s *service) check(ctx context.Context, f *Fields) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Genre = strings.TrimSpace(f.Genre)
	if f.Title == "" || f.Genre == "" || f.AvailableCopies < 0 || len(f.AuthorIDs) == 0 {
		return makeErr(ErrBadInput)
	}

	ids := dedupe(f.AuthorIDs)
	n, err := s.authors.CountByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return makeErr(ErrAuthorNotFound)
	}
	f.AuthorIDs = ids
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
