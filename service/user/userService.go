package usersvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Excellent-84/library-api/model"
	"github.com/Excellent-84/library-api/util/hash"
)

type ErrCode string

const (
	ErrUserNotFound ErrCode = "USER_NOT_FOUND"
	ErrBadInput     ErrCode = "BAD_INPUT"
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
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	UpdateRole(ctx context.Context, id int64, role model.UserRole) error
}

// Loans supplies a user's loan history for the profile responses.
type Loans interface {
	ByUser(ctx context.Context, userID int64) ([]model.Rebook, error)
}

type Service interface {
	Get(ctx context.Context, id int64) (*model.UserWithLoans, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateMe(ctx context.Context, userID int64, req model.UpdateUserReq) (*model.User, error)
	UpdateRole(ctx context.Context, id int64, role model.UserRole) error
}

type service struct {
	ur    Repo
	loans Loans
}

func New(ur Repo, loans Loans) Service { return &service{ur: ur, loans: loans} }

func (s *service) Get(ctx context.Context, id int64) (*model.UserWithLoans, error) {
	u, err := s.ur.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	rebooks, err := s.loans.ByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if rebooks == nil {
		rebooks = []model.Rebook{}
	}
	return &model.UserWithLoans{User: *u, Rebooks: rebooks}, nil
}

func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.ur.List(ctx)
}

func (s *service) UpdateMe(ctx context.Context, userID int64, req model.UpdateUserReq) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, makeErr(ErrBadInput)
		}
		u.Username = name
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, makeErr(ErrBadInput)
		}
		hashed, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}

	if err := s.ur.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) UpdateRole(ctx context.Context, id int64, role model.UserRole) error {
	if role != model.RoleAdmin && role != model.RoleReader {
		return makeErr(ErrBadInput)
	}
	if err := s.ur.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrUserNotFound)
		}
		return err
	}
	return nil
}
