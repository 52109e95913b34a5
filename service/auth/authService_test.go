package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Excellent-84/library-api/model"
	"github.com/Excellent-84/library-api/util/hash"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
	countFn   func(ctx context.Context) (int64, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn == nil {
		return 1, nil
	}
	return m.countFn(ctx)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_FirstUserBecomesAdmin(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		countFn: func(ctx context.Context) (int64, error) { return 0, nil },
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 1
			return nil
		},
	}
	svc := New(m, "test-secret", 24)

	u, tok, err := svc.Register(ctx, model.RegisterReq{
		Username: "first",
		Email:    "First@Example.COM",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.Equal(t, "first@example.com", u.Email)
}

func TestRegister_LaterUsersAreReaders(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		countFn: func(ctx context.Context) (int64, error) { return 3, nil },
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 4
			return nil
		},
	}
	svc := New(m, "test-secret", 24)

	u, _, err := svc.Register(ctx, model.RegisterReq{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleReader, u.Role)
}

func TestRegister_BadInput(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret", 24)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Username: "u",
		Email:    " ",
		Password: "123",
	})
	require.Error(t, err)
	require.Equal(t, ErrBadInput, Code(err))
}

func TestRegister_EmailTaken(t *testing.T) {
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 9, Email: email}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Username: "halim",
		Email:    "taken@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestRegister_UniqueViolationMapsToEmailTaken(t *testing.T) {
	m := &mockRepo{
		countFn: func(ctx context.Context) (int64, error) { return 1, nil },
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Username: "halim",
		Email:    "raced@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestRegister_CreateError(t *testing.T) {
	m := &mockRepo{
		countFn: func(ctx context.Context) (int64, error) { return 1, nil },
		createFn: func(ctx context.Context, u *model.User) error {
			return errors.New("db down")
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Username: "ok",
		Email:    "ok@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
}

func TestLogin_Success(t *testing.T) {
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				Username:     "halim",
				PasswordHash: hashed,
				Role:         model.RoleReader,
			}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	u, tok, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret", 24)

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           101,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleReader,
			}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}
