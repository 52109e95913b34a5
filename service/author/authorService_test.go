package authorsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Excellent-84/library-api/model"
)

type mockRepo struct {
	createFn func(ctx context.Context, a *model.Author) error
	byIDFn   func(ctx context.Context, id int64) (*model.Author, error)
	listFn   func(ctx context.Context, limit, offset int64, name string) ([]model.Author, error)
	updateFn func(ctx context.Context, a *model.Author) error
	deleteFn func(ctx context.Context, id int64) error
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, a *model.Author) error { return m.createFn(ctx, a) }
func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.Author, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockRepo) List(ctx context.Context, limit, offset int64, name string) ([]model.Author, error) {
	return m.listFn(ctx, limit, offset, name)
}
func (m *mockRepo) Update(ctx context.Context, a *model.Author) error { return m.updateFn(ctx, a) }
func (m *mockRepo) Delete(ctx context.Context, id int64) error        { return m.deleteFn(ctx, id) }

var birthDate = time.Date(1828, 9, 9, 0, 0, 0, 0, time.UTC)

func TestCreate_Success(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, a *model.Author) error {
			a.ID = 7
			return nil
		},
	}
	svc := New(m)

	a, err := svc.Create(context.Background(), "Leo Tolstoy", nil, birthDate)
	require.NoError(t, err)
	require.Equal(t, int64(7), a.ID)
	require.Equal(t, "Leo Tolstoy", a.Name)
}

func TestCreate_DuplicateName(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, a *model.Author) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "authors_name_key"}
		},
	}
	svc := New(m)

	_, err := svc.Create(context.Background(), "Leo Tolstoy", nil, birthDate)
	require.Error(t, err)
	require.Equal(t, ErrAuthorExists, Code(err))
}

func TestCreate_EmptyName(t *testing.T) {
	svc := New(&mockRepo{})

	_, err := svc.Create(context.Background(), "   ", nil, birthDate)
	require.Error(t, err)
	require.Equal(t, ErrBadInput, Code(err))
}

func TestGetByID_NotFound(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.Author, error) { return nil, sql.ErrNoRows },
	}
	svc := New(m)

	_, err := svc.GetByID(context.Background(), 99)
	require.Error(t, err)
	require.Equal(t, ErrAuthorNotFound, Code(err))
}

func TestUpdate_Partial(t *testing.T) {
	var saved *model.Author
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.Author, error) {
			bio := "old bio"
			return &model.Author{ID: id, Name: "Leo Tolstoy", Biography: &bio, BirthDate: birthDate}, nil
		},
		updateFn: func(ctx context.Context, a *model.Author) error {
			saved = a
			return nil
		},
	}
	svc := New(m)

	newBio := "Russian novelist"
	a, err := svc.Update(context.Background(), 7, UpdateReq{Biography: &newBio})
	require.NoError(t, err)
	require.Equal(t, "Leo Tolstoy", a.Name)
	require.Equal(t, &newBio, a.Biography)
	require.Equal(t, saved, a)
}

func TestDelete_NotFound(t *testing.T) {
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) error { return sql.ErrNoRows },
	}
	svc := New(m)

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	require.Equal(t, ErrAuthorNotFound, Code(err))
}
