package authRepository

import (
	"TravelExpense/internal/api/auth"
	"TravelExpense/internal/entity"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "name", "email", "password", "role", "created_at", "updated_at"}

func newTestClient(t *testing.T) (Client, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := New(sqlx.NewDb(db, "postgres"), logger).NewClient(context.Background(), false)
	require.NoError(t, err)

	return client, mock
}

func TestCreateUser(t *testing.T) {
	client, mock := newTestClient(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("01J000", "Alicia", "alicia@example.com", "hash", "USER", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.Users.CreateUser(context.Background(), entity.User{
		ID:        "01J000",
		Name:      "Alicia",
		Email:     "alicia@example.com",
		Password:  "hash",
		Role:      entity.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	client, mock := newTestClient(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := client.Users.CreateUser(context.Background(), entity.User{ID: "x", Email: "a@b.c", Role: entity.RoleUser})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestCreateUser_DatabaseError(t *testing.T) {
	client, mock := newTestClient(t)
	boom := errors.New("connection refused")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(boom)

	err := client.Users.CreateUser(context.Background(), entity.User{ID: "x", Email: "a@b.c", Role: entity.RoleUser})
	assert.ErrorIs(t, err, boom)
}

func TestGetByEmail(t *testing.T) {
	client, mock := newTestClient(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(email) = lower($1)")).
		WithArgs("Admin@Example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("01JADMIN", "Root", "admin@example.com", nil, "ADMIN", created, created))

	user, err := client.Users.GetByEmail(context.Background(), "Admin@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "01JADMIN", user.ID)
	assert.Equal(t, entity.RoleAdmin, user.Role)
	assert.Empty(t, user.Password)
	assert.Equal(t, created, user.CreatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	client, mock := newTestClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := client.Users.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	client, mock := newTestClient(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("1", "Alicia", "alicia@example.com", "h1", "USER", now, now).
			AddRow("2", "Bruno", "bruno@example.com", "h2", "ADMIN", now, now))

	users, err := client.Users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alicia", users[0].Name)
	assert.Equal(t, entity.RoleAdmin, users[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
