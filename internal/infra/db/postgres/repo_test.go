package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/domain/users"
)

func TestPhotoListUsesNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM photos WHERE user_id=$1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("u1", 5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "thumbnail", "technical", "composition", "aesthetic", "narrative", "created_at"}).
			AddRow("p1", "a.jpg", "t", 85, 78, 82, 75, at))

	items, total, err := NewPhotoRepository(db).List(context.Background(), "u1", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, 80, items[0].OverallScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoDeleteForeignOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM photos WHERE user_id=$1 AND id=$2")).
		WithArgs("u2", "p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPhotoRepository(db).Delete(context.Background(), "u2", "p1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserCreateUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err = NewUserRepository(db).Create(context.Background(), &users.User{ID: "u1", Username: "alice"})
	assert.True(t, errors.Is(err, users.ErrUsernameTaken))
}
