package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/domain/users"
)

var created = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPhotoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := domain.NewRecord("p1", "u1", "a.jpg", domain.ScoreSet{Technical: 85, Composition: 78, Aesthetic: 82, Narrative: 75}, domain.Commentary{Highlights: []string{"h"}}, "openai", created)
	rec.Thumbnail = "thumb"
	rec.ImageData = "data"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO photos")).
		WithArgs("p1", "u1", "a.jpg", "thumb", "data", "", 85, 78, 82, 75, 80,
			`{"highlights":["h"],"improvements":[],"suggestions":[]}`, "openai", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewPhotoRepository(db).Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "user_id", "filename", "thumbnail", "image_data", "image_url",
		"technical", "composition", "aesthetic", "narrative", "analysis", "model_used", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM photos")).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("p1", "u1", "a.jpg", "t", "d", "", 85, 78, 82, 75, "not-json", "claude", created))

	got, err := NewPhotoRepository(db).Get(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 80, got.OverallScore)
	assert.Equal(t, []string{}, got.Analysis.Highlights)
	assert.Equal(t, "claude", got.ModelUsed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM photos")).
		WithArgs("intruder", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPhotoRepository(db).Get(context.Background(), "intruder", "p1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPhotoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM photos")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs("u1", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "thumbnail", "technical", "composition", "aesthetic", "narrative", "created_at"}).
			AddRow("p2", "b.jpg", "t2", 100, 100, 100, 100, created).
			AddRow("p1", "a.jpg", "t1", 1, 1, 1, 0, created))

	items, total, err := NewPhotoRepository(db).List(context.Background(), "u1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, items, 2)
	assert.Equal(t, 100, items[0].OverallScore)
	assert.Equal(t, 0, items[1].OverallScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM photos")).WithArgs("u1", "p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM photos")).WithArgs("u2", "p1").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPhotoRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "u1", "p1"))
	assert.True(t, errors.Is(repo.Delete(context.Background(), "u2", "p1"), domain.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = NewUserRepository(db).Create(context.Background(), &users.User{ID: "u1", Username: "alice", CreatedAt: created, UpdatedAt: created})
	assert.True(t, errors.Is(err, users.ErrUsernameTaken))
}

func TestUserGetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username=?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "alice", "hash", created, created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id=?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepository(db)
	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, users.ErrNotFound))
}
