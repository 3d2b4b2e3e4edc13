package postgres

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/photo-critic/internal/domain/users"
)

type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	return err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM users WHERE username=$1 LIMIT 1;`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM users WHERE id=$1 LIMIT 1;`, id)
}

func (r *UserRepository) getOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
