package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

type PhotoRepository struct {
	db *sql.DB
}

func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts one analysis record
func (r *PhotoRepository) Create(ctx context.Context, p *domain.Record) error {
	const q = `
INSERT INTO photos
(id, user_id, filename, thumbnail, image_data, image_url,
 technical, composition, aesthetic, narrative, overall_score,
 analysis, model_used, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	analysis, err := encodeCommentary(p.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.UserID, stringOrDash(p.Filename), p.Thumbnail, p.ImageData, p.ImageURL,
		p.Scores.Technical, p.Scores.Composition, p.Scores.Aesthetic, p.Scores.Narrative, p.Scores.Overall(),
		analysis, p.ModelUsed, p.CreatedAt.UTC(),
	)
	return err
}

// Get by ID + owner
func (r *PhotoRepository) Get(ctx context.Context, userID string, id domain.PhotoID) (*domain.Record, error) {
	const q = `
SELECT id, user_id, filename, thumbnail, image_data, image_url,
       technical, composition, aesthetic, narrative,
       analysis, model_used, created_at
FROM photos
WHERE user_id=? AND id=? LIMIT 1;
`
	var p domain.Record
	var analysis string
	err := r.db.QueryRowContext(ctx, q, userID, id).Scan(
		&p.ID, &p.UserID, &p.Filename, &p.Thumbnail, &p.ImageData, &p.ImageURL,
		&p.Scores.Technical, &p.Scores.Composition, &p.Scores.Aesthetic, &p.Scores.Narrative,
		&analysis, &p.ModelUsed, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.OverallScore = p.Scores.Overall()
	p.Analysis = decodeCommentary(analysis)
	return &p, nil
}

// List one page of a user's history, newest first
func (r *PhotoRepository) List(ctx context.Context, userID string, page, pageSize int) ([]domain.ListItem, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE user_id=?;`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT id, filename, thumbnail, technical, composition, aesthetic, narrative, created_at
FROM photos
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.ListItem{}
	for rows.Next() {
		var it domain.ListItem
		var s domain.ScoreSet
		if err := rows.Scan(&it.ID, &it.Filename, &it.Thumbnail,
			&s.Technical, &s.Composition, &s.Aesthetic, &s.Narrative, &it.CreatedAt); err != nil {
			return nil, 0, err
		}
		it.OverallScore = s.Overall()
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Delete by ID + owner
func (r *PhotoRepository) Delete(ctx context.Context, userID string, id domain.PhotoID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE user_id=? AND id=?;`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
