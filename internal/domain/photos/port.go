package photos

import "context"

// Repository port (persistence of analysis records)
type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, userID string, id PhotoID) (*Record, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]ListItem, int64, error)
	Delete(ctx context.Context, userID string, id PhotoID) error
}

// Normalizer port (image preparation before storage and provider calls)
type Normalizer interface {
	Normalize(raw []byte) (Normalized, error)
	Metadata(raw []byte) (ImageMeta, bool)
}

// ImageStore port (optional archive of normalized images)
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
