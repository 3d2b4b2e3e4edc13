package photos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/bryanwahyu/photo-critic/internal/application"
	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	domain "github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Service implements the photo use-cases.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	Repo       domain.Repository
	Normalizer domain.Normalizer
	Providers  ai.Resolver
	Images     domain.ImageStore // optional
	Clock      application.Clock
	TempDir    string
}

// AnalyzeCommand carries one upload
type AnalyzeCommand struct {
	UserID      string
	Filename    string
	ContentType string
	Data        []byte
	Provider    string
}

// Analyze normalizes the upload, asks the provider for a critique and
// persists the result.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*domain.Record, error) {
	if !strings.HasPrefix(strings.ToLower(cmd.ContentType), "image/") {
		return nil, fmt.Errorf("%w: content type %q", domain.ErrNotImage, cmd.ContentType)
	}
	if _, ok := s.Normalizer.Metadata(cmd.Data); !ok {
		return nil, domain.ErrInvalidImage
	}

	client, err := s.Providers.Resolve(cmd.Provider)
	if err != nil {
		return nil, err
	}

	norm, err := s.Normalizer.Normalize(cmd.Data)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := s.writeTemp(cmd.UserID, cmd.Filename, norm.Bytes)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res, err := client.Analyze(ctx, path, cmd.Filename)
	if err != nil {
		return nil, fmt.Errorf("analyze with %s: %w", client.Provider(), err)
	}

	id := domain.PhotoID(uuid.NewString())
	rec := domain.NewRecord(id, cmd.UserID, cmd.Filename, res.Scores, res.Analysis, client.Provider().String(), s.now())
	rec.Thumbnail = norm.Thumbnail
	rec.ImageData = domain.JPEGDataURI(norm.Bytes)
	rec.ImageURL = s.archive(ctx, cmd.UserID, id, norm.Bytes)

	if err := s.Repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  cmd.UserID,
		"photo_id": id,
		"provider": rec.ModelUsed,
		"overall":  rec.OverallScore,
	}).Info("photo analysed")
	return rec, nil
}

// History returns one page of the user's records, newest first.
func (s *Service) History(ctx context.Context, userID string, page, pageSize int) (domain.Page, error) {
	page, pageSize = NormalizePaging(page, pageSize)
	items, total, err := s.Repo.List(ctx, userID, page, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	if items == nil {
		items = []domain.ListItem{}
	}
	return domain.Page{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}

// Detail fetches one record; foreign records look missing.
func (s *Service) Detail(ctx context.Context, userID string, id domain.PhotoID) (*domain.Record, error) {
	return s.Repo.Get(ctx, userID, id)
}

// Delete removes the record and, best-effort, its archived image.
func (s *Service) Delete(ctx context.Context, userID string, id domain.PhotoID) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if s.Images != nil {
		if err := s.Images.Remove(ctx, objectKey(userID, id)); err != nil {
			log.WithError(err).WithField("photo_id", id).Warn("failed to remove archived image")
		}
	}
	return nil
}

// NormalizePaging applies defaults (1, 10) and caps the page size.
func NormalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (s *Service) writeTemp(userID, filename string, data []byte) (string, func(), error) {
	dir := s.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.CreateTemp(dir, userID+"_*_"+safeName(filename))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("failed to remove temp file")
		}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

func (s *Service) archive(ctx context.Context, userID string, id domain.PhotoID, data []byte) string {
	if s.Images == nil {
		return ""
	}
	url, err := s.Images.Put(ctx, objectKey(userID, id), data, "image/jpeg")
	if err != nil {
		log.WithError(err).WithField("photo_id", id).Warn("failed to archive image")
		return ""
	}
	return url
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func objectKey(userID string, id domain.PhotoID) string {
	return fmt.Sprintf("photos/%s/%s.jpg", userID, id)
}

// safeName keeps the base name and drops characters CreateTemp rejects.
func safeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '*', 0:
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		return "upload.jpg"
	}
	return name
}
