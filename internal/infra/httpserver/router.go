package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appphotos "github.com/bryanwahyu/photo-critic/internal/application/photos"
	appusers "github.com/bryanwahyu/photo-critic/internal/application/users"
	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/domain/users"
	"github.com/bryanwahyu/photo-critic/internal/middleware"
)

// PhotoService is the photo use-case surface the router needs
type PhotoService interface {
	Analyze(ctx context.Context, cmd appphotos.AnalyzeCommand) (*photos.Record, error)
	History(ctx context.Context, userID string, page, pageSize int) (photos.Page, error)
	Detail(ctx context.Context, userID string, id photos.PhotoID) (*photos.Record, error)
	Delete(ctx context.Context, userID string, id photos.PhotoID) error
}

// UserService is the account use-case surface the router needs
type UserService interface {
	Register(ctx context.Context, in appusers.Credentials) (*users.User, error)
	Login(ctx context.Context, in appusers.Credentials) (appusers.Token, error)
	Me(ctx context.Context, userID string) (*users.User, error)
}

type Options struct {
	Photos         PhotoService
	Users          UserService
	Verifier       middleware.TokenVerifier
	Limiter        *middleware.RateLimiter
	Health         map[string]middleware.HealthChecker
	Providers      []string
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Router struct {
	photos    PhotoService
	users     UserService
	maxUpload int64
}

// errBadRequest marks request validation failures
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func NewRouter(opts Options) http.Handler {
	r := &Router{photos: opts.Photos, users: opts.Users, maxUpload: opts.MaxUploadBytes}
	if r.maxUpload <= 0 {
		r.maxUpload = 20 << 20
	}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Health, opts.Providers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", r.wrap(r.handleRegister))
		api.Post("/auth/login", r.wrap(r.handleLogin))

		api.Group(func(priv chi.Router) {
			priv.Use(middleware.BearerAuth(opts.Verifier))
			priv.Get("/auth/me", r.wrap(r.handleMe))

			priv.Route("/photo", func(pr chi.Router) {
				if opts.Limiter != nil {
					pr.With(middleware.RateLimitMiddleware(opts.Limiter)).Post("/analyze", r.wrap(r.handleAnalyze))
				} else {
					pr.Post("/analyze", r.wrap(r.handleAnalyze))
				}
				pr.Get("/history", r.wrap(r.handleHistory))
				pr.Get("/{id}", r.wrap(r.handleDetail))
				pr.Delete("/{id}", r.wrap(r.handleDelete))
			})
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := statusFor(err)
			if status >= http.StatusInternalServerError {
				log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			}
			middleware.WriteDetail(w, status, msg)
		}
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, photos.ErrNotFound), errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, photos.ErrNotImage):
		return http.StatusBadRequest, "file must be an image"
	case errors.Is(err, photos.ErrInvalidImage):
		return http.StatusBadRequest, "invalid image file"
	case errors.Is(err, ai.ErrUnsupportedProvider):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errBadRequest), errors.Is(err, users.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, "incorrect username or password"
	case errors.Is(err, users.ErrUsernameTaken):
		return http.StatusConflict, "username already registered"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "ai quota exceeded"
	case errors.Is(err, ai.ErrUnusableResponse):
		return http.StatusBadGateway, "ai provider returned an unusable response"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /api/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	creds, err := readCredentials(req)
	if err != nil {
		return err
	}
	u, err := r.users.Register(req.Context(), creds)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, u)
}

// POST /api/auth/login, form (username, password) or JSON
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	creds, err := readCredentials(req)
	if err != nil {
		return err
	}
	tok, err := r.users.Login(req.Context(), creds)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tok)
}

// GET /api/auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	u, err := r.users.Me(req.Context(), middleware.GetUserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, u)
}

// POST /api/photo/analyze, multipart "file" plus optional "model"
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("expected multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	rec, err := r.photos.Analyze(req.Context(), appphotos.AnalyzeCommand{
		UserID:      middleware.GetUserFromContext(req.Context()),
		Filename:    middleware.SanitizeFilename(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Provider:    strings.TrimSpace(req.FormValue("model")),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /api/photo/history?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, err := middleware.ParsePositiveInt(q.Get("page"), 1)
	if err != nil {
		return badRequest("page %v", err)
	}
	size, err := middleware.ParsePositiveInt(q.Get("page_size"), appphotos.DefaultPageSize)
	if err != nil {
		return badRequest("page_size %v", err)
	}

	p, err := r.photos.History(req.Context(), middleware.GetUserFromContext(req.Context()), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// GET /api/photo/{id}
func (r *Router) handleDetail(w http.ResponseWriter, req *http.Request) error {
	id, err := photoID(req)
	if err != nil {
		return err
	}
	rec, err := r.photos.Detail(req.Context(), middleware.GetUserFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /api/photo/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := photoID(req)
	if err != nil {
		return err
	}
	if err := r.photos.Delete(req.Context(), middleware.GetUserFromContext(req.Context()), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// photoID treats malformed ids as missing records
func photoID(req *http.Request) (photos.PhotoID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePhotoID(id); err != nil {
		return "", photos.ErrNotFound
	}
	return photos.PhotoID(id), nil
}

func readCredentials(req *http.Request) (appusers.Credentials, error) {
	var creds appusers.Credentials
	ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(1 << 16); err != nil {
			return creds, badRequest("invalid form: %v", err)
		}
		creds.Username = req.FormValue("username")
		creds.Password = req.FormValue("password")
	case "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			return creds, badRequest("invalid form: %v", err)
		}
		creds.Username = req.FormValue("username")
		creds.Password = req.FormValue("password")
	default:
		if err := json.NewDecoder(io.LimitReader(req.Body, 1<<16)).Decode(&creds); err != nil {
			return creds, badRequest("invalid json body")
		}
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, badRequest("username and password are required")
	}
	return creds, nil
}
