package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

const uniqueViolation = "23505"

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func encodeCommentary(c photos.Commentary) (string, error) {
	b, err := json.Marshal(c.Normalize())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCommentary(s string) photos.Commentary {
	var c photos.Commentary
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return photos.Commentary{}.Normalize()
	}
	return c.Normalize()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
