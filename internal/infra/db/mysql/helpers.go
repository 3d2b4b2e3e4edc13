package mysql

import (
	"encoding/json"
	"errors"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

const errDuplicateEntry = 1062

// stringOrDash returns "-" when the input is empty/whitespace
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

// decodeCommentary degrades unreadable JSON to empty commentary.
func decodeCommentary(s string) photos.Commentary {
	var c photos.Commentary
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return photos.Commentary{}.Normalize()
	}
	return c.Normalize()
}

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}
