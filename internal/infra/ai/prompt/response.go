package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

type rawScores struct {
	Technical   *float64 `json:"technical"`
	Composition *float64 `json:"composition"`
	Aesthetic   *float64 `json:"aesthetic"`
	Narrative   *float64 `json:"narrative"`
}

type rawResult struct {
	Scores   *rawScores      `json:"scores"`
	Analysis json.RawMessage `json:"analysis"`
}

// ParseResult extracts the scores and commentary from free-form model output.
// Every failure wraps ai.ErrUnusableResponse.
func ParseResult(text string) (ai.Result, error) {
	obj, ok := ExtractObject(StripFences(text))
	if !ok {
		return ai.Result{}, fmt.Errorf("%w: no json object in %q", ai.ErrUnusableResponse, preview(text))
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return ai.Result{}, fmt.Errorf("%w: decode: %v", ai.ErrUnusableResponse, err)
	}

	scores, err := raw.Scores.toScoreSet()
	if err != nil {
		return ai.Result{}, err
	}

	return ai.Result{
		Scores:   scores.Clamp(),
		Analysis: decodeCommentary(raw.Analysis).Normalize(),
	}, nil
}

func (s *rawScores) toScoreSet() (photos.ScoreSet, error) {
	if s == nil {
		return photos.ScoreSet{}, fmt.Errorf("%w: missing scores", ai.ErrUnusableResponse)
	}
	dims := []struct {
		name string
		v    *float64
	}{
		{"technical", s.Technical},
		{"composition", s.Composition},
		{"aesthetic", s.Aesthetic},
		{"narrative", s.Narrative},
	}
	for _, d := range dims {
		if d.v == nil {
			return photos.ScoreSet{}, fmt.Errorf("%w: missing score %q", ai.ErrUnusableResponse, d.name)
		}
	}
	return photos.ScoreSet{
		Technical:   int(*s.Technical),
		Composition: int(*s.Composition),
		Aesthetic:   int(*s.Aesthetic),
		Narrative:   int(*s.Narrative),
	}, nil
}

// decodeCommentary accepts a nested object or a JSON-encoded string.
// Anything unreadable becomes empty commentary.
func decodeCommentary(raw json.RawMessage) photos.Commentary {
	var c photos.Commentary
	if len(raw) == 0 {
		return c
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return photos.Commentary{}
		}
		return c
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return photos.Commentary{}
	}
	return c
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			tag := strings.TrimSpace(s[:nl])
			if tag == "" || !strings.ContainsAny(tag, "{[") {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the first balanced top-level {...} in text. Braces
// inside JSON strings are ignored.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func preview(s string) string {
	const n = 120
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
