package photos

import (
	"encoding/base64"
	"time"
)

// PhotoID identifier type
type PhotoID string

const (
	MinScore = 0
	MaxScore = 100
)

// ScoreSet value object: four independent ratings in [0,100].
// The overall score is always derived, see Overall.
type ScoreSet struct {
	Technical   int `json:"technical"`
	Composition int `json:"composition"`
	Aesthetic   int `json:"aesthetic"`
	Narrative   int `json:"narrative"`
}

// Overall is the floored arithmetic mean of the four dimensions.
func (s ScoreSet) Overall() int {
	return (s.Technical + s.Composition + s.Aesthetic + s.Narrative) / 4
}

// Clamp forces every dimension into [MinScore, MaxScore].
func (s ScoreSet) Clamp() ScoreSet {
	return ScoreSet{
		Technical:   clamp(s.Technical),
		Composition: clamp(s.Composition),
		Aesthetic:   clamp(s.Aesthetic),
		Narrative:   clamp(s.Narrative),
	}
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Commentary value object: qualitative feedback in three ordered lists.
type Commentary struct {
	Highlights   []string `json:"highlights"`
	Improvements []string `json:"improvements"`
	Suggestions  []string `json:"suggestions"`
}

// Normalize backfills missing lists so they encode as [] instead of null.
func (c Commentary) Normalize() Commentary {
	if c.Highlights == nil {
		c.Highlights = []string{}
	}
	if c.Improvements == nil {
		c.Improvements = []string{}
	}
	if c.Suggestions == nil {
		c.Suggestions = []string{}
	}
	return c
}

// Aggregate Root: Record, one analysed photo
type Record struct {
	ID           PhotoID    `json:"id"`
	UserID       string     `json:"-"`
	Filename     string     `json:"filename"`
	Thumbnail    string     `json:"thumbnail"`
	ImageData    string     `json:"image_data"`
	ImageURL     string     `json:"image_url,omitempty"`
	Scores       ScoreSet   `json:"scores"`
	OverallScore int        `json:"overall_score"`
	Analysis     Commentary `json:"analysis"`
	ModelUsed    string     `json:"model_used"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewRecord assembles a record and derives the overall score from scores.
func NewRecord(id PhotoID, userID, filename string, scores ScoreSet, analysis Commentary, model string, createdAt time.Time) *Record {
	scores = scores.Clamp()
	return &Record{
		ID:           id,
		UserID:       userID,
		Filename:     filename,
		Scores:       scores,
		OverallScore: scores.Overall(),
		Analysis:     analysis.Normalize(),
		ModelUsed:    model,
		CreatedAt:    createdAt,
	}
}

// ListItem is the history row shape
type ListItem struct {
	ID           PhotoID   `json:"id"`
	Filename     string    `json:"filename"`
	Thumbnail    string    `json:"thumbnail"`
	OverallScore int       `json:"overall_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page represents one page of a user's history
type Page struct {
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Items    []ListItem `json:"items"`
}

// Normalized is the output of the image normalizer
type Normalized struct {
	Bytes     []byte
	Thumbnail string
}

// ImageMeta describes a decodable upload
type ImageMeta struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	ColorModel  string `json:"color_model"`
	Orientation int    `json:"orientation"`
}

// JPEGDataURI renders JPEG bytes as an embeddable data URI.
func JPEGDataURI(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
