// Package articles holds the published content model.
package articles

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrNotFound      = errors.New("article not found")
	ErrDuplicateSlug = errors.New("an article with this slug already exists")
	ErrInvalid       = errors.New("invalid article")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Article is the stored article document.
type Article struct {
	ID          string     `json:"_id" bson:"_id,omitempty"`
	Title       string     `json:"title" bson:"title"`
	Slug        string     `json:"slug" bson:"slug"`
	Summary     string     `json:"summary,omitempty" bson:"summary,omitempty"`
	Body        string     `json:"body,omitempty" bson:"body"`
	Category    string     `json:"category,omitempty" bson:"category,omitempty"`
	Tags        []string   `json:"tags" bson:"tags"`
	AuthorID    string     `json:"authorId" bson:"authorId"`
	AuthorName  string     `json:"authorName,omitempty" bson:"authorName,omitempty"`
	Status      Status     `json:"status" bson:"status"`
	Featured    bool       `json:"featured" bson:"featured"`
	Views       int64      `json:"views" bson:"views"`
	LikedBy     []string   `json:"likedBy" bson:"likedBy"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Filter selects articles for listing. Empty fields match everything.
type Filter struct {
	Status   Status
	Category string
	Tag      string
	Query    string
	Featured *bool
	Skip     int64
	Limit    int64
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Summary     *string    `json:"summary"`
	Body        *string    `json:"body"`
	Category    *string    `json:"category"`
	Tags        *[]string  `json:"tags"`
	Status      *Status    `json:"status"`
	Featured    *bool      `json:"featured"`
	PublishedAt *time.Time `json:"-"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Slug == nil && p.Summary == nil && p.Body == nil &&
		p.Category == nil && p.Tags == nil && p.Status == nil && p.Featured == nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title, strips accents and joins words with "-".
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(title) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := nonAlnum.ReplaceAllString(strings.ToLower(b.String()), "-")
	return strings.Trim(s, "-")
}

// NormalizeTags trims, lower-cases and de-duplicates tags, keeping order.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	// MaxPage keeps (page-1)*MaxPageSize inside int64.
	MaxPage int64 = math.MaxInt64 / MaxPageSize
)

// Page converts 1-based page/limit query values into skip/limit, clamping
// limit to 1..MaxPageSize and page to 1..MaxPage. def is used when limit is
// not positive.
func Page(page, limit, def int) (skip, size int64) {
	if def <= 0 {
		def = DefaultPageSize
	}
	p := int64(page)
	if p < 1 {
		p = 1
	}
	if p > MaxPage {
		p = MaxPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return (p - 1) * int64(limit), int64(limit)
}
