package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillpress/quillpress/internal/articles"
	"github.com/quillpress/quillpress/internal/articles/repository"
)

// Service holds the article rules shared by the public and admin routes.
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return New(repository.NewMemoryRepo())
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", articles.ErrInvalid, msg)
}

// Author identifies who creates an article.
type Author struct {
	ID   string
	Name string
}

// CreateInput is the body of an admin create request.
type CreateInput struct {
	Title    string          `json:"title"`
	Slug     string          `json:"slug"`
	Summary  string          `json:"summary"`
	Body     string          `json:"body"`
	Category string          `json:"category"`
	Tags     []string        `json:"tags"`
	Status   articles.Status `json:"status"`
	Featured bool            `json:"featured"`
}

func (s *Service) Create(ctx context.Context, author Author, in CreateInput) (*articles.Article, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	slug := articles.Slugify(in.Slug)
	if slug == "" {
		slug = articles.Slugify(title)
	}
	if slug == "" {
		return nil, invalid("title must contain letters or digits")
	}
	status := in.Status
	if status == "" {
		status = articles.StatusDraft
	}
	if !status.Valid() {
		return nil, invalid("unknown status " + string(status))
	}
	a := &articles.Article{
		Title:      title,
		Slug:       slug,
		Summary:    strings.TrimSpace(in.Summary),
		Body:       in.Body,
		Category:   strings.TrimSpace(in.Category),
		Tags:       articles.NormalizeTags(in.Tags),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Status:     status,
		Featured:   in.Featured,
		LikedBy:    []string{},
	}
	if status == articles.StatusPublished {
		t := s.now().UTC()
		a.PublishedAt = &t
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies an admin patch. Publishing a never-published article stamps publishedAt.
func (s *Service) Update(ctx context.Context, id string, p articles.Patch) (*articles.Article, error) {
	if p.Empty() {
		return nil, invalid("no fields to update")
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		p.Title = &t
	}
	if p.Slug != nil {
		slug := articles.Slugify(*p.Slug)
		if slug == "" {
			return nil, invalid("slug cannot be empty")
		}
		p.Slug = &slug
	}
	if p.Tags != nil {
		tags := articles.NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, invalid("unknown status " + string(*p.Status))
		}
		if *p.Status == articles.StatusPublished {
			cur, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if cur.PublishedAt == nil {
				t := s.now().UTC()
				p.PublishedAt = &t
			}
		}
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// View returns a published article and counts the read.
func (s *Service) View(ctx context.Context, slug string) (*articles.Article, error) {
	return s.repo.View(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// Query is a public listing request.
type Query struct {
	Page     int
	Limit    int
	Category string
	Tag      string
	Text     string
}

// ListPublished pages through published articles. defaultLimit comes from site settings.
func (s *Service) ListPublished(ctx context.Context, q Query, defaultLimit int) ([]*articles.Article, int64, error) {
	skip, limit := articles.Page(q.Page, q.Limit, defaultLimit)
	return s.repo.List(ctx, articles.Filter{
		Status:   articles.StatusPublished,
		Category: strings.TrimSpace(q.Category),
		Tag:      strings.ToLower(strings.TrimSpace(q.Tag)),
		Query:    strings.TrimSpace(q.Text),
		Skip:     skip,
		Limit:    limit,
	})
}

// Featured returns up to limit featured, published articles. A limit of 0
// turns the featured strip off.
func (s *Service) Featured(ctx context.Context, limit int) ([]*articles.Article, error) {
	if limit <= 0 {
		return []*articles.Article{}, nil
	}
	_, size := articles.Page(1, limit, limit)
	yes := true
	list, _, err := s.repo.List(ctx, articles.Filter{Status: articles.StatusPublished, Featured: &yes, Limit: size})
	return list, err
}

// ListAll is the admin listing; status may be empty.
func (s *Service) ListAll(ctx context.Context, status articles.Status, page, limit int) ([]*articles.Article, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, invalid("unknown status " + string(status))
	}
	skip, size := articles.Page(page, limit, articles.DefaultPageSize)
	return s.repo.List(ctx, articles.Filter{Status: status, Skip: skip, Limit: size})
}

// Like records userID's like on a published article.
func (s *Service) Like(ctx context.Context, id, userID string) (*articles.Article, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != articles.StatusPublished {
		return nil, articles.ErrNotFound
	}
	return s.repo.Like(ctx, id, userID)
}
