package pitches

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	maxTitle    = 200
	maxSynopsis = 5000
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalid, msg) }

// Writer is the submitting account as seen by the service.
type Writer struct {
	ID       string
	Email    string
	IsWriter bool
}

type SubmitInput struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
	Category string `json:"category"`
}

// Submit files a new pending pitch. open reports whether the site accepts pitches.
func (s *Service) Submit(ctx context.Context, w Writer, in SubmitInput, open bool) (*Pitch, error) {
	if !open {
		return nil, ErrDisabled
	}
	if !w.IsWriter {
		return nil, ErrNotWriter
	}
	title, synopsis := strings.TrimSpace(in.Title), strings.TrimSpace(in.Synopsis)
	switch {
	case title == "":
		return nil, invalid("title is required")
	case len(title) > maxTitle:
		return nil, invalid(fmt.Sprintf("title must be at most %d characters", maxTitle))
	case synopsis == "":
		return nil, invalid("synopsis is required")
	case len(synopsis) > maxSynopsis:
		return nil, invalid(fmt.Sprintf("synopsis must be at most %d characters", maxSynopsis))
	}
	p := &Pitch{
		WriterID:    w.ID,
		WriterEmail: w.Email,
		Title:       title,
		Synopsis:    synopsis,
		Category:    strings.TrimSpace(in.Category),
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Mine(ctx context.Context, writerID string) ([]*Pitch, error) {
	return s.repo.ListByWriter(ctx, writerID)
}

func (s *Service) List(ctx context.Context, status Status, skip, limit int64) ([]*Pitch, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, invalid("unknown status " + string(status))
	}
	return s.repo.List(ctx, status, skip, limit)
}

type ReviewInput struct {
	Status Status `json:"status"`
	Note   string `json:"note"`
}

// Review records an admin decision and an optional note.
func (s *Service) Review(ctx context.Context, id, reviewerEmail string, in ReviewInput) (*Pitch, error) {
	if !in.Status.Valid() {
		return nil, invalid("status must be pending, accepted or rejected")
	}
	now := s.now().UTC()
	var note *Note
	if text := strings.TrimSpace(in.Note); text != "" {
		note = &Note{AuthorEmail: reviewerEmail, Content: text, CreatedAt: now}
	}
	return s.repo.Review(ctx, id, in.Status, note, now)
}
