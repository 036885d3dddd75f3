package repository

import (
	"context"

	"github.com/quillpress/quillpress/internal/articles"
)

// Repository is implemented by MemoryRepo and MongoRepo.
type Repository interface {
	Create(ctx context.Context, a *articles.Article) error
	GetByID(ctx context.Context, id string) (*articles.Article, error)
	// View returns a published article by slug and counts the view.
	View(ctx context.Context, slug string) (*articles.Article, error)
	List(ctx context.Context, f articles.Filter) ([]*articles.Article, int64, error)
	Update(ctx context.Context, id string, p articles.Patch) (*articles.Article, error)
	Delete(ctx context.Context, id string) error
	// Like adds userID to likedBy at most once.
	Like(ctx context.Context, id, userID string) (*articles.Article, error)
}
