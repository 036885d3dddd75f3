package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/quillpress/quillpress/internal/articles"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for articles.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the unique slug index and the listing index.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return articles.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return articles.ErrDuplicateSlug
	}
	return err
}

func (m *MongoRepo) Create(ctx context.Context, a *articles.Article) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.LikedBy == nil {
		a.LikedBy = []string{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := m.col.InsertOne(ctx, a)
	return mapErr(err)
}

func (m *MongoRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*articles.Article, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a articles.Article
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a); err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (m *MongoRepo) GetByID(ctx context.Context, id string) (*articles.Article, error) {
	var a articles.Article
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (m *MongoRepo) View(ctx context.Context, slug string) (*articles.Article, error) {
	return m.findOneAndUpdate(ctx,
		bson.M{"slug": slug, "status": articles.StatusPublished},
		bson.M{"$inc": bson.M{"views": 1}})
}

func listFilter(f articles.Filter) bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.Tag != "" {
		q["tags"] = f.Tag
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q["$or"] = bson.A{bson.M{"title": re}, bson.M{"summary": re}}
	}
	return q
}

func (m *MongoRepo) List(ctx context.Context, f articles.Filter) ([]*articles.Article, int64, error) {
	filter := listFilter(f)
	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(f.Skip).
		SetProjection(bson.M{"body": 0})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []*articles.Article{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func patchSet(p articles.Patch) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Slug != nil {
		set["slug"] = *p.Slug
	}
	if p.Summary != nil {
		set["summary"] = *p.Summary
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Featured != nil {
		set["featured"] = *p.Featured
	}
	if p.PublishedAt != nil {
		set["publishedAt"] = *p.PublishedAt
	}
	return set
}

func (m *MongoRepo) Update(ctx context.Context, id string, p articles.Patch) (*articles.Article, error) {
	return m.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": patchSet(p)})
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return articles.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Like(ctx context.Context, id, userID string) (*articles.Article, error) {
	return m.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"likedBy": userID}})
}
