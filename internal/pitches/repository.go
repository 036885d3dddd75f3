package pitches

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists pitches.
type Repository interface {
	Create(ctx context.Context, p *Pitch) error
	GetByID(ctx context.Context, id string) (*Pitch, error)
	ListByWriter(ctx context.Context, writerID string) ([]*Pitch, error)
	List(ctx context.Context, status Status, skip, limit int64) ([]*Pitch, int64, error)
	// Review sets the status and appends note when it is non-nil.
	Review(ctx context.Context, id string, status Status, note *Note, at time.Time) (*Pitch, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "writerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, p *Pitch) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	if p.Notes == nil {
		p.Notes = []Note{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Pitch, error) {
	var p Pitch
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Pitch, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Pitch{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ListByWriter(ctx context.Context, writerID string) ([]*Pitch, error) {
	return r.find(ctx, bson.M{"writerId": writerID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *MongoRepository) List(ctx context.Context, status Status, skip, limit int64) ([]*Pitch, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	out, err := r.find(ctx, filter, opts)
	return out, total, err
}

func (r *MongoRepository) Review(ctx context.Context, id string, status Status, note *Note, at time.Time) (*Pitch, error) {
	update := bson.M{"$set": bson.M{"status": status, "reviewedAt": at, "updatedAt": at}}
	if note != nil {
		update["$push"] = bson.M{"notes": note}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Pitch
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
