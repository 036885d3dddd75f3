package users

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/quillpress/quillpress/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Fields is a partial update keyed by document path ("firstName", "profile.bio").
// Only the listed paths are written, so updates touching different paths merge.
type Fields map[string]interface{}

// ListFilter selects a page of users. Query matches email or names.
type ListFilter struct {
	Query string
	Skip  int64
	Limit int64
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateByID(ctx context.Context, id string, f Fields) (*models.User, error)
	UpdateByEmail(ctx context.Context, email string, f Fields) (*models.User, error)
	List(ctx context.Context, f ListFilter) ([]*models.User, int64, error)
	// EnsureAdmin inserts u only when no account with its email exists.
	EnsureAdmin(ctx context.Context, u *models.User) (bool, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, err := r.col.Indexes().CreateOne(ctx, idx)
	return err
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) update(ctx context.Context, filter bson.M, f Fields) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range f {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) UpdateByID(ctx context.Context, id string, f Fields) (*models.User, error) {
	return r.update(ctx, bson.M{"_id": id}, f)
}

func (r *MongoUserRepository) UpdateByEmail(ctx context.Context, email string, f Fields) (*models.User, error) {
	return r.update(ctx, bson.M{"email": email}, f)
}

func (r *MongoUserRepository) List(ctx context.Context, f ListFilter) ([]*models.User, int64, error) {
	filter := bson.M{}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"email": re}, bson.M{"firstName": re}, bson.M{"lastName": re}}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, 0, err
		}
		out = append(out, &u)
	}
	return out, total, cur.Err()
}

func (r *MongoUserRepository) EnsureAdmin(ctx context.Context, u *models.User) (bool, error) {
	now := time.Now().UTC()
	doc := bson.M{
		"_id":        primitive.NewObjectID().Hex(),
		"email":      u.Email,
		"firstName":  u.FirstName,
		"lastName":   u.LastName,
		"password":   u.Password,
		"role":       u.Role,
		"isVerified": true,
		"isWriter":   u.IsWriter,
		"profile":    u.Profile,
		"createdAt":  now,
		"updatedAt":  now,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"email": u.Email}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}
