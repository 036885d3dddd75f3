package settings

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentID is the fixed _id of the singleton settings document.
const DocumentID = "site-settings"

var ErrInvalid = errors.New("invalid settings")

// Settings is the site-wide configuration document.
type Settings struct {
	ID                string            `bson:"_id" json:"-"`
	SiteName          string            `bson:"siteName" json:"siteName"`
	Tagline           string            `bson:"tagline" json:"tagline"`
	ContactEmail      string            `bson:"contactEmail" json:"contactEmail"`
	AllowRegistration bool              `bson:"allowRegistration" json:"allowRegistration"`
	AllowPitches      bool              `bson:"allowPitches" json:"allowPitches"`
	MaintenanceMode   bool              `bson:"maintenanceMode" json:"maintenanceMode"`
	ArticlesPerPage   int               `bson:"articlesPerPage" json:"articlesPerPage"`
	FeaturedLimit     int               `bson:"featuredLimit" json:"featuredLimit"`
	SocialLinks       map[string]string `bson:"socialLinks" json:"socialLinks"`
	UpdatedAt         time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Defaults is written the first time the document is read.
func Defaults() Settings {
	return Settings{
		ID:                DocumentID,
		SiteName:          "Quillpress",
		Tagline:           "Stories worth reading",
		AllowRegistration: true,
		AllowPitches:      true,
		ArticlesPerPage:   10,
		FeaturedLimit:     3,
		SocialLinks:       map[string]string{},
	}
}

// Patch is a partial settings update; nil fields are left untouched.
type Patch struct {
	SiteName          *string            `json:"siteName"`
	Tagline           *string            `json:"tagline"`
	ContactEmail      *string            `json:"contactEmail"`
	AllowRegistration *bool              `json:"allowRegistration"`
	AllowPitches      *bool              `json:"allowPitches"`
	MaintenanceMode   *bool              `json:"maintenanceMode"`
	ArticlesPerPage   *int               `json:"articlesPerPage"`
	FeaturedLimit     *int               `json:"featuredLimit"`
	SocialLinks       *map[string]string `json:"socialLinks"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Set validates p and returns the document paths to $set.
func (p Patch) Set() (bson.M, error) {
	set := bson.M{}
	if p.SiteName != nil {
		n := strings.TrimSpace(*p.SiteName)
		if n == "" {
			return nil, invalid("siteName cannot be empty")
		}
		set["siteName"] = n
	}
	if p.Tagline != nil {
		set["tagline"] = strings.TrimSpace(*p.Tagline)
	}
	if p.ContactEmail != nil {
		e := strings.TrimSpace(*p.ContactEmail)
		if e != "" {
			if _, err := mail.ParseAddress(e); err != nil {
				return nil, invalid("contactEmail %q is not a valid address", e)
			}
		}
		set["contactEmail"] = e
	}
	if p.AllowRegistration != nil {
		set["allowRegistration"] = *p.AllowRegistration
	}
	if p.AllowPitches != nil {
		set["allowPitches"] = *p.AllowPitches
	}
	if p.MaintenanceMode != nil {
		set["maintenanceMode"] = *p.MaintenanceMode
	}
	if p.ArticlesPerPage != nil {
		if *p.ArticlesPerPage < 1 || *p.ArticlesPerPage > 50 {
			return nil, invalid("articlesPerPage must be between 1 and 50")
		}
		set["articlesPerPage"] = *p.ArticlesPerPage
	}
	if p.FeaturedLimit != nil {
		if *p.FeaturedLimit < 0 || *p.FeaturedLimit > 20 {
			return nil, invalid("featuredLimit must be between 0 and 20")
		}
		set["featuredLimit"] = *p.FeaturedLimit
	}
	if p.SocialLinks != nil {
		links := map[string]string{}
		for k, v := range *p.SocialLinks {
			if k = strings.TrimSpace(k); k != "" {
				links[k] = strings.TrimSpace(v)
			}
		}
		set["socialLinks"] = links
	}
	if len(set) == 0 {
		return nil, invalid("no fields to update")
	}
	return set, nil
}

// Store reads and updates the singleton. Get never fails for a missing
// document; defaults are materialised instead.
type Store interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, p Patch) (*Settings, error)
}

// MongoStore keeps the settings in one document of the given collection.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

// defaultsDoc returns Defaults without the keys in exclude, so $setOnInsert
// never conflicts with a $set on the same path.
func defaultsDoc(exclude bson.M) bson.M {
	d := Defaults()
	doc := bson.M{
		"siteName":          d.SiteName,
		"tagline":           d.Tagline,
		"contactEmail":      d.ContactEmail,
		"allowRegistration": d.AllowRegistration,
		"allowPitches":      d.AllowPitches,
		"maintenanceMode":   d.MaintenanceMode,
		"articlesPerPage":   d.ArticlesPerPage,
		"featuredLimit":     d.FeaturedLimit,
		"socialLinks":       d.SocialLinks,
		"updatedAt":         time.Now().UTC(),
	}
	for k := range exclude {
		delete(doc, k)
	}
	return doc
}

func (s *MongoStore) upsert(ctx context.Context, set bson.M) (*Settings, error) {
	update := bson.M{"$setOnInsert": defaultsDoc(set)}
	if len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out Settings
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": DocumentID}, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race; the document exists now
		err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": DocumentID}, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, fmt.Errorf("settings upsert: %w", err)
	}
	return &out, nil
}

// Get returns the settings, inserting defaults on first read.
func (s *MongoStore) Get(ctx context.Context) (*Settings, error) {
	return s.upsert(ctx, nil)
}

func (s *MongoStore) Update(ctx context.Context, p Patch) (*Settings, error) {
	set, err := p.Set()
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = time.Now().UTC()
	return s.upsert(ctx, set)
}

// MemoryStore is the in-process Store used by tests.
type MemoryStore struct {
	mu  sync.Mutex
	cur *Settings
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) load() *Settings {
	if m.cur == nil {
		d := Defaults()
		d.UpdatedAt = time.Now().UTC()
		m.cur = &d
	}
	return m.cur
}

func snapshot(s *Settings) *Settings {
	c := *s
	c.SocialLinks = make(map[string]string, len(s.SocialLinks))
	for k, v := range s.SocialLinks {
		c.SocialLinks[k] = v
	}
	return &c
}

func (m *MemoryStore) Get(ctx context.Context) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.load()), nil
}

func (m *MemoryStore) Update(ctx context.Context, p Patch) (*Settings, error) {
	if _, err := p.Set(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load()
	apply(s, p)
	s.UpdatedAt = time.Now().UTC()
	return snapshot(s), nil
}

func apply(s *Settings, p Patch) {
	if p.SiteName != nil {
		s.SiteName = strings.TrimSpace(*p.SiteName)
	}
	if p.Tagline != nil {
		s.Tagline = strings.TrimSpace(*p.Tagline)
	}
	if p.ContactEmail != nil {
		s.ContactEmail = strings.TrimSpace(*p.ContactEmail)
	}
	if p.AllowRegistration != nil {
		s.AllowRegistration = *p.AllowRegistration
	}
	if p.AllowPitches != nil {
		s.AllowPitches = *p.AllowPitches
	}
	if p.MaintenanceMode != nil {
		s.MaintenanceMode = *p.MaintenanceMode
	}
	if p.ArticlesPerPage != nil {
		s.ArticlesPerPage = *p.ArticlesPerPage
	}
	if p.FeaturedLimit != nil {
		s.FeaturedLimit = *p.FeaturedLimit
	}
	if p.SocialLinks != nil {
		s.SocialLinks = map[string]string{}
		for k, v := range *p.SocialLinks {
			if k = strings.TrimSpace(k); k != "" {
				s.SocialLinks[k] = strings.TrimSpace(v)
			}
		}
	}
}
