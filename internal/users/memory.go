package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quillpress/quillpress/internal/models"
	"github.com/quillpress/quillpress/pkg/domain"
)

// MemoryRepository is an in-process UserRepository used by tests and local
// runs. Updates apply only the given paths, the same as a $set.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.User{}, byEmail: map[string]string{}}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.SubscribedAt != nil {
		t := *u.SubscribedAt
		c.SubscribedAt = &t
	}
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.byID[u.ID] = clone(u)
	m.byEmail[u.Email] = u.ID
	return clone(u), nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryRepository) UpdateByID(ctx context.Context, id string, f Fields) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range f {
		if err := applyField(u, k, v); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *MemoryRepository) UpdateByEmail(ctx context.Context, email string, f Fields) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.UpdateByID(ctx, id, f)
}

func (m *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*models.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(f.Query)
	all := []*models.User{}
	for _, u := range m.byID {
		if q != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), q) {
			continue
		}
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if f.Skip >= total {
		return []*models.User{}, total, nil
	}
	all = all[f.Skip:]
	if f.Limit > 0 && int64(len(all)) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *MemoryRepository) EnsureAdmin(ctx context.Context, u *models.User) (bool, error) {
	c := clone(u)
	c.IsVerified = true
	if _, err := m.Create(ctx, c); err != nil {
		if err == ErrDuplicateEmail {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func applyField(u *models.User, path string, v interface{}) error {
	str := func() (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("users: field %s expects a string, got %T", path, v)
		}
		return s, nil
	}
	flag := func() (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("users: field %s expects a bool, got %T", path, v)
		}
		return b, nil
	}

	var err error
	switch path {
	case "firstName":
		u.FirstName, err = str()
	case "lastName":
		u.LastName, err = str()
	case "profile.bio":
		u.Profile.Bio, err = str()
	case "profile.phone":
		u.Profile.Phone, err = str()
	case "profile.avatarUrl":
		u.Profile.AvatarURL, err = str()
	case "profile.location":
		u.Profile.Location, err = str()
	case "profile.website":
		u.Profile.Website, err = str()
	case "profile.twitter":
		u.Profile.Twitter, err = str()
	case "profile.linkedin":
		u.Profile.LinkedIn, err = str()
	case "password":
		u.Password, err = str()
	case "role":
		switch r := v.(type) {
		case domain.Role:
			u.Role = r
		case string:
			u.Role = domain.Role(r)
		default:
			err = fmt.Errorf("users: field role expects a string, got %T", v)
		}
	case "isVerified":
		u.IsVerified, err = flag()
	case "isWriter":
		u.IsWriter, err = flag()
	case "isSubscribed":
		u.IsSubscribed, err = flag()
	case "subscribedAt":
		switch t := v.(type) {
		case nil:
			u.SubscribedAt = nil
		case time.Time:
			u.SubscribedAt = &t
		case *time.Time:
			u.SubscribedAt = t
		default:
			err = fmt.Errorf("users: field subscribedAt expects a time, got %T", v)
		}
	default:
		err = fmt.Errorf("users: unknown field %q", path)
	}
	return err
}
