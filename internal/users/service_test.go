package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quillpress/quillpress/internal/models"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	return NewService(repo, WithCost(bcrypt.MinCost)), repo
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "  Ada@Example.com ", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, "correct-horse", u.Password, "password must be stored hashed")

	stored, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct-horse")))

	got, err := svc.Authenticate(ctx, "ADA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	cases := map[string]RegisterInput{
		"bad email":      {Email: "not-an-email", Password: "longenough", FirstName: "A", LastName: "B"},
		"missing names":  {Email: "a@b.com", Password: "longenough"},
		"short password": {Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	in := RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"}
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{Phone: strPtr("call me")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{Website: strPtr("ftp://x")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.UpdateProfile(ctx, "missing@b.com", ProfileUpdate{Bio: strPtr("hi")})
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{Phone: strPtr("+44 20 7946 0958"), Website: strPtr("https://ada.dev")})
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0958", u.Profile.Phone)
	assert.Equal(t, "https://ada.dev", u.Profile.Website)
	assert.Equal(t, "A", u.FirstName, "untouched fields survive")
}

func TestUpdateProfile_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	p := ProfileUpdate{Bio: strPtr("writer"), Location: strPtr("Leeds")}
	first, err := svc.UpdateProfile(ctx, "a@b.com", p)
	require.NoError(t, err)
	second, err := svc.UpdateProfile(ctx, "a@b.com", p)
	require.NoError(t, err)

	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}

func TestUpdateProfile_ConcurrentDisjointFieldsMerge(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{Bio: strPtr("bio from tab one")})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.UpdateProfile(ctx, "a@b.com", ProfileUpdate{Twitter: strPtr("@ada")})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	u, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "bio from tab one", u.Profile.Bio)
	assert.Equal(t, "@ada", u.Profile.Twitter)
}

func TestSetSubscription(t *testing.T) {
	svc, _ := newTestService()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	u, err = svc.SetSubscription(ctx, u.ID, true)
	require.NoError(t, err)
	require.True(t, u.IsSubscribed)
	require.NotNil(t, u.SubscribedAt)
	assert.Equal(t, fixed, *u.SubscribedAt)

	svc.now = func() time.Time { return fixed.Add(time.Hour) }
	u, err = svc.SetSubscription(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, fixed, *u.SubscribedAt, "resubscribing keeps the original time")

	u, err = svc.SetSubscription(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsSubscribed)
	assert.Nil(t, u.SubscribedAt)
}

func TestAdminUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = svc.AdminUpdate(ctx, u.ID, AdminUpdate{Role: strPtr("writer")})
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := svc.AdminUpdate(ctx, u.ID, AdminUpdate{IsWriter: boolPtr(true), IsVerified: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.IsWriter)
	assert.True(t, got.IsVerified)
	assert.Equal(t, domain.RoleUser, got.Role)

	_, err = svc.AdminUpdate(ctx, "nope", AdminUpdate{IsWriter: boolPtr(true)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	created, err := svc.SeedAdmin(ctx, "Root@Example.com", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(ctx, "root@example.com", "another-password")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := repo.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.True(t, u.IsVerified)

	_, err = svc.Authenticate(ctx, "root@example.com", "supersecret")
	assert.NoError(t, err, "first seed wins")
}

type failingRepo struct {
	UserRepository
	err error
}

func (f *failingRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, f.err
}

func TestAuthenticate_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&failingRepo{err: boom})
	_, err := svc.Authenticate(context.Background(), "a@b.com", "whatever")
	assert.ErrorIs(t, err, boom)
}

func TestMemoryRepositoryList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, e := range []string{"ann@x.com", "bob@x.com", "cat@y.com"} {
		_, err := repo.Create(ctx, &models.User{Email: e, Role: domain.RoleUser})
		require.NoError(t, err)
	}

	all, total, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	page, total, err := repo.List(ctx, ListFilter{Query: "X.COM", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, page, 1)

	_, err = repo.UpdateByID(ctx, all[0].ID, Fields{"nonsense": 1})
	assert.Error(t, err)
}
