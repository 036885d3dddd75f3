package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake repo for testing
type fakeRepo struct {
	store map[string]*Session
}

func (f *fakeRepo) Create(ctx context.Context, s *Session) error {
	if f.store == nil {
		f.store = map[string]*Session{}
	}
	f.store[s.RefreshToken] = s
	return nil
}

func (f *fakeRepo) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	s, ok := f.store[refresh]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (f *fakeRepo) DeleteByRefresh(ctx context.Context, refresh string) error {
	delete(f.store, refresh)
	return nil
}

func (f *fakeRepo) DeleteBySub(ctx context.Context, sub string) error {
	for k, s := range f.store {
		if s.Sub == sub {
			delete(f.store, k)
		}
	}
	return nil
}

func TestCreateAndValidateSession(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "u-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, r)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "u-1", sess.Sub)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess2, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess2, "expected session removed")
}

func TestValidateRefresh_ExpiredIsRemoved(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	start := time.Now()
	svc.now = func() time.Time { return start }
	r, err := svc.CreateSession(ctx, "u-1", time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess)
	require.Empty(t, repo.store)
}

func TestRevokeAll(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	a, _ := svc.CreateSession(ctx, "u-1", time.Hour)
	b, _ := svc.CreateSession(ctx, "u-1", time.Hour)
	c, _ := svc.CreateSession(ctx, "u-2", time.Hour)
	require.NotEqual(t, a, b)

	require.NoError(t, svc.RevokeAll(ctx, "u-1"))
	for _, tok := range []string{a, b} {
		s, err := svc.ValidateRefresh(ctx, tok)
		require.NoError(t, err)
		require.Nil(t, s)
	}
	s, err := svc.ValidateRefresh(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSessionExpired(t *testing.T) {
	exp := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: exp}
	assert.False(t, s.Expired(exp.Add(-time.Second)))
	assert.True(t, s.Expired(exp), "a session lapses at its expiry instant")
	assert.True(t, s.Expired(exp.Add(time.Hour)))
}
