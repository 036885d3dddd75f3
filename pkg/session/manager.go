// Package session holds the client's view of who is logged in. One Manager
// per process; it keeps memory and durable storage in step and optionally
// revalidates a stored record against the server once.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/logger"
)

type State int

const (
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Revalidator fetches the server's current version of a stored record.
type Revalidator interface {
	Revalidate(ctx context.Context, rec *domain.User) (*domain.User, error)
}

// Notifier tells the server a session ended.
type Notifier interface {
	NotifyLogout(ctx context.Context, rec *domain.User) error
}

// Navigator is called with "/" after a logout.
type Navigator func(path string)

// Snapshot is a consistent read of the manager. User is a copy.
type Snapshot struct {
	State   State
	User    *domain.User
	Pending bool
}

type Option func(*Manager)

func WithRevalidator(r Revalidator) Option { return func(m *Manager) { m.revalidator = r } }

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithNavigator(nav Navigator) Option { return func(m *Manager) { m.navigate = nav } }

// WithNotifyTimeout bounds the background logout call. Default 10s.
func WithNotifyTimeout(d time.Duration) Option { return func(m *Manager) { m.notifyTimeout = d } }

type Manager struct {
	storage       Storage
	revalidator   Revalidator
	notifier      Notifier
	navigate      Navigator
	notifyTimeout time.Duration

	initOnce sync.Once
	initErr  error
	inflight sync.WaitGroup

	mu      sync.Mutex
	state   State
	user    *domain.User
	pending bool
	// gen changes on every transition so a slow revalidation cannot
	// overwrite a later Login or Logout.
	gen    uint64
	subs   map[int]func(Snapshot)
	nextID int
}

func NewManager(storage Storage, opts ...Option) *Manager {
	m := &Manager{
		storage:       storage,
		notifyTimeout: 10 * time.Second,
		subs:          map[int]func(Snapshot){},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.SubscribedAt != nil {
		t := *u.SubscribedAt
		c.SubscribedAt = &t
	}
	return &c
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{State: m.state, User: copyUser(m.user), Pending: m.pending}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every transition. fn runs outside the lock.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// transition runs fn under the lock. fn does its own checks and storage
// work there, so a check, the state it guards and the matching write are one
// step. When fn reports a change, gen moves and subscribers are notified
// outside the lock.
func (m *Manager) transition(fn func() (changed bool, err error)) error {
	m.mu.Lock()
	changed, err := fn()
	if !changed {
		m.mu.Unlock()
		return err
	}
	m.gen++
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return err
}

func (m *Manager) clearLocked() {
	m.state, m.user, m.pending = Anonymous, nil, false
}

// decode parses a stored record; anything unusable is reported as an error.
func decode(raw string) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	if !u.Valid() {
		return nil, errors.New("record is missing id, email or role")
	}
	return &u, nil
}

func (m *Manager) write(u *domain.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	return m.storage.Set(StorageKey, string(b))
}

// Init loads the stored session and, with a revalidator, confirms it with the
// server. It runs once per Manager; later calls return the first result.
// Until the stored record has been read the state is Unknown. A Login or
// Logout that lands first wins and Init leaves it alone.
func (m *Manager) Init(ctx context.Context) error {
	m.initOnce.Do(func() { m.initErr = m.load(ctx) })
	return m.initErr
}

func (m *Manager) load(ctx context.Context) error {
	var (
		rec *domain.User
		gen uint64
	)
	err := m.transition(func() (bool, error) {
		if m.state != Unknown {
			return false, nil
		}
		raw, ok, err := m.storage.Get(StorageKey)
		if err != nil || !ok {
			m.clearLocked()
			return true, err
		}
		r, err := decode(raw)
		if err != nil {
			logger.Debugf("session: discarding stored record: %v", err)
			m.clearLocked()
			return true, m.storage.Remove(StorageKey)
		}
		rec = r
		m.state, m.user, m.pending = Authenticated, copyUser(r), m.revalidator != nil
		gen = m.gen + 1
		return true, nil
	})
	if rec == nil || m.revalidator == nil {
		return err
	}

	fresh, rerr := m.revalidator.Revalidate(ctx, copyUser(rec))
	if rerr == nil {
		rerr = freshValid(fresh)
	}

	return m.transition(func() (bool, error) {
		if m.gen != gen {
			return false, nil
		}
		if rerr != nil {
			logger.Debugf("session: revalidation failed, signing out: %v", rerr)
			m.clearLocked()
			return true, m.storage.Remove(StorageKey)
		}
		if fresh.Token == "" {
			fresh.Token = rec.Token
		}
		m.user, m.pending = copyUser(fresh), false
		return true, m.write(fresh)
	})
}

func freshValid(u *domain.User) error {
	if !u.Valid() {
		return errors.New("server returned an incomplete record")
	}
	return nil
}

// Login records rec as the current session. It does not call the server.
func (m *Manager) Login(rec *domain.User) error {
	if rec == nil {
		return errors.New("session: login with nil record")
	}
	rec = copyUser(rec)
	return m.transition(func() (bool, error) {
		m.state, m.user, m.pending = Authenticated, rec, false
		return true, m.write(rec)
	})
}

// Logout clears the session and navigates home. The server is told in the
// background; callers that need it finished use Wait.
func (m *Manager) Logout(ctx context.Context) error {
	var rec *domain.User
	err := m.transition(func() (bool, error) {
		rec = copyUser(m.user)
		m.clearLocked()
		return true, m.storage.Remove(StorageKey)
	})

	if m.notifier != nil && rec != nil {
		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
			defer cancel()
			if err := m.notifier.NotifyLogout(nctx, rec); err != nil {
				logger.Warnf("session: logout notification failed: %v", err)
			}
		}()
	}

	if m.navigate != nil {
		m.navigate("/")
	}
	return err
}

// Wait blocks until background logout notifications have finished.
func (m *Manager) Wait() { m.inflight.Wait() }
