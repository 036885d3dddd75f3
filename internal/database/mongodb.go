package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/quillpress/quillpress/internal/config"
	"github.com/quillpress/quillpress/pkg/logger"
	"github.com/quillpress/quillpress/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// ErrUnreachable wraps the last connection error once every attempt has failed.
	ErrUnreachable = errors.New("database: document store unreachable")
	// ErrInvalidURI is returned when the connection string cannot be parsed.
	ErrInvalidURI = errors.New("database: invalid connection string")
)

// Client is the subset of *mongo.Client the bootstrapper depends on.
type Client interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
	Disconnect(ctx context.Context) error
}

// ConnectFunc opens a client. The default implementation is mongo.Connect.
type ConnectFunc func(ctx context.Context, opts *options.ClientOptions) (Client, error)

func mongoConnect(ctx context.Context, opts *options.ClientOptions) (Client, error) {
	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Handle is the process' document-store connection. It is never mutated after
// acquisition and is safe for concurrent use.
type Handle struct {
	client Client
	db     *mongo.Database
	name   string
}

// Collection returns the named collection in the configured database.
func (h *Handle) Collection(name string) *mongo.Collection {
	return h.db.Collection(name)
}

func (h *Handle) Database() *mongo.Database { return h.db }

func (h *Handle) Name() string { return h.name }

// Ping checks the primary; used by the readiness probe.
func (h *Handle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (h *Handle) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

// Bootstrapper acquires the shared handle with a bounded, fixed-delay retry.
// The first successful handle (or the terminal error) is cached for the
// lifetime of the bootstrapper.
type Bootstrapper struct {
	cfg     config.MongoDBConfig
	opts    *options.ClientOptions
	connect ConnectFunc
	sleep   func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	handle *Handle
	err    error
	done   bool
}

type Option func(*Bootstrapper)

// WithConnector replaces mongo.Connect, mainly for tests.
func WithConnector(fn ConnectFunc) Option {
	return func(b *Bootstrapper) { b.connect = fn }
}

// WithSleep replaces the delay between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bootstrapper) { b.sleep = fn }
}

// NewBootstrapper validates the configuration without opening a connection.
func NewBootstrapper(cfg config.MongoDBConfig, opts ...Option) (*Bootstrapper, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, config.ErrMissingMongoURI
	}
	if cfg.ConnectAttempts < 1 {
		cfg.ConnectAttempts = 1
	}
	copts := ClientOptions(cfg)
	if err := copts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	b := &Bootstrapper{
		cfg:     cfg,
		opts:    copts,
		connect: mongoConnect,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// ClientOptions builds the driver options used for every attempt.
func ClientOptions(cfg config.MongoDBConfig) *options.ClientOptions {
	o := options.Client().ApplyURI(cfg.URI).SetDialer(ipv4Dialer{})
	if cfg.MaxPoolSize > 0 {
		o.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.ServerSelectionTimeout > 0 {
		o.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.SocketTimeout > 0 {
		o.SetSocketTimeout(cfg.SocketTimeout)
	}
	return o
}

// Acquire returns the shared handle, connecting on first use. Concurrent
// callers wait for the same attempt sequence. A sequence aborted by the
// caller's context is not cached.
func (b *Bootstrapper) Acquire(ctx context.Context) (*Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return b.handle, b.err
	}

	h, err := b.connectWithRetry(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	b.handle, b.err, b.done = h, err, true
	if h != nil {
		go b.diagnose(h)
	}
	return h, err
}

func (b *Bootstrapper) connectWithRetry(ctx context.Context) (*Handle, error) {
	var lastErr error
	for attempt := 1; attempt <= b.cfg.ConnectAttempts; attempt++ {
		h, err := b.attempt(ctx)
		if err == nil {
			metrics.DBConnectAttempts.WithLabelValues("success").Inc()
			logger.Infof("connected to MongoDB database %q (attempt %d/%d)", b.cfg.Database, attempt, b.cfg.ConnectAttempts)
			return h, nil
		}
		metrics.DBConnectAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, b.cfg.ConnectAttempts, err)
		if attempt < b.cfg.ConnectAttempts {
			if serr := b.sleep(ctx, b.cfg.RetryDelay); serr != nil {
				return nil, serr
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrUnreachable, b.cfg.ConnectAttempts, lastErr)
}

func (b *Bootstrapper) attempt(ctx context.Context) (*Handle, error) {
	actx, cancel := b.attemptContext(ctx)
	defer cancel()

	client, err := b.connect(actx, b.opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(actx, readpref.Primary()); err != nil {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = client.Disconnect(dctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Handle{client: client, db: client.Database(b.cfg.Database), name: b.cfg.Database}, nil
}

func (b *Bootstrapper) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.cfg.ServerSelectionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.cfg.ServerSelectionTimeout+time.Second)
}

// diagnose re-pings once after connecting; the result is only logged.
func (b *Bootstrapper) diagnose(h *Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		logger.Warnf("MongoDB diagnostic ping failed: %v", err)
		return
	}
	logger.Debugf("MongoDB diagnostic ping ok (db=%s)", h.name)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ipv4Dialer forces TCP connections over IPv4.
type ipv4Dialer struct{}

func (ipv4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if network == "tcp" || network == "tcp6" {
		network = "tcp4"
	}
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}
