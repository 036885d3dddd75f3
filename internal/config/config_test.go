package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "quillpress_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %q", cfg.Redis.Addr())
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfig_MongoDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	m := cfg.MongoDB
	if m.MaxPoolSize != 10 {
		t.Fatalf("MaxPoolSize = %d, want 10", m.MaxPoolSize)
	}
	if m.ServerSelectionTimeout != 5*time.Second {
		t.Fatalf("ServerSelectionTimeout = %v, want 5s", m.ServerSelectionTimeout)
	}
	if m.SocketTimeout != 45*time.Second {
		t.Fatalf("SocketTimeout = %v, want 45s", m.SocketTimeout)
	}
	if m.ConnectAttempts != 3 || m.RetryDelay != time.Second {
		t.Fatalf("unexpected retry policy: attempts=%d delay=%v", m.ConnectAttempts, m.RetryDelay)
	}
}

func TestLoadConfig_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")

	cfg, err := LoadConfig()
	if !errors.Is(err, ErrMissingMongoURI) {
		t.Fatalf("expected ErrMissingMongoURI, got cfg=%v err=%v", cfg, err)
	}
}
