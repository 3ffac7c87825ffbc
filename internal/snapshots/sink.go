package snapshots

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned by Sink.Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Sink stores the encoded snapshot document.
type Sink interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Name() string
}

// FileSink keeps the snapshot in one JSON file. Saves go through a temp
// file and a rename so a crash never leaves a half-written document.
type FileSink struct {
	Path string
}

func (f FileSink) Name() string { return "file" }

func (f FileSink) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", f.Path, err)
	}
	if len(data) == 0 {
		return nil, ErrNoSnapshot
	}
	return data, nil
}

func (f FileSink) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(name string) string
}

// RedisSink keeps the snapshot under one redis key with no expiry.
type RedisSink struct {
	store redisStore
	key   string
}

func NewRedisSink(store redisStore, name string) (*RedisSink, error) {
	if store == nil {
		return nil, errors.New("redis client required")
	}
	if name == "" {
		return nil, errors.New("snapshot key required")
	}
	return &RedisSink{store: store, key: store.SnapshotKey(name)}, nil
}

func (r *RedisSink) Name() string { return "redis" }

func (r *RedisSink) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return []byte(raw), nil
}

func (r *RedisSink) Save(ctx context.Context, data []byte) error {
	if err := r.store.Set(ctx, r.key, data, 0); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}
