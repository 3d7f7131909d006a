package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kassa/internal/models"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// ValkeyClient caches per-event inventory snapshots. The snapshot is a
// read-side convenience only; every counter write invalidates it and the
// database stays authoritative.
type ValkeyClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}

	return &ValkeyClient{client: rdb, ttl: ttl}, nil
}

func snapshotKey(eventID int64) string {
	return fmt.Sprintf("inventory:%d", eventID)
}

// GetInventory returns the cached snapshot or redis.Nil-wrapped miss.
func (v *ValkeyClient) GetInventory(ctx context.Context, eventID int64) (*models.InventorySnapshot, error) {
	raw, err := v.client.Get(ctx, snapshotKey(eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("inventory snapshot not cached")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var snap models.InventorySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot in cache: %w", err)
	}

	return &snap, nil
}

// SetInventory stores the snapshot with the configured TTL. Errors are
// returned but callers treat the cache as best-effort.
func (v *ValkeyClient) SetInventory(ctx context.Context, eventID int64, snap models.InventorySnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return v.client.Set(ctx, snapshotKey(eventID), raw, v.ttl).Err()
}

// InvalidateInventory drops the snapshot after any counter write.
func (v *ValkeyClient) InvalidateInventory(ctx context.Context, eventID int64) error {
	return v.client.Del(ctx, snapshotKey(eventID)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
