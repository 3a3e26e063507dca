package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings reads app_settings rows with a read-through cache and typed
// coercion. It is an explicitly injected dependency of the sync services,
// not ambient global state; the cache expiry is checked on each read.
type Settings struct {
	pool *pgxpool.Pool
	ttl  time.Duration

	mu    sync.Mutex
	cache map[string]cachedSetting
}

type cachedSetting struct {
	value   string
	found   bool
	expires time.Time
}

// Well-known setting keys
const (
	SettingDiscountPercent = "discount_percent"
	SettingUpdateMode      = "update_mode"
	SettingShopCode        = "shop_code"
)

// NewSettings creates a Settings reader with the given cache TTL
func NewSettings(pool *pgxpool.Pool, ttl time.Duration) *Settings {
	return &Settings{
		pool:  pool,
		ttl:   ttl,
		cache: make(map[string]cachedSetting),
	}
}

// Get returns the raw value for key, reporting whether the row exists
func (s *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expires) {
		s.mu.Unlock()
		return cached.value, cached.found, nil
	}
	s.mu.Unlock()

	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM app_settings WHERE key = $1
	`, key).Scan(&value)

	found := true
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
		err = nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = cachedSetting{value: value, found: found, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return value, found, nil
}

// GetString returns the value for key, or fallback when absent
func (s *Settings) GetString(ctx context.Context, key, fallback string) (string, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !found || value == "" {
		return fallback, nil
	}
	return value, nil
}

// GetFloat returns the value for key coerced to float64, or fallback when
// absent or unparsable.
func (s *Settings) GetFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return fallback, nil
	}
	parsed, perr := strconv.ParseFloat(value, 64)
	if perr != nil {
		return fallback, nil
	}
	return parsed, nil
}

// GetInt returns the value for key coerced to int, or fallback when absent
// or unparsable.
func (s *Settings) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return fallback, nil
	}
	parsed, perr := strconv.Atoi(value)
	if perr != nil {
		return fallback, nil
	}
	return parsed, nil
}

// Set upserts a setting and invalidates its cached value
func (s *Settings) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// Invalidate drops every cached value, forcing fresh reads
func (s *Settings) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]cachedSetting)
	s.mu.Unlock()
}
