package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LoginTrackerConfig holds configuration for login tracking
type LoginTrackerConfig struct {
	MaxAttempts   int           // Failed attempts before a block
	AttemptWindow time.Duration // Window attempts are counted in
	BlockDuration time.Duration // How long a block lasts
	UseIPTracking bool          // Also count and block by IP
}

// DefaultLoginTrackerConfig returns sensible defaults
func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
		UseIPTracking: true,
	}
}

// LoginTracker counts failed sign-ins and blocks an email (and IP) after too
// many. State lives in Redis when a client is given, otherwise in process.
type LoginTracker struct {
	config LoginTrackerConfig
	client *goredis.Client
	logger *SecurityLogger

	mu     sync.Mutex
	memory map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// NewLoginTracker creates a login tracker. client and logger may be nil.
func NewLoginTracker(config LoginTrackerConfig, client *goredis.Client, logger *SecurityLogger) *LoginTracker {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &LoginTracker{
		config: config,
		client: client,
		logger: logger,
		memory: make(map[string]memoryEntry),
		now:    time.Now,
	}
}

const (
	failLoginUserPrefix    = "fail:login:user:"
	failLoginIPPrefix      = "fail:login:ip:"
	blockedLoginUserPrefix = "blocked:login:user:"
	blockedLoginIPPrefix   = "blocked:login:ip:"
)

// KEYS[1] = counter key, ARGV[1] = TTL in seconds. Returns the new count.
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// IsBlocked checks if the given email or IP is currently blocked
func (lt *LoginTracker) IsBlocked(ctx context.Context, email, ip string) (bool, error) {
	keys := []string{blockedLoginUserPrefix + normalizeEmail(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, blockedLoginIPPrefix+ip)
	}

	if lt.client == nil {
		for _, k := range keys {
			if lt.memoryGet(k) > 0 {
				return true, nil
			}
		}
		return false, nil
	}

	exists, err := lt.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check login block: %w", err)
	}
	return exists > 0, nil
}

// RecordFailedAttempt counts a failed sign-in. It returns whether the caller
// is now blocked and the current attempt count for the email.
func (lt *LoginTracker) RecordFailedAttempt(ctx context.Context, email, ip, userAgent, requestID string) (bool, int, error) {
	email = normalizeEmail(email)

	userCount, err := lt.increment(ctx, failLoginUserPrefix+email, lt.config.AttemptWindow)
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment user counter: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		_, _ = lt.increment(ctx, failLoginIPPrefix+ip, lt.config.AttemptWindow)
	}

	lt.logger.LogLoginFailed(ctx, email, ip, userAgent, requestID, "invalid_credentials")

	if userCount < lt.config.MaxAttempts {
		return false, userCount, nil
	}

	if err := lt.createBlock(ctx, email, ip, requestID); err != nil {
		return true, userCount, fmt.Errorf("failed to create block: %w", err)
	}
	return true, userCount, nil
}

// ClearAttempts clears failed login attempts on successful login
func (lt *LoginTracker) ClearAttempts(ctx context.Context, email, ip string) error {
	keys := []string{failLoginUserPrefix + normalizeEmail(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, failLoginIPPrefix+ip)
	}

	if lt.client == nil {
		lt.mu.Lock()
		for _, k := range keys {
			delete(lt.memory, k)
		}
		lt.mu.Unlock()
		return nil
	}

	if err := lt.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

func (lt *LoginTracker) createBlock(ctx context.Context, email, ip, requestID string) error {
	keys := []string{blockedLoginUserPrefix + email}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, blockedLoginIPPrefix+ip)
	}

	for _, k := range keys {
		if err := lt.set(ctx, k, lt.config.BlockDuration); err != nil {
			return err
		}
	}

	lt.logger.LogBlockCreated(ctx, "email", email, ip, requestID, int(lt.config.BlockDuration.Minutes()))
	return nil
}

func (lt *LoginTracker) increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	if lt.client == nil {
		lt.mu.Lock()
		defer lt.mu.Unlock()
		entry := lt.memory[key]
		if entry.expiresAt.Before(lt.now()) {
			entry = memoryEntry{expiresAt: lt.now().Add(ttl)}
		}
		entry.count++
		lt.memory[key] = entry
		return entry.count, nil
	}

	result, err := lt.client.Eval(ctx, incrWithTTLScript, []string{key}, int(ttl.Seconds())).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Lua script")
	}
	return int(count), nil
}

func (lt *LoginTracker) set(ctx context.Context, key string, ttl time.Duration) error {
	if lt.client == nil {
		lt.mu.Lock()
		lt.memory[key] = memoryEntry{count: 1, expiresAt: lt.now().Add(ttl)}
		lt.mu.Unlock()
		return nil
	}
	return lt.client.Set(ctx, key, "1", ttl).Err()
}

func (lt *LoginTracker) memoryGet(key string) int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	entry, ok := lt.memory[key]
	if !ok {
		return 0
	}
	if entry.expiresAt.Before(lt.now()) {
		delete(lt.memory, key)
		return 0
	}
	return entry.count
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
