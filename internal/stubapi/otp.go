package stubapi

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// HashCode returns the hex SHA-256 of a one-time code. Codes are never
// stored in the clear.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// codesEqual compares two code hashes in constant time.
func codesEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// OTPStore holds pending one-time codes and per-email lockouts. Codes
// expire model.OTPTTL after issuance; expiry reads as absence.
type OTPStore interface {
	// Locked reports whether email is currently locked out.
	Locked(ctx context.Context, email string) (bool, error)
	// Put stores a fresh code hash for email with the standard TTL,
	// resetting the attempt counter.
	Put(ctx context.Context, email, hash string) error
	// Load returns the stored hash and attempt count. ok is false when
	// no unexpired code exists.
	Load(ctx context.Context, email string) (hash string, attempts int, ok bool, err error)
	// Bump increments the failed-attempt counter.
	Bump(ctx context.Context, email string) error
	// Lockout locks email for the standard duration and drops its code.
	Lockout(ctx context.Context, email string) error
	// Drop removes the pending code after a successful check.
	Drop(ctx context.Context, email string) error
}

type memoryCode struct {
	hash     string
	attempts int
	expires  time.Time
}

// MemoryOTPStore is the in-process store used by tests and by the stub
// when no Redis is configured. The clock is injectable so TTL expiry can
// be tested without sleeping.
type MemoryOTPStore struct {
	mu    sync.Mutex
	now   func() time.Time
	codes map[string]*memoryCode
	locks map[string]time.Time
}

func NewMemoryOTPStore(now func() time.Time) *MemoryOTPStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryOTPStore{
		now:   now,
		codes: make(map[string]*memoryCode),
		locks: make(map[string]time.Time),
	}
}

func (s *MemoryOTPStore) Locked(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.locks[email]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.locks, email)
		return false, nil
	}
	return true, nil
}

func (s *MemoryOTPStore) Put(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[email] = &memoryCode{
		hash:    hash,
		expires: s.now().Add(model.OTPTTL),
	}
	return nil
}

func (s *MemoryOTPStore) Load(_ context.Context, email string) (string, int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[email]
	if !ok {
		return "", 0, false, nil
	}
	if s.now().After(c.expires) {
		delete(s.codes, email)
		return "", 0, false, nil
	}
	return c.hash, c.attempts, true, nil
}

func (s *MemoryOTPStore) Bump(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.codes[email]; ok {
		c.attempts++
	}
	return nil
}

func (s *MemoryOTPStore) Lockout(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locks[email] = s.now().Add(model.OTPLockDuration)
	delete(s.codes, email)
	return nil
}

func (s *MemoryOTPStore) Drop(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, email)
	return nil
}

// RedisOTPStore keeps OTP state in Redis with the same key shapes the
// original backend used: otp:<email> holds a JSON blob under a TTL,
// otp_lock:<email> marks a lockout.
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

type redisCode struct {
	Hash     string `json:"hash"`
	Attempts int    `json:"attempts"`
}

func otpKey(email string) string  { return "otp:" + email }
func lockKey(email string) string { return "otp_lock:" + email }

func (s *RedisOTPStore) Locked(ctx context.Context, email string) (bool, error) {
	n, err := s.rdb.Exists(ctx, lockKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("stubapi: otp lock check: %w", err)
	}
	return n > 0, nil
}

func (s *RedisOTPStore) Put(ctx context.Context, email, hash string) error {
	blob, err := json.Marshal(redisCode{Hash: hash})
	if err != nil {
		return fmt.Errorf("stubapi: otp encode: %w", err)
	}
	if err := s.rdb.SetEx(ctx, otpKey(email), blob, model.OTPTTL).Err(); err != nil {
		return fmt.Errorf("stubapi: otp put: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Load(ctx context.Context, email string) (string, int, bool, error) {
	blob, err := s.rdb.Get(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("stubapi: otp load: %w", err)
	}
	var c redisCode
	if err := json.Unmarshal([]byte(blob), &c); err != nil {
		return "", 0, false, fmt.Errorf("stubapi: otp decode: %w", err)
	}
	return c.Hash, c.Attempts, true, nil
}

func (s *RedisOTPStore) Bump(ctx context.Context, email string) error {
	hash, attempts, ok, err := s.Load(ctx, email)
	if err != nil || !ok {
		return err
	}
	blob, err := json.Marshal(redisCode{Hash: hash, Attempts: attempts + 1})
	if err != nil {
		return fmt.Errorf("stubapi: otp encode: %w", err)
	}
	if err := s.rdb.Set(ctx, otpKey(email), blob, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("stubapi: otp bump: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Lockout(ctx context.Context, email string) error {
	if err := s.rdb.SetEx(ctx, lockKey(email), "1", model.OTPLockDuration).Err(); err != nil {
		return fmt.Errorf("stubapi: otp lockout: %w", err)
	}
	return s.Drop(ctx, email)
}

func (s *RedisOTPStore) Drop(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("stubapi: otp drop: %w", err)
	}
	return nil
}
