package slotlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker stores holds in a ZSET per (vendor, staff, date) bucket,
// scored by expiry in epoch milliseconds. Members encode
// start|end|holder|token. The acquire script trims expired members, scans
// the survivors for an overlapping range held by somebody else, and inserts
// the new hold, all in one atomic evaluation.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

var _ Locker = (*RedisLocker)(nil)

// KEYS[1] bucket
// ARGV[1] now millis, ARGV[2] expiry millis, ARGV[3] start, ARGV[4] end,
// ARGV[5] holder, ARGV[6] member to insert, ARGV[7] key ttl millis
var acquireScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local newStart = tonumber(ARGV[3])
local newEnd = tonumber(ARGV[4])
local members = redis.call("ZRANGE", KEYS[1], 0, -1)
for _, m in ipairs(members) do
  local s, e, holder = string.match(m, "^(%d+)|(%d+)|([^|]+)|")
  if s and tonumber(s) < newEnd and newStart < tonumber(e) and holder ~= ARGV[5] then
    return 0
  end
end
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[6])
redis.call("PEXPIRE", KEYS[1], ARGV[7])
return 1
`)

// KEYS[1] bucket
// ARGV[1] now millis, ARGV[2] start, ARGV[3] end
var heldScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local qStart = tonumber(ARGV[2])
local qEnd = tonumber(ARGV[3])
local members = redis.call("ZRANGE", KEYS[1], 0, -1)
for _, m in ipairs(members) do
  local s, e = string.match(m, "^(%d+)|(%d+)|")
  if s and tonumber(s) < qEnd and qStart < tonumber(e) then
    return 1
  end
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key Key, holderID uuid.UUID) (*Handle, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	h := &Handle{
		Key:       key,
		HolderID:  holderID,
		ExpiresAt: now.Add(l.ttl),
		token:     uuid.NewString(),
	}

	res, err := acquireScript.Run(ctx, l.client, []string{key.bucket()},
		now.UnixMilli(),
		h.ExpiresAt.UnixMilli(),
		key.StartMinute,
		key.EndMinute,
		holderID.String(),
		h.member(),
		l.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if res == 0 {
		return nil, ErrSlotBusy
	}

	return h, nil
}

func (l *RedisLocker) Release(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}

	// ZREM of a missing member is a no-op, which makes release idempotent;
	// the unique token in the member means we can only ever remove our own
	// hold.
	if err := l.client.ZRem(ctx, h.Key.bucket(), h.member()).Err(); err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

func (l *RedisLocker) IsHeld(ctx context.Context, key Key) (bool, error) {
	if err := key.validate(); err != nil {
		return false, err
	}

	res, err := heldScript.Run(ctx, l.client, []string{key.bucket()},
		time.Now().UnixMilli(),
		key.StartMinute,
		key.EndMinute,
	).Int()
	if err != nil {
		return false, fmt.Errorf("check slot lock: %w", err)
	}
	return res == 1, nil
}
