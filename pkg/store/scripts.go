package store

import "github.com/go-redis/redis/v8"

// The lifecycle procedures. Each runs as a single server-side script
// so a multi-step transition can never interleave with another caller
// mid-way. Scripts report outcomes as a result-code array; the numeric
// codes are the ones the queue package maps to domain errors.
//
// Keys are built inside the scripts from the queue id, which pins a
// queue's state to one redis instance. That is fine here: queues are
// not sharded across stores.

// ApplyProc issues the next position of a queue.
// KEYS[1] queue hash. ARGV[1] auth code, ARGV[2] issue time.
// Replies {code, position}.
var ApplyProc = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {40401, 0}
end
local position = redis.call('HINCRBY', KEYS[1], 'tail', 1)
local ticketKey = 't:' .. KEYS[1] .. ':' .. position
redis.call('HSET', ticketKey, 'id', ticketKey, 'authCode', ARGV[1], 'issueTime', ARGV[2], 'activateTime', 0, 'occupied', 0, 'countOfUsage', 0)
return {20101, position}
`)

// ActivateProc moves a ready ticket into the active cohort. The auth
// check always runs first so a caller without the code cannot probe
// ready/active state from response differences.
// KEYS[1] ticket hash, KEYS[2] active set, KEYS[3] ready set,
// KEYS[4] queue hash. ARGV[1] auth code, ARGV[2] now.
// Replies {code}.
var ActivateProc = redis.NewScript(`
local authCode = redis.call('HGET', KEYS[1], 'authCode')
if not authCode or authCode ~= ARGV[1] then
  return {40101}
end
local token = KEYS[1] .. ':' .. authCode
local now = tonumber(ARGV[2])
local active = redis.call('ZSCORE', KEYS[2], token)
if active and tonumber(active) > now then
  return {40004}
end
local ready = redis.call('ZSCORE', KEYS[3], KEYS[1])
if not ready or tonumber(ready) <= now then
  return {41202}
end
local session = tonumber(redis.call('HGET', KEYS[4], 'permissionExpirationSeconds') or '0')
redis.call('ZADD', KEYS[2], now + session, token)
redis.call('HSET', KEYS[1], 'activateTime', ARGV[2])
redis.call('HINCRBY', KEYS[1], 'countOfUsage', 1)
redis.call('ZREM', KEYS[3], KEYS[1])
return {20202}
`)

// VerifyProc authorizes one use of an active, unoccupied ticket.
// Membership requires a score strictly beyond now, so an entry whose
// session lapsed reads as inactive even before the sweep prunes it.
// KEYS[1] active set, KEYS[2] ticket hash. ARGV[1] token, ARGV[2] now.
// Replies {code, countOfUsage}.
var VerifyProc = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) <= tonumber(ARGV[2]) then
  return {41201, 0}
end
if redis.call('HGET', KEYS[2], 'occupied') == '1' then
  return {40901, 0}
end
local usage = redis.call('HINCRBY', KEYS[2], 'countOfUsage', 1)
return {20006, usage}
`)

// OccupyProc marks an active ticket's underlying resource as consumed.
// KEYS[1] active set, KEYS[2] ticket hash. ARGV[1] token, ARGV[2] now.
// Replies {code}.
var OccupyProc = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) <= tonumber(ARGV[2]) then
  return {41201}
end
redis.call('HSET', KEYS[2], 'occupied', 1)
return {20201}
`)

// RevokeProc removes a ticket everywhere. A missing hash can never
// match the presented auth code, so revoking an already-deleted ticket
// reports a mismatch rather than silently succeeding.
// KEYS[1] ticket hash, KEYS[2] active set, KEYS[3] ready set.
// ARGV[1] auth code. Replies {code}.
var RevokeProc = redis.NewScript(`
local authCode = redis.call('HGET', KEYS[1], 'authCode')
if not authCode or authCode ~= ARGV[1] then
  return {40101}
end
redis.call('ZREM', KEYS[2], KEYS[1] .. ':' .. authCode)
redis.call('ZREM', KEYS[3], KEYS[1])
redis.call('DEL', KEYS[1])
return {20203}
`)

// UsageStatProc reads activation time and usage count of an active
// ticket without mutating anything.
// KEYS[1] active set, KEYS[2] ticket hash. ARGV[1] token, ARGV[2] now.
// Replies {code, activateTime, countOfUsage}.
var UsageStatProc = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) <= tonumber(ARGV[2]) then
  return {41201, '0', '0'}
end
local activateTime = redis.call('HGET', KEYS[2], 'activateTime') or '0'
local usage = redis.call('HGET', KEYS[2], 'countOfUsage') or '0'
return {20005, activateTime, usage}
`)

// SweepProc advances one queue for one tick: evict lapsed ready/active
// entries, recount, admit the FIFO head range into the ready set and
// advance head, all atomically so a concurrent apply cannot skew the
// admit computation. Admitted ticket hashes get a TTL covering the
// activation window plus the session plus a grace period; revoke is
// the only other path that deletes them.
// KEYS[1] queue hash, KEYS[2] ready set, KEYS[3] active set,
// KEYS[4] all-queues index. ARGV[1] now, ARGV[2] hash grace seconds.
// Replies {admitted, head, tail, activeCount, maxActiveUsers};
// admitted is -1 when the queue hash is gone and its leftovers were
// reaped.
var SweepProc = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('DEL', KEYS[2], KEYS[3])
  redis.call('SREM', KEYS[4], KEYS[1])
  return {-1, 0, 0, 0, 0}
end
local now = tonumber(ARGV[1])
redis.call('ZREMRANGEBYSCORE', KEYS[2], 0, now)
redis.call('ZREMRANGEBYSCORE', KEYS[3], 0, now)
local readyCount = redis.call('ZCARD', KEYS[2])
local activeCount = redis.call('ZCARD', KEYS[3])
local head = tonumber(redis.call('HGET', KEYS[1], 'head') or '0')
local tail = tonumber(redis.call('HGET', KEYS[1], 'tail') or '0')
local maxActive = tonumber(redis.call('HGET', KEYS[1], 'maxActiveUsers') or '0')
local window = tonumber(redis.call('HGET', KEYS[1], 'activationWindowSeconds') or '0')
local session = tonumber(redis.call('HGET', KEYS[1], 'permissionExpirationSeconds') or '0')
local admit = maxActive - activeCount - readyCount
local waiting = tail - head
if waiting < admit then
  admit = waiting
end
if admit < 0 then
  admit = 0
end
for i = head + 1, head + admit do
  local ticketKey = 't:' .. KEYS[1] .. ':' .. i
  redis.call('ZADD', KEYS[2], now + window, ticketKey)
  redis.call('EXPIRE', ticketKey, window + session + tonumber(ARGV[2]))
end
if admit > 0 then
  head = redis.call('HINCRBY', KEYS[1], 'head', admit)
end
return {admit, head, tail, activeCount, maxActive}
`)
