package redisstore

import "github.com/redis/go-redis/v9"

// incrementFailureScript bumps a monitor's consecutive failure counter.
// On the first failure of an episode it initializes the counter and
// records the first-down timestamp, which is never overwritten until
// the episode is reset. The counter saturates at ARGV[1].
//
// KEYS[1] = failure count key
// KEYS[2] = first-down timestamp key
// ARGV[1] = ceiling
// ARGV[2] = first-down timestamp (RFC3339)
const incrementFailureScript = `
local count = redis.call("GET", KEYS[1])
if not count then
  redis.call("SET", KEYS[1], 0)
  redis.call("SET", KEYS[2], ARGV[2])
end
local new = redis.call("INCR", KEYS[1])
local ceiling = tonumber(ARGV[1])
if new > ceiling then
  redis.call("SET", KEYS[1], ceiling)
  return ceiling
end
return new
`

// appendFailedPingScript pushes one failed ping entry and trims the log
// so only the most recent entries survive.
//
// KEYS[1] = failed pings list key
// ARGV[1] = serialized ping entry
// ARGV[2] = negative start index for LTRIM (e.g. -50)
const appendFailedPingScript = `
redis.call("RPUSH", KEYS[1], ARGV[1])
redis.call("LTRIM", KEYS[1], tonumber(ARGV[2]), -1)
return redis.call("LLEN", KEYS[1])
`

var (
	incrementFailureCmd = redis.NewScript(incrementFailureScript)
	appendFailedPingCmd = redis.NewScript(appendFailedPingScript)
)
