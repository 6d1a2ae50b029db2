package redis

const (
	// addDurationScript atomically increments the all-time and today counters
	addDurationScript = `
local counters_key = KEYS[1]  -- sitetime:counters
local today_key = KEYS[2]     -- sitetime:today

local domain = ARGV[1]
local delta = tonumber(ARGV[2])

if delta == nil or delta <= 0 then
  return redis.error_reply('delta must be positive')
end

local total = redis.call('HINCRBY', counters_key, domain, delta)
redis.call('HINCRBY', today_key, domain, delta)

return total
`

	// resetDomainScript removes a domain from both counter hashes
	resetDomainScript = `
local counters_key = KEYS[1]
local today_key = KEYS[2]

local domain = ARGV[1]

local removed = redis.call('HDEL', counters_key, domain)
redis.call('HDEL', today_key, domain)

return removed
`
)
