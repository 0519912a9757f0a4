package config

import "time"

type Session struct {
	file *fileConfig
}

var _ SessionConfig = Session{}

// GetRedisURL selects the Redis session storage when set; sessions stay in memory otherwise
func (s Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", s.file.Session.RedisURL)
}

// GetSessionIdleTTL is how long stored session keys survive without being read or written
func (s Session) GetSessionIdleTTL() time.Duration {
	return GetEnvDuration("SESSION_IDLE_TTL", orDuration(s.file.Session.IdleTTL, 24*time.Hour))
}

// GetGateIdleTimeout is how long an unused per-client gate is kept before it is closed
func (s Session) GetGateIdleTimeout() time.Duration {
	return GetEnvDuration("GATE_IDLE_TIMEOUT", orDuration(s.file.Session.GateIdleTimeout, 30*time.Minute))
}

func (s Session) GetSweepInterval() time.Duration {
	return GetEnvDuration("GATE_SWEEP_INTERVAL", orDuration(s.file.Session.SweepInterval, 5*time.Minute))
}

func (s Session) GetLogoutTimeout() time.Duration {
	return GetEnvDuration("LOGOUT_TIMEOUT", orDuration(s.file.Session.LogoutTimeout, 5*time.Second))
}

func (s Session) GetSecureCookies() bool {
	return GetEnvBool("SECURE_COOKIES", s.file.Session.SecureCookies)
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
