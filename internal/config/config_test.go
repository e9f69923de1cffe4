package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setDB(t *testing.T) {
    t.Setenv("DB_USER", "seat")
    t.Setenv("DB_HOST", "db")
    t.Setenv("DB_NAME", "seating")
}

func TestFromEnv_Defaults(t *testing.T) {
    setDB(t)
    cfg, err := FromEnv()
    require.NoError(t, err)
    assert.Equal(t, "dev", cfg.Env)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, "3306", cfg.DBPort)
    assert.False(t, cfg.AuthEnabled)
    assert.Equal(t, 120, cfg.AccessTTLMin)
    assert.Equal(t, "logs", cfg.EventLogDir)
    assert.False(t, cfg.IsProd())
}

func TestFromEnv_ReportsEveryMissingVariable(t *testing.T) {
    t.Setenv("DB_USER", "")
    t.Setenv("DB_HOST", "")
    t.Setenv("DB_NAME", "")
    t.Setenv("AUTH_ENABLED", "true")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("OPERATOR_PASSWORD_HASH", "")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")

    _, err := FromEnv()
    require.Error(t, err)
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET", "OPERATOR_PASSWORD_HASH", "ACCESS_TOKEN_TTL_MIN"} {
        assert.Contains(t, err.Error(), k)
    }
}

func TestFromEnv_Auth(t *testing.T) {
    setDB(t)
    t.Setenv("APP_ENV", "prod")
    t.Setenv("AUTH_ENABLED", "yes")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("OPERATOR_USER", "desk")
    t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$abc")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")

    cfg, err := FromEnv()
    require.NoError(t, err)
    assert.True(t, cfg.AuthEnabled)
    assert.Equal(t, "desk", cfg.OperatorUser)
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.True(t, cfg.IsProd())
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RefillInterval)
    assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "off")
    t.Setenv("CACHE_TTL", "-1s")
    cfg := LoadCacheConfig()
    assert.False(t, cfg.Enabled)
    assert.Equal(t, 5*time.Minute, cfg.TTL)
    assert.Equal(t, "layout", cfg.Prefix)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "1")
    assert.Equal(t, RedisConfig{Addr: "cache:6380", DB: 2, TLS: true}, LoadRedisConfig())

    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
