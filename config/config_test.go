package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, CacheDriverMemory, cfg.CacheDriver)
	assert.Equal(t, 15*time.Minute, cfg.CacheListTTL)
	assert.Equal(t, 30*time.Minute, cfg.CacheShowTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.UsesTurso())
	assert.False(t, cfg.R2Configured())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("CACHE_LIST_TTL", "1m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TURSO_DATABASE_URL", "libsql://psgc.turso.io")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.CacheListTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.UsesTurso())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "memory driver",
			cfg:  Config{CacheDriver: CacheDriverMemory},
		},
		{
			name: "none driver",
			cfg:  Config{CacheDriver: CacheDriverNone},
		},
		{
			name:    "redis without address",
			cfg:     Config{CacheDriver: CacheDriverRedis},
			wantErr: "REDIS_ADDR is required",
		},
		{
			name: "redis with address",
			cfg:  Config{CacheDriver: CacheDriverRedis, RedisAddr: "127.0.0.1:6379"},
		},
		{
			name:    "unknown driver",
			cfg:     Config{CacheDriver: "memcached"},
			wantErr: "CACHE_DRIVER must be one of",
		},
		{
			name:    "negative ttl",
			cfg:     Config{CacheDriver: CacheDriverMemory, CacheShowTTL: -time.Second},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestR2Configured(t *testing.T) {
	cfg := Config{R2AccountID: "acc", R2AccessKeyID: "key", R2SecretAccessKey: "secret"}
	assert.False(t, cfg.R2Configured())

	cfg.R2BucketName = "psgc"
	assert.True(t, cfg.R2Configured())
}
