package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0.251, cfg.EmissionFactor)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "fleet", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, 30, cfg.ImportRateLimit)
	assert.Equal(t, time.Minute, cfg.ImportRateWindow)
	assert.EqualValues(t, 20, cfg.MaxUploadMB)
	assert.Empty(t, cfg.GoogleMapsAPIKey)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"PORT":                "9000",
		"EMISSION_FACTOR":     "0.5",
		"STORE_BACKEND":       "Mongo",
		"AUTH_ENABLED":        "false",
		"GOOGLE_MAPS_API_KEY": "key",
		"JWT_EXPIRY":          "1h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 0.5, cfg.EmissionFactor)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, "key", cfg.GoogleMapsAPIKey)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"EMISSION_FACTOR":    "abc",
		"JWT_EXPIRY":         "soon",
		"AUTH_ENABLED":       "maybe",
		"IMPORT_RATE_LIMIT":  "many",
		"IMPORT_RATE_WINDOW": "10",
		"MAX_UPLOAD_MB":      "big",
		"STORE_BACKEND":      "redis",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(env(map[string]string{key: val}))
			assert.ErrorContains(t, err, key)
		})
	}

	_, err := FromEnv(env(map[string]string{"EMISSION_FACTOR": "2.5"}))
	assert.Error(t, err)
	_, err = FromEnv(env(map[string]string{"EMISSION_FACTOR": "-1"}))
	assert.Error(t, err)
}
