package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func withSettings(t *testing.T, settings map[string]interface{}) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	for key, value := range settings {
		viper.Set(key, value)
	}
}

func TestInitializeDefaults(t *testing.T) {
	withSettings(t, map[string]interface{}{
		"service_db_uri": "postgres://registry@localhost/registry//",
	})

	require.NoError(t, initializeVariables())
	assert.Equal(t, "postgres://registry@localhost/registry", GetDbUri())
	assert.Equal(t, MainNetwork, GetNetwork())
	assert.False(t, IsTestNet())
	assert.Equal(t, time.Minute, GetAccrualInterval())
	assert.Equal(t, ":9100", GetMetricsAddress())
	assert.Equal(t, 5, GetMaxCommitRetry())
	assert.Equal(t, int32(6), GetTokenDecimals())
	assert.Equal(t, zapcore.InfoLevel, GetLogLevel())
}

func TestInitializeOverrides(t *testing.T) {
	withSettings(t, map[string]interface{}{
		"network":          " TestNet ",
		"accrual_interval": "15s",
		"max_commit_retry": 2,
		"token_decimals":   9,
		"log_level":        "DEBUG",
	})

	require.NoError(t, initializeVariables())
	assert.True(t, IsTestNet())
	assert.Equal(t, 15*time.Second, GetAccrualInterval())
	assert.Equal(t, 2, GetMaxCommitRetry())
	assert.Equal(t, int32(9), GetTokenDecimals())
	assert.Equal(t, zapcore.DebugLevel, GetLogLevel())
}

func TestInitializeRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value interface{}
		err   error
	}{
		{"network", "devnet", ErrorInvalidNetwork},
		{"accrual_interval", "soon", ErrorInvalidAccrualInterval},
		{"accrual_interval", "-1s", ErrorInvalidAccrualInterval},
		{"max_commit_retry", 0, ErrorInvalidMaxCommitRetry},
		{"token_decimals", 19, ErrorInvalidTokenDecimals},
		{"log_level", "verbose", ErrorInvalidLogLevel},
	}
	for _, c := range cases {
		withSettings(t, map[string]interface{}{c.key: c.value})
		assert.ErrorIs(t, initializeVariables(), c.err, c.key)
	}
}
