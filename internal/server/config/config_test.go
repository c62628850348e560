package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.False(t, c.RotateRefreshTokens)
	assert.Equal(t, 5, c.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, c.LockDuration)
	assert.Equal(t, 15*time.Minute, c.VerificationCodeTTL)
	assert.Equal(t, 5, c.VerificationMaxAttempts)
	assert.Equal(t, 100000, c.VerificationCodeMin)
	assert.Equal(t, 999999, c.VerificationCodeMax)
	assert.Equal(t, 19, c.MinimumAge)
	assert.Equal(t, 10*time.Second, c.SMTPTimeout)
	assert.False(t, c.DevLogCodes, "codes must stay out of the log unless asked for")
	assert.Equal(t, 3, c.SweepHour)
	assert.Equal(t, "Asia/Seoul", c.TimeZone)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, 24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
}

func TestLoadConfig_EnvWinsOverFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-a", ":1111", "-s", "from-flag"}

	t.Setenv("GOPHAUTH_SECRET_KEY", "from-env")
	t.Setenv("GOPHAUTH_MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("GOPHAUTH_LOCK_DURATION", "1h")
	t.Setenv("GOPHAUTH_ROTATE_REFRESH_TOKENS", "true")
	t.Setenv("GOPHAUTH_DEV_LOG_CODES", "true")
	t.Setenv("GOPHAUTH_SMTP_TIMEOUT", "3s")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":1111", c.EndpointAddrGRPC)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, 3, c.MaxLoginAttempts)
	assert.Equal(t, time.Hour, c.LockDuration)
	assert.True(t, c.RotateRefreshTokens)
	assert.True(t, c.DevLogCodes)
	assert.Equal(t, 3*time.Second, c.SMTPTimeout)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("GOPHAUTH_SWEEP_HOUR", "three")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.SecretKey = "" }},
		{"zero max attempts", func(c *Config) { c.MaxLoginAttempts = 0 }},
		{"zero verification attempts", func(c *Config) { c.VerificationMaxAttempts = 0 }},
		{"inverted code range", func(c *Config) { c.VerificationCodeMin, c.VerificationCodeMax = 10, 1 }},
		{"zero smtp timeout", func(c *Config) { c.SMTPTimeout = 0 }},
		{"sweep hour", func(c *Config) { c.SweepHour = 24 }},
		{"unknown zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	c := Config{TimeZone: "Asia/Seoul"}
	assert.Equal(t, "Asia/Seoul", c.Location().String())

	c.TimeZone = "nowhere"
	assert.Equal(t, time.UTC, c.Location())
}
