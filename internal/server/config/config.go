// Package config handles configuration for the server component,
// including defaults, JSON overlay, command-line flags and environment
// overrides.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - RotateRefreshTokens: issue a new refresh token on every refresh.
//   - MaxLoginAttempts / LockDuration: lockout policy.
//   - Verification*: email verification challenge policy.
//   - MinimumAge: youngest age, in full years, allowed to sign up.
//   - SMTP*: outgoing mail. SMTPTimeout bounds one delivery, dial included.
//   - DevLogCodes: with empty SMTPHost, put undelivered codes in the log.
//     Off by default; never enable it outside development.
//   - RedisAddr: optional; enables the cross-replica sweep lease.
//   - SweepHour / SweepMinute: daily expired-token sweep, local to TimeZone.
//   - TimeZone: zone for the sweep schedule and for age calculation.
type Config struct {
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	RotateRefreshTokens          bool

	MaxLoginAttempts int
	LockDuration     time.Duration

	VerificationCodeTTL     time.Duration
	VerificationMaxAttempts int
	VerificationCodeMin     int
	VerificationCodeMax     int
	MinimumAge              int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration
	DevLogCodes  bool

	RedisAddr string

	SweepHour   int
	SweepMinute int
	TimeZone    string

	LogLevel string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.RotateRefreshTokens = false

	c.MaxLoginAttempts = 5
	c.LockDuration = 30 * time.Minute

	c.VerificationCodeTTL = 15 * time.Minute
	c.VerificationMaxAttempts = 5
	c.VerificationCodeMin = 100000
	c.VerificationCodeMax = 999999
	c.MinimumAge = 19

	c.SMTPPort = 587
	c.SMTPFrom = "no-reply@gophauth.local"
	c.SMTPTimeout = 10 * time.Second
	c.DevLogCodes = false

	c.SweepHour = 3
	c.SweepMinute = 0
	c.TimeZone = "Asia/Seoul"

	c.LogLevel = "info"
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("secret key is empty")
	case c.MaxLoginAttempts < 1:
		return fmt.Errorf("max login attempts must be positive, got %d", c.MaxLoginAttempts)
	case c.VerificationMaxAttempts < 1:
		return fmt.Errorf("verification max attempts must be positive, got %d", c.VerificationMaxAttempts)
	case c.VerificationCodeMin < 0 || c.VerificationCodeMin > c.VerificationCodeMax:
		return fmt.Errorf("invalid verification code range [%d, %d]", c.VerificationCodeMin, c.VerificationCodeMax)
	case c.SMTPTimeout <= 0:
		return fmt.Errorf("smtp timeout must be positive, got %s", c.SMTPTimeout)
	case c.SweepHour < 0 || c.SweepHour > 23 || c.SweepMinute < 0 || c.SweepMinute > 59:
		return fmt.Errorf("invalid sweep time %02d:%02d", c.SweepHour, c.SweepMinute)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, command-line flags and finally GOPHAUTH_*
// environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
