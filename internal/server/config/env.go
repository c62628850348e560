package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOPHAUTH_"

// parseEnv applies GOPHAUTH_* overrides, the last configuration layer.
func parseEnv(c *Config) error {
	flagx.EnvString(EnvPrefix+"GRPC_ADDR", &c.EndpointAddrGRPC)
	flagx.EnvString(EnvPrefix+"DATABASE_DSN", &c.DatabaseDSN)
	flagx.EnvString(EnvPrefix+"SECRET_KEY", &c.SecretKey)
	flagx.EnvString(EnvPrefix+"SMTP_HOST", &c.SMTPHost)
	flagx.EnvString(EnvPrefix+"SMTP_USER", &c.SMTPUser)
	flagx.EnvString(EnvPrefix+"SMTP_PASSWORD", &c.SMTPPassword)
	flagx.EnvString(EnvPrefix+"SMTP_FROM", &c.SMTPFrom)
	flagx.EnvString(EnvPrefix+"REDIS_ADDR", &c.RedisAddr)
	flagx.EnvString(EnvPrefix+"TIME_ZONE", &c.TimeZone)
	flagx.EnvString(EnvPrefix+"LOG_LEVEL", &c.LogLevel)

	ints := map[string]*int{
		"MAX_LOGIN_ATTEMPTS":        &c.MaxLoginAttempts,
		"VERIFICATION_MAX_ATTEMPTS": &c.VerificationMaxAttempts,
		"MINIMUM_AGE":               &c.MinimumAge,
		"SMTP_PORT":                 &c.SMTPPort,
		"SWEEP_HOUR":                &c.SweepHour,
		"SWEEP_MINUTE":              &c.SweepMinute,
	}
	for key, dst := range ints {
		if err := flagx.EnvInt(EnvPrefix+key, dst); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":      &c.AccessTokenValidityDuration,
		"REFRESH_TOKEN_TTL":     &c.RefreshTokenValidityDuration,
		"LOCK_DURATION":         &c.LockDuration,
		"VERIFICATION_CODE_TTL": &c.VerificationCodeTTL,
		"SMTP_TIMEOUT":          &c.SMTPTimeout,
	}
	for key, dst := range durations {
		if err := flagx.EnvDuration(EnvPrefix+key, dst); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if err := flagx.EnvBool(EnvPrefix+"ROTATE_REFRESH_TOKENS", &c.RotateRefreshTokens); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := flagx.EnvBool(EnvPrefix+"DEV_LOG_CODES", &c.DevLogCodes); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
