package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Duration fields use
// timex.Duration, so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RotateRefreshTokens          bool           `json:"rotate_refresh_tokens"`

	MaxLoginAttempts int            `json:"max_login_attempts"`
	LockDuration     timex.Duration `json:"lock_duration"`

	VerificationCodeTTL     timex.Duration `json:"verification_code_ttl"`
	VerificationMaxAttempts int            `json:"verification_max_attempts"`
	VerificationCodeMin     int            `json:"verification_code_min"`
	VerificationCodeMax     int            `json:"verification_code_max"`
	MinimumAge              int            `json:"minimum_age"`

	SMTPHost     string         `json:"smtp_host"`
	SMTPPort     int            `json:"smtp_port"`
	SMTPUser     string         `json:"smtp_user"`
	SMTPPassword string         `json:"smtp_password"`
	SMTPFrom     string         `json:"smtp_from"`
	SMTPTimeout  timex.Duration `json:"smtp_timeout"`
	DevLogCodes  bool           `json:"dev_log_codes"`

	RedisAddr string `json:"redis_addr"`

	SweepHour   int    `json:"sweep_hour"`
	SweepMinute int    `json:"sweep_minute"`
	TimeZone    string `json:"time_zone"`

	LogLevel string `json:"log_level"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		RotateRefreshTokens:          c.RotateRefreshTokens,
		MaxLoginAttempts:             c.MaxLoginAttempts,
		LockDuration:                 timex.Duration{Duration: c.LockDuration},
		VerificationCodeTTL:          timex.Duration{Duration: c.VerificationCodeTTL},
		VerificationMaxAttempts:      c.VerificationMaxAttempts,
		VerificationCodeMin:          c.VerificationCodeMin,
		VerificationCodeMax:          c.VerificationCodeMax,
		MinimumAge:                   c.MinimumAge,
		SMTPHost:                     c.SMTPHost,
		SMTPPort:                     c.SMTPPort,
		SMTPUser:                     c.SMTPUser,
		SMTPPassword:                 c.SMTPPassword,
		SMTPFrom:                     c.SMTPFrom,
		SMTPTimeout:                  timex.Duration{Duration: c.SMTPTimeout},
		DevLogCodes:                  c.DevLogCodes,
		RedisAddr:                    c.RedisAddr,
		SweepHour:                    c.SweepHour,
		SweepMinute:                  c.SweepMinute,
		TimeZone:                     c.TimeZone,
		LogLevel:                     c.LogLevel,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.RotateRefreshTokens = j.RotateRefreshTokens
	c.MaxLoginAttempts = j.MaxLoginAttempts
	c.LockDuration = j.LockDuration.Duration
	c.VerificationCodeTTL = j.VerificationCodeTTL.Duration
	c.VerificationMaxAttempts = j.VerificationMaxAttempts
	c.VerificationCodeMin = j.VerificationCodeMin
	c.VerificationCodeMax = j.VerificationCodeMax
	c.MinimumAge = j.MinimumAge
	c.SMTPHost = j.SMTPHost
	c.SMTPPort = j.SMTPPort
	c.SMTPUser = j.SMTPUser
	c.SMTPPassword = j.SMTPPassword
	c.SMTPFrom = j.SMTPFrom
	c.SMTPTimeout = j.SMTPTimeout.Duration
	c.DevLogCodes = j.DevLogCodes
	c.RedisAddr = j.RedisAddr
	c.SweepHour = j.SweepHour
	c.SweepMinute = j.SweepMinute
	c.TimeZone = j.TimeZone
	c.LogLevel = j.LogLevel
}

// parseJson overlays values from a JSON file onto config. The file path comes
// from -c/-config or GOPHAUTH_CONFIG; without one nothing is loaded. Keys
// missing from the file keep their current values. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}
