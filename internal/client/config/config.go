package config

import "time"

// Config holds runtime settings for authctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gophauth gRPC endpoint.
//   - RequestTimeout: deadline applied to every RPC.
//   - SessionDB: path of the SQLite file that keeps the current session.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	SessionDB          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.SessionDB = "authctl.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), command-line flags and AUTHCTL_* environment variables.
// Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
