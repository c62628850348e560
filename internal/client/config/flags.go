package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTHCTL_"

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the server (default from Config)
//	-t int      request timeout in seconds (default from Config)
//	-s string   session database file (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.SessionDB, "s", cfg.SessionDB, "session database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}

func parseEnv(cfg *Config) error {
	flagx.EnvString(EnvPrefix+"ADDR", &cfg.ServerEndpointAddr)
	flagx.EnvString(EnvPrefix+"SESSION_DB", &cfg.SessionDB)
	if err := flagx.EnvDuration(EnvPrefix+"TIMEOUT", &cfg.RequestTimeout); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
