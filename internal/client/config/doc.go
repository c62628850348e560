// Package config loads runtime configuration for authctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags -a, -t, -s.
//  4. AUTHCTL_ADDR, AUTHCTL_TIMEOUT, AUTHCTL_SESSION_DB.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "session_db": "authctl.db"
//	}
package config
