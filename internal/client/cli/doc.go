// Package cli provides authctl, the interactive gophauth command-line client.
//
// It wires configuration, the local session database, the gRPC client and an
// interactive REPL. A session saved by a previous run is restored on start.
//
// Commands:
//   - signup, check: create an account, test whether an email is free
//   - sendcode, verify: email verification (verify also logs in)
//   - login, refresh, logout: session lifecycle
//   - status, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
