// Package client is the authctl side of the gophauth gRPC API.
//
// # Overview
//
// The package provides:
//  1. The Client interface: Signup, CheckEmailAvailable, Login,
//     SendVerificationCode, VerifyCode, RefreshAccessToken and Logout.
//  2. GRPCClient, which speaks the JSON codec from the api package, keeps the
//     current token pair, attaches the access token to protected calls and
//     retries once after refreshing an expired access token.
//  3. InitDatabase and RunMigrations, which open the local SQLite session
//     store and apply its embedded goose migrations.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable and ErrUnauthorized. Domain
// failures arrive as *ServerError; its Unwrap returns the matching common
// sentinel, so callers can write errors.Is(err, common.ErrAccountLocked)
// and read details such as remaining minutes from Metadata.
package client
