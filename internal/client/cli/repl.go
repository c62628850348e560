package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	CheckEmail(ctx context.Context) error
	Login(ctx context.Context) error
	SendCode(ctx context.Context) error
	Verify(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF or
// when the user types "exit" or "quit".
//
//	help      show available commands
//	signup    create an account
//	check     test whether an email is free
//	sendcode  mail a verification code
//	verify    enter the code (logs in on success)
//	login     authenticate
//	refresh   get a new access token
//	logout    end the session
//	status    show the current session
//	exit|quit leave the program
//
// Command handlers report their own errors; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("authctl (%s)> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, refresh, logout, login, exit")
			} else {
				printlnFn("Available commands: signup, check, sendcode, verify, login, status, exit")
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "check":
			_ = a.CheckEmail(ctx)

		case "sendcode":
			_ = a.SendCode(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "login":
			_ = a.Login(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", parts[0])
		}
	}
}
