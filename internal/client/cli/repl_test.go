package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) record(c string) error {
	f.calls = append(f.calls, c)
	return nil
}
func (f *fakeExec) Signup(context.Context) error     { return f.record("signup") }
func (f *fakeExec) CheckEmail(context.Context) error { return f.record("check") }
func (f *fakeExec) SendCode(context.Context) error   { return f.record("sendcode") }
func (f *fakeExec) Verify(context.Context) error     { return f.record("verify") }
func (f *fakeExec) Refresh(context.Context) error    { return f.record("refresh") }
func (f *fakeExec) Status(context.Context) error     { return f.record("status") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i], _ = v.(string)
		}
		printed = append(printed, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &printed
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silence(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"signup",
		"",
		"check",
		"sendcode",
		"verify",
		"login",
		"status",
		"refresh",
		"logout",
		"foobar",
		"exit",
		"login",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{"signup", "check", "sendcode", "verify", "login", "status", "refresh", "logout"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls: got %v, want %v", exec.calls, want)
	}
}

func TestRunREPL_HelpDependsOnSessionAndUnknown(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("help\nbogus\nquit\n")))

	joined := strings.Join(*printed, "\n")
	if !strings.Contains(joined, "logout") {
		t.Fatalf("logged-in help should list logout: %q", joined)
	}
	if !strings.Contains(joined, "Unknown command: bogus") {
		t.Fatalf("unknown command not reported: %q", joined)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	silence(t)
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("login")))
	if len(exec.calls) != 1 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
