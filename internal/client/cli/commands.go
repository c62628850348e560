package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
)

// Signup prompts for the account fields and registers the account. The
// password byte slice is wiped before returning.
func (a *App) Signup(ctx context.Context) error {
	req := &api.SignupRequest{}
	var err error

	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if req.Nickname, err = getSimpleText(a.reader, "Enter nickname", a.out); err != nil {
		return err
	}
	if req.BirthDate, err = getSimpleText(a.reader, "Enter birth date (YYYY-MM-DD)", a.out); err != nil {
		return err
	}
	if req.Gender, err = getOptionalText(a.reader, "Enter gender (male/female/other)", a.out); err != nil {
		return err
	}
	if req.ProfileImageURL, err = getOptionalText(a.reader, "Enter profile image URL", a.out); err != nil {
		return err
	}
	if req.Bio, err = getOptionalText(a.reader, "Enter bio", a.out); err != nil {
		return err
	}

	id, err := a.authService.Signup(ctx, req)
	if err != nil {
		return a.fail("Signup", err)
	}

	a.printf("Account %s created. Run 'sendcode' to verify your email.\n", id)
	return nil
}

func (a *App) CheckEmail(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ok, err := a.authService.CheckEmailAvailable(ctx, email)
	if err != nil {
		return a.fail("Check", err)
	}
	if ok {
		a.printf("%s is available\n", email)
	} else {
		a.printf("%s is already registered\n", email)
	}
	return nil
}

func (a *App) SendCode(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if err := a.authService.SendVerificationCode(ctx, email); err != nil {
		return a.fail("Send code", err)
	}
	a.printf("If %s has an unverified account, a code is on its way.\n", email)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	if _, err := a.authService.VerifyCode(ctx, email, code); err != nil {
		return a.fail("Verification", err)
	}
	a.printf("Email verified, logged in as %s\n", email)
	return nil
}

// Login prompts for credentials and opens a session. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Login(ctx, email, string(password)); err != nil {
		return a.fail("Login", err)
	}
	a.printf("Logged in as %s\n", email)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.authService.Refresh(ctx); err != nil {
		return a.fail("Refresh", err)
	}
	a.printf("Access token refreshed\n")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return a.fail("Logout", err)
	}
	a.printf("Logged out\n")
	return nil
}

func (a *App) Status(context.Context) error {
	s := a.authService.Current()
	if !s.LoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}
	a.printf("Logged in as %s (user %s)\n", s.Email, s.UserID)
	return nil
}

// fail prints a readable explanation of err and returns it.
func (a *App) fail(op string, err error) error {
	a.printf("%s failed: %s\n", op, describeError(err))
	return err
}

func describeError(err error) string {
	var se *client.ServerError
	if errors.As(err, &se) {
		switch {
		case errors.Is(err, common.ErrAccountLocked):
			return fmt.Sprintf("account locked, try again in %s minute(s)", se.Metadata[api.MetaRemainingMinutes])
		case errors.Is(err, common.ErrCodeMismatch):
			return fmt.Sprintf("wrong code, %s attempt(s) left", se.Metadata[api.MetaAttemptsRemaining])
		case errors.Is(err, common.ErrDuplicateIdentity):
			return fmt.Sprintf("%s is already taken", se.Metadata[api.MetaField])
		case errors.Is(err, common.ErrAgeRestricted):
			return fmt.Sprintf("you must be at least %s years old", se.Metadata[api.MetaMinimumAge])
		case errors.Is(err, common.ErrEmailNotVerified):
			return "email not verified, run 'sendcode' then 'verify'"
		case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
			return "session expired, please log in again"
		}
		return se.Message
	}
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return "not logged in"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	}
	return err.Error()
}
