package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/client"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// fail prints the user-facing form of err and returns it.
func fail(err error) error {
	printlnFn("Error:", describeErr(err))
	return err
}

// Register asks for name, email, password and an optional admin secret and
// submits the registration. The server emails a verification code.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	secret, err := getPassword(a.out, "Admin secret (Enter to skip)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	msg, err := a.client.Register(ctx, name, email, password, string(secret))
	if err != nil {
		return fail(err)
	}

	printlnFn(msg)
	printlnFn("Run 'verify' with the code from the email.")
	return nil
}

// VerifyEmail submits the emailed verification code.
func (a *App) VerifyEmail(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	otp, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.VerifyEmail(ctx, email, otp)
	if err != nil {
		return fail(err)
	}

	printlnFn(msg)
	return nil
}

// Login signs in and remembers the returned profile.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fail(err)
	}

	a.user = u
	printlnFn("Logged in as", u.Name)
	return nil
}

// Me fetches and prints the signed-in profile.
func (a *App) Me(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.user = nil
		}
		return fail(err)
	}

	a.user = u
	printProfile(u)
	return nil
}

func printProfile(u *client.User) {
	printlnFn("Name:    ", u.Name)
	printlnFn("Email:   ", u.Email)
	printlnFn("Role:    ", u.Role)
	printlnFn("Verified:", u.AccountVerified)
	printlnFn("Can:     ", strings.Join(u.Capabilities, ", "))
	if u.Can("users:manage") {
		printlnFn("Admin tools are available for this account.")
	}
}

// Logout ends the session. The local session is dropped even when the
// server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.user = nil
	if err != nil {
		return fail(err)
	}
	printlnFn("Logged out.")
	return nil
}

// ForgotPassword requests a reset code for an email.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		return fail(err)
	}

	printlnFn(msg)
	printlnFn("Run 'reset' with the code from the email.")
	return nil
}

// ResetPassword sets a new password using the emailed reset code.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	otp, err := getSimpleText(a.reader, "Enter reset code", a.out)
	if err != nil {
		return err
	}

	newPassword, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := getPassword(a.out, "Confirm new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	msg, err := a.client.ResetPassword(ctx, email, otp, newPassword, confirm)
	if err != nil {
		return fail(err)
	}

	printlnFn(msg)
	return nil
}

// UpdatePassword changes the password of the signed-in account.
func (a *App) UpdatePassword(ctx context.Context) error {
	oldPassword, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := getPassword(a.out, "Confirm new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	u, err := a.client.UpdatePassword(ctx, oldPassword, newPassword, confirm)
	if err != nil {
		return fail(err)
	}

	a.user = u
	printlnFn("Password updated.")
	return nil
}
