package cli

import (
	"context"
	"fmt"

	"github.com/a2ztrade/storekit/internal/api"
)

// printErr renders a failure for the terminal, preferring the user-facing
// message of a typed backend error.
func (a *App) printErr(err error) {
	if apiErr, ok := api.AsError(err); ok {
		fmt.Fprintln(a.out, apiErr.Message)
		for field, problem := range apiErr.FieldErrors {
			fmt.Fprintf(a.out, "  %s: %s\n", field, problem)
		}
		return
	}
	fmt.Fprintln(a.out, "error:", err)
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}

	resp, err := a.session.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		a.printErr(err)
		return err
	}

	fmt.Fprintf(a.out, "Welcome back, %s!\n", resp.User.FullName())
	return nil
}

func (a *App) Signup(ctx context.Context) error {
	req := api.SignupRequest{}
	var err error

	if req.FirstName, err = GetSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if req.LastName, err = GetSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if req.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if req.Phone, err = GetSimpleText(a.reader, "Phone", a.out); err != nil {
		return err
	}
	if req.Password, err = GetPassword(a.out, "Password"); err != nil {
		return err
	}
	if req.PasswordConfirm, err = GetPassword(a.out, "Confirm password"); err != nil {
		return err
	}

	resp, err := a.account.Signup(ctx, req)
	if err != nil {
		a.printErr(err)
		return err
	}

	if resp.Token == "" {
		fmt.Fprintln(a.out, "Account created. Check your email for the verification code, then run 'verify'.")
	} else {
		fmt.Fprintf(a.out, "Welcome, %s!\n", resp.User.FullName())
	}
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	code, err := GetSimpleText(a.reader, "Verification code", a.out)
	if err != nil {
		return err
	}

	if err := a.account.VerifyEmail(ctx, email, code); err != nil {
		a.printErr(err)
		return err
	}

	fmt.Fprintln(a.out, "Email verified. You can log in now.")
	return nil
}

// Forgot walks the full password-reset flow: request a code, then use it.
func (a *App) Forgot(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	if err := a.account.ForgotPassword(ctx, email); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Reset code sent, check your email.")

	code, err := GetSimpleText(a.reader, "Reset code", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.out, "Confirm new password")
	if err != nil {
		return err
	}

	req := api.ResetPasswordRequest{
		Email:           email,
		Code:            code,
		Password:        password,
		PasswordConfirm: confirm,
	}
	if err := a.account.ResetPassword(ctx, req); err != nil {
		a.printErr(err)
		return err
	}

	fmt.Fprintln(a.out, "Password changed. You can log in now.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
