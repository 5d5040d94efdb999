package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/timefmt"
)

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}
	req := api.LoginRequest{Email: *email, Password: *password}
	if err := api.Validate(&req); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	token, err := a.api.Login(ctx, req)
	if err != nil {
		return err
	}
	id, err := a.store.Login(token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as user %d (%s).\n", id.UserID, id.Role)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if id, err := a.identity(); err == nil {
		if err := a.api.Logout(ctx, id.Auth()); err != nil {
			a.log.Warn("backend logout failed", "error", err)
		}
	}
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %d, role %s", id.UserID, id.Role)
	if !id.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, ", session expires %s", id.ExpiresAt.Format(time.DateTime))
	}
	fmt.Fprintln(a.out)
	return nil
}

// cmdSignup walks through email verification and account creation.
func cmdSignup(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("signup", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	nickname := fs.String("nickname", "", "display name")
	phone := fs.String("phone", "", "phone number")
	verification := fs.String("verification-id", "", "id issued by the identity verification provider")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.api.SendCode(ctx, api.SendCodeRequest{Email: *email}); err != nil {
		return err
	}
	code, err := a.prompt("Verification code sent to " + *email + ": ")
	if err != nil {
		return err
	}
	if err := a.api.VerifyCode(ctx, api.VerifyCodeRequest{Email: *email, Code: code}); err != nil {
		return err
	}
	password, err := a.prompt("Choose a password: ")
	if err != nil {
		return err
	}
	req := api.SignupRequest{
		Email:                  *email,
		Password:               password,
		Nickname:               *nickname,
		Phone:                  *phone,
		IdentityVerificationID: *verification,
	}
	if err := api.Validate(&req); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	if err := a.api.Signup(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created. Log in with: market login --email", *email)
	return nil
}

func cmdReport(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	user := fs.Int64("user", 0, "reported user id")
	product := fs.Int64("product", 0, "related product id")
	reason := fs.String("reason", "", "reason")
	detail := fs.String("detail", "", "details, up to 255 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	req := api.ReportRequest{TargetUserID: *user, Reason: *reason, Detail: *detail}
	if *product > 0 {
		req.ProductID = product
	}
	if err := api.Validate(&req); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := a.api.CreateReport(ctx, id.Auth(), req); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Report sent.")
	return nil
}

func cmdNotifications(ctx context.Context, a *app, _ []string) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	feed := newFeedView(a, id.Auth())
	if err := feed.feed.Load(ctx); err != nil {
		return err
	}
	for {
		feed.print()
		line, err := a.prompt(feed.hint())
		if err != nil || line == "q" {
			return nil
		}
		if err := feed.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(a.out, describe(err))
		}
	}
}

func posted(t api.Timestamp) string {
	return timefmt.Since(t.Time)
}
