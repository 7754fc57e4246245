package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/resqlink/resq-go/internal/client/backend"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details and creates an account. Depending on
// the backend's confirmation policy the user may need to confirm by email
// before the first sign-in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	meta := map[string]any{"full_name": name}
	if err := a.session.SignUp(ctx, email, password, meta); err != nil {
		a.logger.Error(ctx, "registration failed", "error", err)
		fmt.Println("Registration failed:", err)
		return err
	}

	fmt.Println("Account created. Check your email if confirmation is required.")
	return nil
}

// Login prompts for credentials and signs in. The profile arrives
// asynchronously via the session-change stream; the prompt status reflects
// it once loaded.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, email, password); err != nil {
		switch backend.KindOf(err) {
		case backend.KindInvalidCredentials:
			fmt.Println("Sign-in failed:", err)
		case backend.KindEmailNotConfirmed:
			fmt.Println("Please confirm your email first:", err)
		default:
			fmt.Println("Sign-in failed:", err)
		}
		return err
	}

	fmt.Println("Signed in.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		fmt.Println("Sign-out reported an error (local session cleared anyway):", err)
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

// ResetPassword sends a password recovery email.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.session.ResetPassword(ctx, email); err != nil {
		fmt.Println("Reset failed:", err)
		return err
	}
	fmt.Println("Recovery email sent.")
	return nil
}

// ChangePassword updates the signed-in user's password.
func (a *App) ChangePassword(ctx context.Context) error {
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	if err := a.session.UpdatePassword(ctx, password); err != nil {
		fmt.Println("Password update failed:", err)
		return err
	}
	fmt.Println("Password updated.")
	return nil
}

// WhoAmI prints the current session and profile.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	fmt.Printf("User:  %s (%s)\n", u.Email, u.UserID)
	if p := a.session.Profile(); p != nil {
		fmt.Printf("Name:  %s\nRole:  %s\nCity:  %s\nPoints: %d (filed %d, resolved %d)\n",
			p.FullName, p.Role, p.City, p.Points, p.ReportsFiled, p.ReportsResolved)
	}
	if msg := a.session.ProfileError(); msg != "" {
		fmt.Println("Profile problem:", msg)
	}
	return nil
}

// Retry re-runs the profile load for the current user; backs the
// "Retry Connection" affordance.
func (a *App) Retry(ctx context.Context) error {
	a.session.RefreshProfile(ctx)
	fmt.Println("Profile refreshed.")
	return nil
}
