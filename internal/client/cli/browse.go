package cli

import (
	"context"
	"fmt"
	"os"
)

// Incidents prints the active emergency incident feed. Available without a
// session: emergency information should not sit behind a login.
func (a *App) Incidents(ctx context.Context) error {
	rows, err := a.civic.Incidents(ctx)
	if err != nil {
		fmt.Println("Could not load incidents:", err)
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No active incidents.")
		return nil
	}
	for _, in := range rows {
		fmt.Printf("%s  [%s/%s] %s (%s)\n", in.ReportedAt.Format("01-02 15:04"), in.Kind, in.Severity, in.Title, in.Area)
	}
	return nil
}

func (a *App) Events(ctx context.Context) error {
	rows, err := a.civic.Events(ctx)
	if err != nil {
		fmt.Println("Could not load events:", err)
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No upcoming events.")
		return nil
	}
	for _, ev := range rows {
		fmt.Printf("%s  %s @ %s", ev.StartsAt.Format("2006-01-02 15:04"), ev.Title, ev.Venue)
		if ev.Points > 0 {
			fmt.Printf(" (+%dpt)", ev.Points)
		}
		fmt.Println()
	}
	return nil
}

// Services prints the public service directory. Available without a session.
func (a *App) Services(ctx context.Context) error {
	rows, err := a.civic.Services(ctx)
	if err != nil {
		fmt.Println("Could not load service directory:", err)
		return err
	}
	for _, s := range rows {
		fmt.Printf("%-25s %-12s %s  %s\n", s.Name, s.Category, s.Phone, s.Address)
	}
	return nil
}

func (a *App) Rewards(ctx context.Context) error {
	rows, err := a.civic.Rewards(ctx)
	if err != nil {
		fmt.Println("Could not load rewards:", err)
		return err
	}
	for _, r := range rows {
		fmt.Printf("%s  %-30s %dpt\n", r.ID, r.Title, r.Cost)
	}
	if p := a.session.Profile(); p != nil {
		fmt.Printf("Your balance: %dpt\n", p.Points)
	}
	return nil
}

// Redeem exchanges points for a reward, then refreshes the profile so the
// new balance shows up in the prompt.
func (a *App) Redeem(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	id, err := getSimpleText(a.reader, "Reward id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.civic.Redeem(ctx, u.UserID, id); err != nil {
		fmt.Println("Redemption failed:", err)
		return err
	}
	a.session.RefreshProfile(ctx)
	fmt.Println("Reward redeemed.")
	return nil
}

// JoinSquad applies for volunteer squad membership.
func (a *App) JoinSquad(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	area, err := getSimpleText(a.reader, "Area id (empty for your city's default)", os.Stdout)
	if err != nil {
		return err
	}
	motivation, err := GetMultiline(a.reader, "Why do you want to volunteer?", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.civic.RequestSquad(ctx, u.UserID, area, motivation); err != nil {
		fmt.Println("Squad request failed:", err)
		return err
	}
	fmt.Println("Request submitted; you'll be notified after review.")
	return nil
}
