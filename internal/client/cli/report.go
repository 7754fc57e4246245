package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/resqlink/resq-go/internal/client/models"
)

// Report files a new complaint interactively. When the backend is
// unreachable the report is queued locally and pushed by "sync".
func (a *App) Report(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (roads/waste/water/lighting/other)", os.Stdout)
	if err != nil {
		return err
	}
	location, err := getSimpleText(a.reader, "Location", os.Stdout)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Describe the issue", os.Stdout)
	if err != nil {
		return err
	}
	photo, err := getSimpleText(a.reader, "Photo file path (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}

	draft := models.ComplaintDraft{
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
		PhotoPath:   photo,
	}

	queued, created, err := a.complaints.Report(ctx, u.UserID, draft)
	if err != nil {
		a.logger.Error(ctx, "filing complaint failed", "error", err)
		fmt.Println("Could not file complaint:", err)
		return err
	}
	if queued {
		fmt.Println("Backend unreachable; complaint queued locally. Run 'sync' later.")
		return nil
	}
	fmt.Printf("Complaint filed: %s (%s)\n", created.ID, created.Status)
	return nil
}

// MyComplaints lists the user's filed complaints.
func (a *App) MyComplaints(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	rows, err := a.complaints.ListMine(ctx, u.UserID)
	if err != nil {
		fmt.Println("Could not list complaints:", err)
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No complaints filed yet.")
		return nil
	}
	for _, c := range rows {
		fmt.Printf("%s  [%-11s] %s (%s)\n", c.CreatedAt.Format("2006-01-02"), c.Status, c.Title, c.Category)
	}
	return nil
}

// Comment adds a follow-up note to one of the user's complaints.
func (a *App) Comment(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	id, err := getSimpleText(a.reader, "Complaint id", os.Stdout)
	if err != nil {
		return err
	}
	body, err := GetMultiline(a.reader, "Comment", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.complaints.Comment(ctx, u.UserID, id, body); err != nil {
		fmt.Println("Could not add comment:", err)
		return err
	}
	fmt.Println("Comment added.")
	return nil
}

// SyncDrafts pushes locally queued complaints.
func (a *App) SyncDrafts(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Println("Sign in first.")
		return nil
	}

	pushed, err := a.complaints.SyncDrafts(ctx, u.UserID)
	if err != nil {
		fmt.Println("Sync failed:", err)
		return err
	}
	remaining, _ := a.complaints.PendingCount(ctx)
	fmt.Printf("Pushed %d queued complaint(s); %d remaining.\n", pushed, remaining)
	return nil
}
