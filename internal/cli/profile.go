package cli

import (
	"context"
	"fmt"
	"time"
)

// Whoami prints the cached session without touching the network.
func (a *App) Whoami(ctx context.Context) error {
	user := a.session.User(ctx)
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "%s <%s>\n", user.FullName(), user.Email)
	if t := a.creds.LoginTime(ctx); !t.IsZero() {
		fmt.Fprintf(a.out, "logged in since %s\n", t.Format("2006-01-02 15:04"))
	}
	if remaining := a.creds.RemainingTime(ctx); remaining > 0 {
		fmt.Fprintf(a.out, "session expires in %s\n", remaining.Round(time.Second))
	}
	return nil
}

// Profile fetches the profile from the backend and prints it with addresses.
func (a *App) Profile(ctx context.Context) error {
	user, err := a.account.Profile(ctx)
	if err != nil {
		a.printErr(err)
		return err
	}

	fmt.Fprintf(a.out, "%s <%s> %s\n", user.FullName(), user.Email, user.Phone)
	if len(user.Addresses) == 0 {
		fmt.Fprintln(a.out, "no saved addresses")
		return nil
	}
	for i, addr := range user.Addresses {
		fmt.Fprintf(a.out, "%d. %s, %s, %s\n", i+1, addr.City, addr.Area, addr.Street)
	}
	return nil
}
