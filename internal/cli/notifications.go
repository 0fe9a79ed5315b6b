package cli

import (
	"context"
	"fmt"
)

// Notifications prints the notification center and offers to mark everything
// read.
func (a *App) Notifications(ctx context.Context) error {
	list, err := a.account.Notifications(ctx)
	if err != nil {
		a.printErr(err)
		return err
	}

	if len(list.Notifications) == 0 {
		fmt.Fprintln(a.out, "No notifications.")
		return nil
	}

	fmt.Fprintf(a.out, "%d unread\n", list.UnreadCount)
	for _, n := range list.Notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %s\n", marker, n.Title, n.Body)
	}

	if list.UnreadCount == 0 {
		return nil
	}
	answer, err := GetSimpleText(a.reader, "Mark all as read? (y/n)", a.out)
	if err != nil {
		return err
	}
	if answer != "y" {
		return nil
	}
	for _, n := range list.Notifications {
		if n.Read {
			continue
		}
		if err := a.account.MarkNotificationRead(ctx, n.ID); err != nil {
			a.printErr(err)
			return err
		}
	}
	return nil
}
