package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Verify(ctx context.Context) error
	Forgot(ctx context.Context) error
	Whoami(ctx context.Context) error
	Profile(ctx context.Context) error
	Orders(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Cart(ctx context.Context) error
	Checkout(ctx context.Context) error
	Notifications(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for {
		fmt.Fprintf(w, "storectl %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, profile, orders, add, cart, checkout, notifications, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login, signup, verify, forgot, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "signup":
			_ = a.Signup(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "forgot":
			_ = a.Forgot(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "orders":
			_ = a.Orders(ctx)

		case "add":
			_ = a.Add(ctx, args)

		case "cart":
			_ = a.Cart(ctx)

		case "checkout":
			_ = a.Checkout(ctx)

		case "notifications":
			_ = a.Notifications(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
