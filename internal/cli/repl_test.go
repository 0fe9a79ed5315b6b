package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Verify(ctx context.Context) error {
	f.calls = append(f.calls, "verify")
	return nil
}
func (f *fakeExec) Forgot(ctx context.Context) error {
	f.calls = append(f.calls, "forgot")
	return nil
}
func (f *fakeExec) Whoami(ctx context.Context) error {
	f.calls = append(f.calls, "whoami")
	return nil
}
func (f *fakeExec) Profile(ctx context.Context) error {
	f.calls = append(f.calls, "profile")
	return nil
}
func (f *fakeExec) Orders(ctx context.Context) error {
	f.calls = append(f.calls, "orders")
	return nil
}
func (f *fakeExec) Add(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "add")
	f.args = args
	return nil
}
func (f *fakeExec) Cart(ctx context.Context) error {
	f.calls = append(f.calls, "cart")
	return nil
}
func (f *fakeExec) Checkout(ctx context.Context) error {
	f.calls = append(f.calls, "checkout")
	return nil
}
func (f *fakeExec) Notifications(ctx context.Context) error {
	f.calls = append(f.calls, "notifications")
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"whoami",
		"add p1 Citric Acid 2 150",
		"cart",
		"checkout",
		"orders",
		"foobar",
		"logout",
		"exit",
	}, "\n"))

	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc, io.Discard)

	assert.Equal(t, []string{"login", "whoami", "add", "cart", "checkout", "orders", "logout"}, exec.calls)
	assert.Equal(t, []string{"p1", "Citric", "Acid", "2", "150"}, exec.args)
	assert.False(t, exec.loggedIn)
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	sc := bufio.NewScanner(strings.NewReader("whoami\n"))

	runREPL(context.Background(), exec, func() string { return "" }, sc, io.Discard)

	assert.Equal(t, []string{"whoami"}, exec.calls)
}

func TestRunREPL_EmptyLinesAreSkipped(t *testing.T) {
	exec := &fakeExec{}
	sc := bufio.NewScanner(strings.NewReader("\n\nquit\n"))

	runREPL(context.Background(), exec, func() string { return "" }, sc, io.Discard)

	assert.Empty(t, exec.calls)
}
