package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Retry(ctx context.Context) error
	Report(ctx context.Context) error
	MyComplaints(ctx context.Context) error
	Comment(ctx context.Context) error
	SyncDrafts(ctx context.Context) error
	Incidents(ctx context.Context) error
	Events(ctx context.Context) error
	Services(ctx context.Context) error
	Rewards(ctx context.Context) error
	Redeem(ctx context.Context) error
	JoinSquad(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the ResQ CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, ctx cancellation, or
// when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers log
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		printlnFn(fmt.Sprintf("resq %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, report, complaints, comment, sync, incidents, events, services, rewards, redeem, squad, passwd, retry, logout, exit")
			} else {
				printlnFn("Available commands: register, login, reset, incidents, services, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "passwd":
			_ = a.ChangePassword(ctx)

		case "whoami", "profile":
			_ = a.WhoAmI(ctx)

		case "retry":
			_ = a.Retry(ctx)

		case "report":
			_ = a.Report(ctx)

		case "complaints":
			_ = a.MyComplaints(ctx)

		case "comment":
			_ = a.Comment(ctx)

		case "sync":
			_ = a.SyncDrafts(ctx)

		case "incidents":
			_ = a.Incidents(ctx)

		case "events":
			_ = a.Events(ctx)

		case "services":
			_ = a.Services(ctx)

		case "rewards":
			_ = a.Rewards(ctx)

		case "redeem":
			_ = a.Redeem(ctx)

		case "squad":
			_ = a.JoinSquad(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
