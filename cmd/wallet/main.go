package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivanoskov/wallet/internal/account"
	"github.com/ivanoskov/wallet/internal/app"
	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/session"
)

const usage = `usage: wallet <command> [args]

account:
  register <name> <email>       create an account (password is prompted)
  login <email>                 sign in (password is prompted)
  google                        sign in with Google
  logout
  passwd                        change the password
  profile [new name]

records:
  add expense <amount> [category] [note...]
  add income <amount> [note...]
  list [limit]
  summary
  breakdown [out.svg|out.png]
  cards
  addcard <label> <number> <MM/YY> [default]
  salary [YYYY-MM] [amount]
  tasks
  task add <title> <description> [amount] [category]
  task done <id>

  lock enable|disable|status`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" {
		fmt.Println(usage)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Diagnostics go to stderr so command output stays clean.
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentCLI, Output: os.Stderr})
	log.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %v\n", err)
		os.Exit(1)
	}

	var accounts *account.Service
	if a.Backend.Client != nil {
		accounts = account.NewService(account.NewSupabaseProvider(a.Backend.Client), a.Backend, session.NewKeyring(cfg.KeyringService), logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(a, accounts, newPrompter(os.Stdin, os.Stdout), os.Stdout)
	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "%s error: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
