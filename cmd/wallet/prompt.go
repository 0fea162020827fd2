package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ivanoskov/wallet/internal/account"
)

// prompter reads answers from the user. Secrets are not echoed when stdin is
// a terminal.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	tty          bool
	readPassword func() ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok {
		fd := int(f.Fd())
		p.tty = term.IsTerminal(fd)
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	value, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// passwordAuth confirms the user by asking for the account password again.
type passwordAuth struct {
	accounts *account.Service
	prompt   *prompter
}

func (a passwordAuth) Available(_ context.Context) error {
	if a.accounts == nil || a.accounts.Email() == "" {
		return errors.New("no password account")
	}
	if !a.prompt.tty {
		return errors.New("stdin is not a terminal")
	}
	return nil
}

func (a passwordAuth) Confirm(ctx context.Context, reason string) (bool, error) {
	pw, err := a.prompt.secret(reason + " - password: ")
	if err != nil {
		return false, err
	}
	if pw == "" {
		return false, nil
	}
	err = a.accounts.Login(ctx, a.accounts.Email(), pw)
	if errors.Is(err, account.ErrInvalidCredentials) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
