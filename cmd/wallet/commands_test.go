package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivanoskov/wallet/internal/app"
	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/lock"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/service"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	a, err := app.New(&config.Config{
		DataBackend:      config.BackendMemory,
		Currency:         "USD",
		CurrencyFraction: 2,
		WindowDays:       30,
		TopN:             5,
		ChartSize:        220,
	}, log.Discard())
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	out := &bytes.Buffer{}
	c := newCLI(a, nil, newPrompter(strings.NewReader(""), out), out)
	c.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return c, out
}

func runOK(t *testing.T, c *cli, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	if err := c.run(context.Background(), args); err != nil {
		t.Fatalf("wallet %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLI_RecordsAndBreakdown(t *testing.T) {
	c, out := newTestCLI(t)

	runOK(t, c, out, "add", "income", "1000", "salary")
	got := runOK(t, c, out, "add", "expense", "250,00", "Food", "lunch", "out")
	if got != "Saved -$250.00 Food · lunch out\n" {
		t.Fatalf("add = %q", got)
	}

	got = runOK(t, c, out, "list")
	if !strings.Contains(got, "+$1,000.00") || !strings.Contains(got, "Food · lunch out") {
		t.Fatalf("list = %q", got)
	}

	got = runOK(t, c, out, "summary")
	if !strings.Contains(got, "Balance:  $750.00") {
		t.Fatalf("summary = %q", got)
	}

	svg := filepath.Join(t.TempDir(), "report.svg")
	got = runOK(t, c, out, "breakdown", svg)
	for _, want := range []string{"Food", "Remaining", "(25.0%)", "Chart written"} {
		if !strings.Contains(got, want) {
			t.Fatalf("breakdown %q missing %q", got, want)
		}
	}
	data, err := os.ReadFile(svg)
	if err != nil || !bytes.HasPrefix(data, []byte("<svg")) {
		t.Fatalf("svg file = %q, %v", data, err)
	}

	if err := c.run(context.Background(), []string{"breakdown", "report.gif"}); !errors.Is(err, errUsage) {
		t.Fatalf("gif err = %v", err)
	}
}

func TestCLI_CardsSalaryTasks(t *testing.T) {
	c, out := newTestCLI(t)

	if got := runOK(t, c, out, "addcard", "Main", "4111111111114242", "12/27", "default"); got != "Card Main •••• 4242 added.\n" {
		t.Fatalf("addcard = %q", got)
	}
	if got := runOK(t, c, out, "cards"); !strings.HasPrefix(got, "* Main") || !strings.Contains(got, "12/2027") {
		t.Fatalf("cards = %q", got)
	}
	if err := c.run(context.Background(), []string{"addcard", "x", "4242", "13/27"}); !errors.Is(err, service.ErrInvalidExpMonth) {
		t.Fatalf("bad month err = %v", err)
	}

	if got := runOK(t, c, out, "salary"); got != "No salary set for 2024-06.\n" {
		t.Fatalf("salary = %q", got)
	}
	if got := runOK(t, c, out, "salary", "2024-05", "3000"); got != "Salary for 2024-05: $3,000.00\n" {
		t.Fatalf("salary = %q", got)
	}

	runOK(t, c, out, "task", "add", "Rent", "June rent", "900")
	tasks, err := c.app.Tasks.ListTasks(context.Background(), localUser)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks = %+v, %v", tasks, err)
	}
	runOK(t, c, out, "task", "done", tasks[0].ID)
	if got := runOK(t, c, out, "tasks"); !strings.HasPrefix(got, "[x] Rent: June rent ($900.00)") {
		t.Fatalf("tasks = %q", got)
	}
}

func TestCLI_Errors(t *testing.T) {
	c, _ := newTestCLI(t)
	ctx := context.Background()

	tests := []struct {
		args []string
		want error
	}{
		{args: []string{"login", "a@b.co"}, want: errNeedsAccount},
		{args: []string{"frobnicate"}, want: errUsage},
		{args: []string{"add", "expense", "abc"}, want: service.ErrInvalidAmount},
		{args: []string{"add", "gift", "5"}, want: service.ErrInvalidType},
		{args: []string{"lock", "enable"}, want: lock.ErrUnavailable},
	}
	for _, tt := range tests {
		if err := c.run(ctx, tt.args); !errors.Is(err, tt.want) {
			t.Fatalf("wallet %v err = %v, want %v", tt.args, err, tt.want)
		}
	}
}

func TestCLI_LockStatus(t *testing.T) {
	c, out := newTestCLI(t)
	runOK(t, c, out, "lock", "disable")

	s, err := c.app.Backend.GetSettings(context.Background(), localUser)
	if err != nil {
		t.Fatal(err)
	}
	if s != (model.Settings{UserID: localUser, BiometricPrompted: true}) {
		t.Fatalf("settings = %+v", s)
	}
	if got := runOK(t, c, out, "lock", "status"); got != "Password unlock: false\n" {
		t.Fatalf("status = %q", got)
	}
}
