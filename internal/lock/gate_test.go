package lock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ivanoskov/wallet/internal/model"
)

type fakeFlags struct {
	mu       sync.Mutex
	settings map[string]model.Settings
	getErr   error
	saveErr  error
	saves    int
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{settings: map[string]model.Settings{}}
}

func (f *fakeFlags) GetSettings(_ context.Context, userID string) (model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Settings{}, f.getErr
	}
	s, ok := f.settings[userID]
	if !ok {
		s.UserID = userID
	}
	return s, nil
}

func (f *fakeFlags) SaveSettings(_ context.Context, s model.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.settings[s.UserID] = s
	return nil
}

type fakeAuth struct {
	unavailable error
	answer      bool
	err         error
	prompts     []string
	block       chan struct{}
}

func (a *fakeAuth) Available(context.Context) error { return a.unavailable }

func (a *fakeAuth) Confirm(_ context.Context, reason string) (bool, error) {
	a.prompts = append(a.prompts, reason)
	if a.block != nil {
		<-a.block
	}
	return a.answer, a.err
}

func TestGate_Start(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		settings    model.Settings
		auth        fakeAuth
		getErr      error
		want        State
		wantPrompts int
	}{
		{name: "no user", userID: "", want: Unlocked},
		{name: "not enabled", userID: "u1", want: Unlocked},
		{
			name:     "suppressed prompt",
			userID:   "u1",
			settings: model.Settings{BiometricEnabled: true, SuppressPrompt: true},
			auth:     fakeAuth{answer: false},
			want:     Unlocked,
		},
		{
			name:     "just enabled",
			userID:   "u1",
			settings: model.Settings{BiometricEnabled: true, BiometricJustEnabled: true},
			auth:     fakeAuth{answer: false},
			want:     Unlocked,
		},
		{
			name:     "device unavailable",
			userID:   "u1",
			settings: model.Settings{BiometricEnabled: true},
			auth:     fakeAuth{unavailable: errors.New("no hardware")},
			want:     Unlocked,
		},
		{
			name:        "confirmed",
			userID:      "u1",
			settings:    model.Settings{BiometricEnabled: true},
			auth:        fakeAuth{answer: true},
			want:        Unlocked,
			wantPrompts: 1,
		},
		{
			name:        "rejected",
			userID:      "u1",
			settings:    model.Settings{BiometricEnabled: true},
			auth:        fakeAuth{answer: false},
			want:        Locked,
			wantPrompts: 1,
		},
		{
			name:        "authenticator error stays locked",
			userID:      "u1",
			settings:    model.Settings{BiometricEnabled: true},
			auth:        fakeAuth{err: errors.New("sensor failure")},
			want:        Locked,
			wantPrompts: 1,
		},
		{
			name:        "rate limited confirmation stays locked",
			userID:      "u1",
			settings:    model.Settings{BiometricEnabled: true},
			auth:        fakeAuth{err: errors.New("response status code 429: too many requests")},
			want:        Locked,
			wantPrompts: 1,
		},
		{
			name:   "store error opens wallet",
			userID: "u1",
			getErr: errors.New("offline"),
			want:   Unlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFakeFlags()
			flags.getErr = tt.getErr
			tt.settings.UserID = tt.userID
			flags.settings[tt.userID] = tt.settings
			auth := tt.auth
			g := NewGate(flags, &auth, nil)

			if got := g.Start(context.Background(), tt.userID); got != tt.want {
				t.Fatalf("Start = %v, want %v", got, tt.want)
			}
			if g.State() != tt.want {
				t.Fatalf("State = %v, want %v", g.State(), tt.want)
			}
			if len(auth.prompts) != tt.wantPrompts {
				t.Fatalf("prompts = %v, want %d", auth.prompts, tt.wantPrompts)
			}
			if tt.wantPrompts > 0 && auth.prompts[0] != UnlockReason {
				t.Fatalf("prompt reason = %q", auth.prompts[0])
			}
		})
	}
}

func TestGate_OneShotFlagsAreConsumed(t *testing.T) {
	ctx := context.Background()
	flags := newFakeFlags()
	flags.settings["u1"] = model.Settings{UserID: "u1", BiometricEnabled: true, BiometricJustEnabled: true}
	auth := &fakeAuth{answer: false}
	g := NewGate(flags, auth, nil)

	if got := g.Start(ctx, "u1"); got != Unlocked {
		t.Fatalf("first start = %v", got)
	}
	if flags.settings["u1"].BiometricJustEnabled {
		t.Fatal("just-enabled flag was not cleared")
	}
	if got := g.Start(ctx, "u1"); got != Locked {
		t.Fatalf("second start = %v, want locked", got)
	}
}

func TestGate_Resume(t *testing.T) {
	ctx := context.Background()
	flags := newFakeFlags()
	flags.settings["u1"] = model.Settings{UserID: "u1", BiometricEnabled: true}
	auth := &fakeAuth{answer: true}
	g := NewGate(flags, auth, nil)

	if got := g.Start(ctx, "u1"); got != Unlocked {
		t.Fatalf("start = %v", got)
	}

	auth.answer = false
	if got := g.Resume(ctx, "u1"); got != Locked {
		t.Fatalf("resume with rejection = %v", got)
	}

	_ = g.Suppress(ctx, "u1")
	auth.answer = true
	if got := g.Resume(ctx, "u1"); got != Locked {
		t.Fatalf("suppressed resume should keep previous state, got %v", got)
	}
	if len(auth.prompts) != 2 {
		t.Fatalf("suppressed resume prompted: %v", auth.prompts)
	}

	if got := g.Resume(ctx, "u1"); got != Unlocked {
		t.Fatalf("resume with confirmation = %v", got)
	}
}

func TestGate_ResumeSkipsWhilePrompting(t *testing.T) {
	ctx := context.Background()
	flags := newFakeFlags()
	flags.settings["u1"] = model.Settings{UserID: "u1", BiometricEnabled: true}
	auth := &fakeAuth{answer: true, block: make(chan struct{})}
	g := NewGate(flags, auth, nil)

	done := make(chan State)
	go func() { done <- g.Start(ctx, "u1") }()

	for {
		g.mu.Lock()
		prompting := g.prompting
		g.mu.Unlock()
		if prompting {
			break
		}
	}

	if got := g.Resume(ctx, "u1"); got != Locked {
		t.Fatalf("resume during prompt = %v, want locked", got)
	}
	close(auth.block)
	if got := <-done; got != Unlocked {
		t.Fatalf("start = %v", got)
	}
	if len(auth.prompts) != 1 {
		t.Fatalf("expected a single prompt, got %v", auth.prompts)
	}
}

func TestGate_EnableDisable(t *testing.T) {
	ctx := context.Background()
	flags := newFakeFlags()
	auth := &fakeAuth{answer: true}
	g := NewGate(flags, auth, nil)

	needs, err := g.NeedsSetup(ctx, "u1")
	if err != nil || !needs {
		t.Fatalf("NeedsSetup = %v %v", needs, err)
	}

	if err := g.Enable(ctx, "u1"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	s := flags.settings["u1"]
	if !s.BiometricEnabled || !s.BiometricPrompted || !s.BiometricJustEnabled {
		t.Fatalf("settings after enable = %+v", s)
	}

	if err := g.Disable(ctx, "u1"); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	enabled, _ := g.Enabled(ctx, "u1")
	needs, _ = g.NeedsSetup(ctx, "u1")
	if enabled || needs {
		t.Fatalf("after disable enabled=%v needsSetup=%v", enabled, needs)
	}
}

func TestGate_EnableFailures(t *testing.T) {
	ctx := context.Background()

	g := NewGate(newFakeFlags(), &fakeAuth{unavailable: errors.New("no sensor")}, nil)
	if err := g.Enable(ctx, "u1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("unavailable err = %v", err)
	}

	g = NewGate(newFakeFlags(), &fakeAuth{answer: false}, nil)
	if err := g.Enable(ctx, "u1"); !errors.Is(err, ErrCancelled) {
		t.Fatalf("cancelled err = %v", err)
	}

	if err := g.Enable(ctx, ""); !errors.Is(err, ErrNoUser) {
		t.Fatalf("no user err = %v", err)
	}
}
