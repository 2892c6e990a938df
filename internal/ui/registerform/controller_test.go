package registerform_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/svc/accountsvc"
	"github.com/reelspro/reelspro/internal/svc/accountsvc/accountclient"
	"github.com/reelspro/reelspro/internal/ui/registerform"
)

type fakeView struct {
	m         sync.Mutex
	busy      []bool
	errors    []string
	duplicate string
	goToLogin func()
	hidden    bool
	success   string
}

func (v *fakeView) SetBusy(busy bool) {
	v.m.Lock()
	defer v.m.Unlock()
	v.busy = append(v.busy, busy)
}

func (v *fakeView) ShowError(msg string) {
	v.m.Lock()
	defer v.m.Unlock()
	v.errors = append(v.errors, msg)
}

func (v *fakeView) ShowDuplicateEmail(msg string, goToLogin func()) {
	v.m.Lock()
	defer v.m.Unlock()
	v.duplicate = msg
	v.goToLogin = goToLogin
}

func (v *fakeView) HideDuplicateEmail() {
	v.m.Lock()
	defer v.m.Unlock()
	v.hidden = true
}

func (v *fakeView) ShowSuccess(msg string) {
	v.m.Lock()
	defer v.m.Unlock()
	v.success = msg
}

type fakeNavigator struct {
	paths []string
}

func (n *fakeNavigator) Navigate(path string) {
	n.paths = append(n.paths, path)
}

type fakeRegistrar struct {
	m       sync.Mutex
	calls   []accountsvc.RegisterRequest
	err     error
	release chan struct{}
}

func (r *fakeRegistrar) Register(_ context.Context, req accountsvc.RegisterRequest) (accountsvc.RegisterResponse, error) {
	r.m.Lock()
	r.calls = append(r.calls, req)
	release, err := r.release, r.err
	r.m.Unlock()

	if release != nil {
		<-release
	}

	if err != nil {
		return accountsvc.RegisterResponse{}, err
	}

	return accountsvc.RegisterResponse{Message: accountsvc.MsgRegisterSuccessful}, nil
}

func (r *fakeRegistrar) callCount() int {
	r.m.Lock()
	defer r.m.Unlock()

	return len(r.calls)
}

// manualTimer records scheduled callbacks so tests decide when time passes.
type manualTimer struct {
	m       sync.Mutex
	pending []scheduled
}

type scheduled struct {
	d time.Duration
	f func()
}

func (t *manualTimer) AfterFunc(d time.Duration, f func()) func() bool {
	t.m.Lock()
	defer t.m.Unlock()
	t.pending = append(t.pending, scheduled{d: d, f: f})

	return func() bool { return false }
}

func (t *manualTimer) fire() []time.Duration {
	t.m.Lock()
	pending := t.pending
	t.pending = nil
	t.m.Unlock()

	delays := make([]time.Duration, 0, len(pending))
	for _, s := range pending {
		delays = append(delays, s.d)
		s.f()
	}

	return delays
}

type fixture struct {
	registrar *fakeRegistrar
	view      *fakeView
	nav       *fakeNavigator
	timer     *manualTimer
	ctrl      *registerform.Controller
}

func newFixture() *fixture {
	f := &fixture{
		registrar: &fakeRegistrar{},
		view:      &fakeView{},
		nav:       &fakeNavigator{},
		timer:     &manualTimer{},
	}
	f.ctrl = registerform.NewController(f.registrar, f.view, f.nav, registerform.WithAfterFunc(f.timer.AfterFunc))

	return f
}

func validInput() registerform.Input {
	return registerform.Input{
		Email:           "a@b.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		PrivacyAccepted: true,
	}
}

func TestController_LocalValidationNeverCallsServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edit func(*registerform.Input)
		want string
	}{
		{name: "empty email", edit: func(in *registerform.Input) { in.Email = "" }, want: "All fields are required"},
		{name: "empty password", edit: func(in *registerform.Input) { in.Password = "" }, want: "All fields are required"},
		{name: "empty confirmation", edit: func(in *registerform.Input) { in.ConfirmPassword = "" }, want: "All fields are required"},
		{name: "all empty without privacy", edit: func(in *registerform.Input) { *in = registerform.Input{} }, want: "All fields are required"},
		{name: "privacy not accepted", edit: func(in *registerform.Input) { in.PrivacyAccepted = false }, want: "You must agree to the Privacy Policy"},
		{
			name: "privacy checked before email shape",
			edit: func(in *registerform.Input) { in.PrivacyAccepted = false; in.Email = "nope" },
			want: "You must agree to the Privacy Policy",
		},
		{name: "bad email", edit: func(in *registerform.Input) { in.Email = "a@b" }, want: "Please enter a valid email address"},
		{
			name: "five character password",
			edit: func(in *registerform.Input) { in.Password = "12345"; in.ConfirmPassword = "12345" },
			want: "Password must be at least 6 characters long",
		},
		{name: "mismatch", edit: func(in *registerform.Input) { in.ConfirmPassword = "secret2" }, want: "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			in := validInput()
			tt.edit(&in)

			err := f.ctrl.Submit(t.Context(), in)
			require.ErrorIs(t, err, domain.ErrValidation)

			assert.Equal(t, 0, f.registrar.callCount())
			assert.Equal(t, []string{tt.want}, f.view.errors)
			assert.Empty(t, f.view.busy)
			assert.Equal(t, registerform.StateIdle, f.ctrl.State())
		})
	}
}

func TestController_SuccessRedirectsAfterDelay(t *testing.T) {
	t.Parallel()

	f := newFixture()

	require.NoError(t, f.ctrl.Submit(t.Context(), validInput()))

	assert.Equal(t, registerform.StateSucceeded, f.ctrl.State())
	assert.Equal(t, []accountsvc.RegisterRequest{{Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1"}}, f.registrar.calls)
	assert.Equal(t, []bool{true, false}, f.view.busy)
	assert.Equal(t, "Registration successful! Redirecting...", f.view.success)
	assert.Empty(t, f.nav.paths, "navigation must wait for the delay")

	assert.Equal(t, []time.Duration{registerform.RedirectDelay}, f.timer.fire())
	assert.Equal(t, []string{registerform.LoginPath}, f.nav.paths)
	assert.Equal(t, 1500*time.Millisecond, registerform.RedirectDelay)
}

func TestController_StatusOnlySuccessReply(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	var (
		view   = &fakeView{}
		nav    = &fakeNavigator{}
		timer  = &manualTimer{}
		client = accountclient.NewHTTPClient(accountclient.HTTPClientConfig{BaseURL: srv.URL}, srv.Client())
		ctrl   = registerform.NewController(client, view, nav, registerform.WithAfterFunc(timer.AfterFunc))
	)

	require.NoError(t, ctrl.Submit(t.Context(), validInput()))

	assert.Equal(t, registerform.StateSucceeded, ctrl.State())
	assert.Empty(t, view.errors)
	assert.Equal(t, registerform.MsgSuccess, view.success)

	assert.Equal(t, []time.Duration{registerform.RedirectDelay}, timer.fire())
	assert.Equal(t, []string{registerform.LoginPath}, nav.paths)
}

func TestController_DuplicateEmailOffersLogin(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.registrar.err = &accountclient.ResponseError{StatusCode: 409, Message: "Email is already registered"}

	err := f.ctrl.Submit(t.Context(), validInput())
	require.Error(t, err)

	assert.Equal(t, registerform.StateFailed, f.ctrl.State())
	assert.Equal(t, []bool{true, false}, f.view.busy)
	assert.Empty(t, f.view.errors)
	assert.Equal(t, registerform.MsgDuplicateEmail, f.view.duplicate)
	require.NotNil(t, f.view.goToLogin)

	f.view.goToLogin()
	assert.Equal(t, []string{registerform.LoginPath}, f.nav.paths)

	assert.False(t, f.view.hidden)
	assert.Equal(t, []time.Duration{registerform.DuplicateNoticeDuration}, f.timer.fire())
	assert.True(t, f.view.hidden)
}

func TestController_OtherFailuresShowMessageOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message shown verbatim",
			err:  &accountclient.ResponseError{StatusCode: 400, Message: "password must be at least 8 characters long"},
			want: "password must be at least 8 characters long",
		},
		{
			name: "server failure",
			err:  &accountclient.ResponseError{StatusCode: 503, Message: "Failed to register user"},
			want: "Failed to register user",
		},
		{
			name: "reply without message",
			err:  &accountclient.ResponseError{StatusCode: 502},
			want: "Registration failed",
		},
		{
			name: "transport failure",
			err:  errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"),
			want: "Failed to register. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.registrar.err = tt.err

			require.Error(t, f.ctrl.Submit(t.Context(), validInput()))

			assert.Equal(t, registerform.StateFailed, f.ctrl.State())
			assert.Equal(t, []string{tt.want}, f.view.errors)
			assert.Empty(t, f.view.duplicate)
			assert.Nil(t, f.view.goToLogin)
			assert.Empty(t, f.nav.paths)
		})
	}
}

func TestController_RetryAfterFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.registrar.err = errors.New("network down")

	require.Error(t, f.ctrl.Submit(t.Context(), validInput()))
	assert.Equal(t, registerform.StateFailed, f.ctrl.State())

	f.registrar.m.Lock()
	f.registrar.err = nil
	f.registrar.m.Unlock()

	require.NoError(t, f.ctrl.Submit(t.Context(), validInput()))
	assert.Equal(t, registerform.StateSucceeded, f.ctrl.State())
	assert.Equal(t, 2, f.registrar.callCount())
}

func TestController_SingleSubmissionInFlight(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.registrar.release = make(chan struct{})

	done := make(chan error, 1)

	go func() {
		done <- f.ctrl.Submit(context.Background(), validInput())
	}()

	require.Eventually(t, func() bool {
		return f.ctrl.State() == registerform.StateSubmitting && f.registrar.callCount() == 1
	}, time.Second, time.Millisecond)

	err := f.ctrl.Submit(t.Context(), validInput())
	require.ErrorIs(t, err, registerform.ErrSubmitInFlight)
	assert.Equal(t, 1, f.registrar.callCount())

	close(f.registrar.release)
	require.NoError(t, <-done)
	assert.Equal(t, registerform.StateSucceeded, f.ctrl.State())
}

func TestLinks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/login", registerform.LoginLink.Path)
	assert.Equal(t, "/register", registerform.RegisterLink.Path)
	assert.NotEqual(t, registerform.LoginLink.Text, registerform.RegisterLink.Text)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", registerform.StateIdle.String())
	assert.Equal(t, "submitting", registerform.StateSubmitting.String())
	assert.Equal(t, "succeeded", registerform.StateSucceeded.String())
	assert.Equal(t, "failed", registerform.StateFailed.String())
	assert.Equal(t, "State(9)", registerform.State(9).String())
}
