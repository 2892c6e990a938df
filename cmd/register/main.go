package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/config"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/svc/accountsvc/accountclient"
	"github.com/reelspro/reelspro/internal/ui/registerform"
)

const (
	appName = "reelspro"
	svcName = "register"
)

type Config struct {
	config.EnvConfig

	Log    logging.LoggerConfig           `envPrefix:"LOG_"`
	Client accountclient.HTTPClientConfig `envPrefix:"ACCOUNT_"`
}

// terminalView prints form feedback to out.
type terminalView struct {
	out       io.Writer
	goToLogin func()
}

func (v *terminalView) SetBusy(busy bool) {
	if busy {
		fmt.Fprintln(v.out, "Registering...")
	}
}

func (v *terminalView) ShowError(msg string) {
	fmt.Fprintf(v.out, "error: %s\n", msg)
}

func (v *terminalView) ShowDuplicateEmail(msg string, goToLogin func()) {
	fmt.Fprintln(v.out, msg)
	v.goToLogin = goToLogin
}

func (v *terminalView) HideDuplicateEmail() {}

func (v *terminalView) ShowSuccess(msg string) {
	fmt.Fprintln(v.out, msg)
}

// terminalNavigator prints the navigation target and signals done.
type terminalNavigator struct {
	out  io.Writer
	done chan struct{}
	once sync.Once
}

func (n *terminalNavigator) Navigate(path string) {
	fmt.Fprintf(n.out, "-> %s\n", path)

	if path == registerform.LoginPath {
		fmt.Fprintf(n.out, "%s (%s)\n", registerform.RegisterLink.Text, registerform.RegisterLink.Path)
	}

	n.once.Do(func() { close(n.done) })
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)

	s, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}

	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.line(label)
	}

	fmt.Fprint(p.out, label)

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(b), nil
}

func (p *prompter) confirm(label string) (bool, error) {
	answer, err := p.line(label + " [y/N]: ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func readInput(p *prompter) (in registerform.Input, err error) {
	if in.Email, err = p.line("Email: "); err != nil {
		return in, err
	}

	if in.Password, err = p.secret("Password: "); err != nil {
		return in, err
	}

	if in.ConfirmPassword, err = p.secret("Confirm password: "); err != nil {
		return in, err
	}

	if in.PrivacyAccepted, err = p.confirm("I agree to the Privacy Policy"); err != nil {
		return in, err
	}

	return in, nil
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.register")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", logging.Err(err))
		}
	}()

	var (
		out  = os.Stdout
		view = &terminalView{out: out}
		nav  = &terminalNavigator{out: out, done: make(chan struct{})}
		p    = &prompter{in: bufio.NewReader(os.Stdin), out: out, fd: int(os.Stdin.Fd())}
	)

	client := accountclient.NewHTTPClient(cfg.Client, nil)
	ctrl := registerform.NewController(client, view, nav)

	for {
		in, err := readInput(p)
		if err != nil {
			return err
		}

		err = ctrl.Submit(ctx, in)
		if err == nil {
			break
		}

		if view.goToLogin != nil {
			login, cerr := p.confirm("Go to login instead?")
			if cerr != nil {
				return cerr
			}

			if login {
				view.goToLogin()

				return nil
			}

			view.goToLogin = nil
		}

		if !errors.Is(err, domain.ErrValidation) && ctrl.State() != registerform.StateFailed {
			return err
		}

		fmt.Fprintln(out, "Please try again.")
		fmt.Fprintf(out, "%s (%s)\n", registerform.LoginLink.Text, registerform.LoginLink.Path)
	}

	select {
	case <-nav.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
