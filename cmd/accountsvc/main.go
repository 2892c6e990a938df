package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/reelspro/reelspro/internal/infra/config"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/metrics"
	"github.com/reelspro/reelspro/internal/infra/transport/http"
	"github.com/reelspro/reelspro/internal/repo/store"
	"github.com/reelspro/reelspro/internal/svc/accountsvc"
	"github.com/reelspro/reelspro/internal/svc/notificationsvc"
)

const (
	appName = "reelspro"
	svcName = "accountsvc"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig     `envPrefix:"LOG_"`
	DB   store.Config             `envPrefix:"DB_"`
	HTTP http.HTTPTransportConfig `envPrefix:"HTTP_"`
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

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.accountsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", logging.Err(err))
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		//nolint:contextcheck
		if cerr := st.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
	}()

	m := metrics.New()

	accountSvc, err := accountsvc.NewAccountService(ctx, st.Accounts)
	if err != nil {
		return fmt.Errorf("new account service: %w", err)
	}
	defer accountSvc.Close()

	notificationSvc, err := notificationsvc.NewNotificationService(ctx, st.Notifications, m)
	if err != nil {
		return fmt.Errorf("new notification service: %w", err)
	}
	defer notificationSvc.Close()

	router := chi.NewRouter()
	accountsvc.NewHTTPTransport(accountSvc, m).Routes(router)
	notificationsvc.NewHTTPTransport(notificationSvc).Routes(router)
	router.Method("GET", "/metrics", m.Handler())

	log.InfoContext(ctx, "starting",
		"namespace", cfg.Namespace(),
		"backend", st.Backend,
		"addr", cfg.HTTP.ServerAddr,
	)

	if err := http.ListenAndServe(ctx, router, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
