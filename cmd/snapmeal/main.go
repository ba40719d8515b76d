package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/auth"
	"github.com/snapmeal/snapmeal-go/internal/config"
	"github.com/snapmeal/snapmeal-go/internal/dbmigrate"
	"github.com/snapmeal/snapmeal-go/internal/session"
	"github.com/snapmeal/snapmeal-go/internal/storage"
)

// app carries everything a command needs once the root command has run.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   storage.TokenStore
	session *session.Session
	api     *apiclient.Client
	auth    *auth.Service

	jsonOut bool
	out     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "warning: close token store: %v\n", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", apiclient.UserMessage(err))
		os.Exit(1)
	}
}

// close releases the token store opened by setup. It is safe to call more than once.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "snapmeal",
		Short:         "SnapMeal meal log and challenge client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), verbose)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write diagnostic logs to stderr")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWithdrawCmd(a),
		newMeCmd(a),
		newHomeCmd(a),
		newRecommendCmd(a),
		newMealsCmd(a),
		newAnalyzeCmd(a),
		newReportCmd(a),
		newChallengesCmd(a),
		newSchedulerCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context, verbose bool) error {
	a.cfg = config.Load()

	logOut := io.Discard
	if verbose || strings.EqualFold(a.cfg.LogLevel, "debug") {
		logOut = os.Stderr
	}
	a.logger = log.New(logOut, "", log.LstdFlags)

	printStartupBanner(a.logger, a.cfg)

	if err := validateProductionConfig(a.cfg); err != nil {
		return err
	}

	if a.cfg.RunMigrationsOnStartup && a.cfg.TokenStore == config.TokenStorePostgres {
		dbURL, source, err := dbmigrate.SelectDatabaseURL(a.cfg, false)
		if err != nil {
			return fmt.Errorf("startup migrations: %w", err)
		}
		a.logger.Printf("INFO migrate: startup up using=%s", source)
		if err := dbmigrate.Run("up", dbURL); err != nil {
			return fmt.Errorf("startup migrations: %w", err)
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, _, err := session.OpenTokenStore(openCtx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	a.session = session.New(store, a.logger)
	if err := a.session.Restore(openCtx); err != nil {
		a.logger.Printf("WARN session: restore_failed err=%v", err)
	}

	a.api = apiclient.NewFromConfig(a.cfg, a.session, a.logger)
	a.auth = auth.NewService(a.api, a.session, a.logger)
	return nil
}

// today returns the current date in the configured time zone.
func (a *app) today() string {
	return time.Now().In(a.cfg.Location()).Format("2006-01-02")
}

func (a *app) requireSession() error {
	if !a.session.Authenticated() {
		return fmt.Errorf("not signed in, run `snapmeal login` first: %w", apiclient.ErrNoToken)
	}
	return nil
}
