package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/reminder/internal/app"
	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/logging"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source/github"
	"github.com/nhle/reminder/internal/store"
	appsync "github.com/nhle/reminder/internal/sync"
	"github.com/nhle/reminder/internal/theme"
	"github.com/nhle/reminder/internal/ui/accountform"
)

const tokenEnv = "REMINDER_TOKEN"

type options struct {
	configPath    string
	once          bool
	add           bool
	addAccount    string
	removeAccount string
	listAccounts  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "reminder:", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flags := pflag.NewFlagSet("reminder", pflag.ContinueOnError)
	flags.StringVarP(&opts.configPath, "config", "c", model.DefaultConfigPath(), "path to configuration file")
	flags.BoolVar(&opts.once, "once", false, "refresh every account once, print the inbox and exit")
	flags.BoolVar(&opts.add, "add", false, "add an account interactively")
	flags.StringVar(&opts.addAccount, "add-account", "", "add an account (token from $"+tokenEnv+" or a prompt)")
	flags.StringVar(&opts.removeAccount, "remove-account", "", "remove an account and its stored token")
	flags.BoolVar(&opts.listAccounts, "list-accounts", false, "list accounts with their last sync outcome")
	flags.Int("interval", 0, "seconds between automatic refreshes")
	flags.String("theme", "", "color theme (default, mono)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := model.NewViper(opts.configPath)
	if f := flags.Lookup("interval"); f.Changed {
		_ = v.BindPFlag("refresh.interval_sec", f)
	}
	if f := flags.Lookup("theme"); f.Changed {
		_ = v.BindPFlag("display.theme", f)
	}
	cfg, err := model.LoadConfigFrom(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := theme.Apply(cfg.Display.Theme); err != nil {
		logger.Warn("unknown theme, using default", zap.String("theme", cfg.Display.Theme))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := credential.OpenKeyring(filepath.Join(filepath.Dir(cfg.Storage.DatabasePath), "keyring"))
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch {
	case opts.add || opts.addAccount != "":
		return addAccount(ctx, app.Accounts{Store: db, Creds: creds, Log: logger}, opts.addAccount)
	case opts.removeAccount != "":
		if err := (app.Accounts{Store: db, Creds: creds, Log: logger}).Remove(ctx, opts.removeAccount); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", opts.removeAccount)
		return nil
	case opts.listAccounts:
		return listAccounts(ctx, db)
	}

	fetcher := github.NewAdapter(github.Options{
		BaseURL:        cfg.GitHub.BaseURL,
		PerPage:        cfg.GitHub.PerPage,
		IncludeReviews: cfg.GitHub.IncludeReviews,
	})

	clock := clockwork.NewRealClock()
	registry := appsync.NewRegistry(fetcher, creds, appsync.Config{
		Interval: cfg.Refresh.Interval(),
		Timeout:  cfg.Refresh.Timeout(),
		Clock:    clock,
		Logger:   logger,
		Recorder: db,
	})
	defer registry.Close()

	accounts := app.Accounts{Store: db, Creds: creds, Registry: registry, Log: logger}

	if opts.once {
		return runOnce(ctx, accounts)
	}

	poller := appsync.NewPoller(registry, cfg.Refresh.Tick(), clock, logger)
	p := tea.NewProgram(app.New(accounts, poller, *cfg, opts.configPath), tea.WithAltScreen())
	_, err = p.Run()
	poller.Stop()
	return err
}

func runOnce(ctx context.Context, accounts app.Accounts) error {
	n, err := accounts.Load(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("no accounts configured; add one with --add-account LOGIN")
		return nil
	}

	accounts.Registry.RefreshAll(true)
	accounts.Registry.Wait()

	views := accounts.Registry.Views()
	if err := app.WriteSummary(os.Stdout, views); err != nil {
		return err
	}
	if app.AllFailed(views) {
		return errors.New("every account failed to refresh")
	}
	return nil
}

// addAccount stores an account, or replaces the token of an existing one.
// The token comes from the environment when set, otherwise from a prompt.
func addAccount(ctx context.Context, accounts app.Accounts, login string) error {
	stored, err := accounts.Store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	existing := make([]string, 0, len(stored))
	for _, acc := range stored {
		existing = append(existing, acc.Login)
	}

	token := os.Getenv(tokenEnv)
	switch {
	case login == "":
		if login, token, err = accountform.PromptAdd(existing); err != nil {
			return err
		}
	case token == "":
		if _, err := appsync.NormalizeLogin(login); err != nil {
			return err
		}
		for _, e := range existing {
			if strings.EqualFold(e, login) {
				fmt.Printf("%s exists; the new token replaces the stored one\n", e)
			}
		}
		if token, err = accountform.PromptToken(login); err != nil {
			return err
		}
	}

	added, err := accounts.Add(ctx, login, token)
	if err != nil {
		return err
	}
	fmt.Printf("added %s\n", added)
	return nil
}

func listAccounts(ctx context.Context, db store.Store) error {
	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		return err
	}
	runs, err := db.LastSyncRuns(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Println("no accounts")
		return nil
	}
	for _, acc := range accounts {
		run, ok := runs[acc.Login]
		if !ok {
			fmt.Printf("%-20s never synced\n", acc.Login)
			continue
		}
		line := fmt.Sprintf("%-20s %-10s %s", acc.Login, run.Outcome, run.FinishedAt.Local().Format(time.DateTime))
		if run.Error != "" {
			line += "  " + run.Error
		}
		fmt.Println(line)
	}
	return nil
}
