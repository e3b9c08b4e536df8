// Package app wires the configuration, adapters and use cases together for
// the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toggl-float-bridge/internal/adapter/atlassian"
	fl "toggl-float-bridge/internal/adapter/float"
	msql "toggl-float-bridge/internal/adapter/mysql"
	tg "toggl-float-bridge/internal/adapter/toggl"
	"toggl-float-bridge/internal/config"
	"toggl-float-bridge/internal/migrate"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/usecase"
)

// ErrNoPerson is returned by person-scoped operations before a Float person
// has been selected.
var ErrNoPerson = errors.New("no Float person selected; run `toggl-float-bridge people` and `people select <id>` first")

// App holds the wired adapters. One App serves one CLI invocation; the
// settings snapshot is taken once at construction.
type App struct {
	log   *slog.Logger
	cfg   config.Settings
	store *config.Store
	sink  ports.LogSink

	toggl   ports.TogglClient
	float   ports.FloatClient
	archive ports.Archive // nil without a MySQL DSN

	archiveClose func() error
}

// New loads the settings and constructs the remote clients. The archive sink
// is only opened (and its schema migrated) when a MySQL DSN is configured.
func New(ctx context.Context, log *slog.Logger, store *config.Store) (*App, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	a := &App{
		log:   log,
		cfg:   cfg,
		store: store,
		sink:  NewConsoleSink(log),
		toggl: tg.NewClient(cfg.Toggl.BaseURL, cfg.Toggl.APIToken, log),
		float: fl.NewClient(cfg.Float.BaseURL, cfg.Float.APIToken, log),
	}

	if cfg.MySQL.DSN != "" {
		if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
			return nil, fmt.Errorf("migrating archive schema: %w", err)
		}
		archive, err := msql.NewClient(ctx, cfg.MySQL.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		a.archive = archive
		a.archiveClose = archive.Close
	}
	return a, nil
}

// Close releases the archive connection if one was opened.
func (a *App) Close() error {
	if a.archiveClose != nil {
		return a.archiveClose()
	}
	return nil
}

// Sync runs the full taxonomy sync.
func (a *App) Sync(ctx context.Context) error {
	if err := config.ValidateSync(a.cfg); err != nil {
		return err
	}
	return usecase.NewSyncOrchestrator(a.toggl, a.float, a.archive, a.sink, a.log).Run(ctx)
}

// Push copies the given date's Toggl entries into Float.
func (a *App) Push(ctx context.Context, date time.Time) error {
	if err := config.ValidateSync(a.cfg); err != nil {
		return err
	}
	if a.cfg.Float.PersonID == 0 {
		return ErrNoPerson
	}
	p := usecase.NewEntryPusher(a.toggl, a.float, a.archive, a.store, a.sink, a.log, a.cfg.Float.PersonID)
	return p.Run(ctx, date)
}

// Worklog submits the given date's prefixed entries as Jira worklogs.
func (a *App) Worklog(ctx context.Context, date time.Time) error {
	if err := config.ValidateAtlassian(a.cfg); err != nil {
		return err
	}
	at := atlassian.NewClient("https://"+a.cfg.Atlassian.Host, a.cfg.Atlassian.Email, a.cfg.Atlassian.APIToken, a.log)
	w := usecase.NewWorklogPusher(a.toggl, at, a.sink, a.log,
		a.cfg.Atlassian.IssuePrefix, a.cfg.Atlassian.QuoteFactor, a.cfg.Atlassian.RoundToQuarterHour)
	return w.Run(ctx, date)
}

// Missing reports recent dates with tracked time that was never pushed.
func (a *App) Missing(ctx context.Context) error {
	if err := config.ValidateSync(a.cfg); err != nil {
		return err
	}
	if a.cfg.Float.PersonID == 0 {
		return ErrNoPerson
	}
	var at ports.AtlassianClient
	prefix := ""
	if config.ValidateAtlassian(a.cfg) == nil {
		at = atlassian.NewClient("https://"+a.cfg.Atlassian.Host, a.cfg.Atlassian.Email, a.cfg.Atlassian.APIToken, a.log)
		prefix = a.cfg.Atlassian.IssuePrefix
	}
	g := usecase.NewGapReporter(a.toggl, a.float, at, a.sink, a.log, prefix, a.cfg.Float.PersonID)
	return g.Report(ctx)
}

// Start begins tracking time on the mirror of the given Float project or
// phase id.
func (a *App) Start(ctx context.Context, canonicalID int64, tag string) error {
	if a.cfg.Toggl.APIToken == "" {
		return fmt.Errorf("%w: Toggl API token", config.ErrMissingCredential)
	}
	return usecase.NewTimerStarter(a.toggl, a.sink, a.log).Run(ctx, canonicalID, tag)
}

// Overview prints this week's Float schedule.
func (a *App) Overview(ctx context.Context) error {
	if a.cfg.Float.APIToken == "" {
		return fmt.Errorf("%w: Float API token", config.ErrMissingCredential)
	}
	if a.cfg.Float.PersonID == 0 {
		return ErrNoPerson
	}
	return usecase.NewWeeklyOverview(a.float, a.sink, a.log, a.cfg.Float.PersonID).Report(ctx)
}

// People lists the Float people.
func (a *App) People(ctx context.Context) error {
	if a.cfg.Float.APIToken == "" {
		return fmt.Errorf("%w: Float API token", config.ErrMissingCredential)
	}
	return usecase.NewPersonPicker(a.float, a.store, a.sink, a.log).List(ctx)
}

// SelectPerson persists the given Float person id.
func (a *App) SelectPerson(ctx context.Context, id int64) error {
	if a.cfg.Float.APIToken == "" {
		return fmt.Errorf("%w: Float API token", config.ErrMissingCredential)
	}
	return usecase.NewPersonPicker(a.float, a.store, a.sink, a.log).Select(ctx, id)
}
