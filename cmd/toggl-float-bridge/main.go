package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"toggl-float-bridge/internal/app"
	"toggl-float-bridge/internal/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "toggl-float-bridge",
	Short: "Reconciles time tracking between Toggl, Float and Jira",
	Long: `toggl-float-bridge mirrors the Float project/phase taxonomy into Toggl,
pushes tracked days back to Float as logged time, and submits prefixed
entries as Jira worklogs. Credentials live in
~/.toggl-float-bridge/config.json; environment variables override them.`,
	SilenceUsage: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror Float projects, phases and task tags into Toggl",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Sync(cmd.Context())
	},
}

var pushCmd = &cobra.Command{
	Use:   "push [date]",
	Short: "Push a day's Toggl entries to Float as logged time",
	Long: `Push copies the given date's Toggl entries (default: today) into Float.
A date that already has logged time in Float is refused so repeated pushes
never double-log a day.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Push(cmd.Context(), date)
	},
}

var worklogCmd = &cobra.Command{
	Use:   "worklog [date]",
	Short: "Submit a day's prefixed entries as Jira worklogs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Worklog(cmd.Context(), date)
	},
}

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List recent dates with tracked time not yet pushed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Missing(cmd.Context())
	},
}

var startTag string

var startCmd = &cobra.Command{
	Use:   "start <float-id>",
	Short: "Start a Toggl timer on the mirror of a Float project or phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid Float id %q", args[0])
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Start(cmd.Context(), id, startTag)
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show this week's Float schedule grouped by project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Overview(cmd.Context())
	},
}

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List Float people",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.People(cmd.Context())
	},
}

var peopleSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the Float person to track time as",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid person id %q", args[0])
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.SelectPerson(cmd.Context(), id)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	startCmd.Flags().StringVar(&startTag, "tag", "", "Toggl tag for the new entry")
	peopleCmd.AddCommand(peopleSelectCmd)
	rootCmd.AddCommand(syncCmd, pushCmd, worklogCmd, missingCmd, startCmd, overviewCmd, peopleCmd)
}

// newApp builds the logger, loads the settings and wires the adapters.
func newApp(cmd *cobra.Command) (*app.App, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	store, err := config.NewStore()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), logger, store)
}

// parseDateArg reads an optional date argument (RFC3339 or YYYY-MM-DD),
// defaulting to today.
func parseDateArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, args[0]); err == nil {
		return t, nil
	}
	if d, err := time.Parse(time.DateOnly, args[0]); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339 or YYYY-MM-DD", args[0])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
