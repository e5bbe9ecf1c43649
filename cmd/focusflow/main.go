// Command focusflow is a personal task manager: a terminal UI, an HTTP
// API and a few scripting subcommands over the same task store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/focusflow/internal/app"
	"github.com/nhle/focusflow/internal/credential"
	"github.com/nhle/focusflow/internal/logging"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/server"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/theme"
)

const (
	Version = "0.1.0"
	appName = "focusflow"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Personal task manager with sub-items and progress tracking",
		Long: `FocusFlow keeps your tasks, their sub-items and progress in one place.

Run without arguments to open the terminal UI. Use "serve" to expose the
same tasks over HTTP.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		tasksCmd(&configPath),
		logoutCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func runTUI(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.NewFile(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := theme.Apply(cfg.Display.Theme); err != nil {
		logger.Warn("ignoring display.theme", "error", err)
	}

	svc, err := openServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	sessions, err := credential.OpenSessions()
	if err != nil {
		// Without a keyring the user signs in on every start.
		logger.Warn("keyring unavailable, sessions will not persist", "error", err)
		sessions = nil
	}

	m := app.New(app.Deps{
		Auth:         svc.auth,
		Tasks:        svc.tasks,
		Sessions:     sessions,
		PollInterval: cfg.Display.PollInterval(),
		Logger:       logger,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, cfg.Log)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			svc, err := openServices(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("FocusFlow API ready", "version", Version, "addr", cfg.Server.Addr)
			return server.New(svc.auth, svc.tasks, logger).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func tasksCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with tasks from the command line",
	}

	var (
		priority string
		done     string
		query    string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the signed-in user's tasks with their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, closer, err := logging.NewFile(cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()

			svc, err := openServices(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			sessions, err := credential.OpenSessions()
			if err != nil {
				return err
			}
			token, err := sessions.Load()
			if errors.Is(err, credential.ErrNoSession) {
				return errors.New("not signed in; run focusflow and sign in first")
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			user, err := svc.auth.Authenticate(ctx, token)
			if err != nil {
				return fmt.Errorf("session expired, sign in again: %w", err)
			}

			var filter store.TaskFilter
			if priority != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				filter.Priority = &p
			}
			if done != "" {
				b, err := strconv.ParseBool(done)
				if err != nil {
					return fmt.Errorf("--done: %w", err)
				}
				filter.Complete = &b
			}
			if query != "" {
				filter.Query = &query
			}
			filter.SortBy = "priority"

			return printTasks(ctx, cmd, svc, user.ID, filter)
		},
	}
	list.Flags().StringVar(&priority, "priority", "", "Only tasks of this priority (Alta/High, Média/Medium, Baixa/Low)")
	list.Flags().StringVar(&done, "done", "", "Only complete (true) or open (false) tasks")
	list.Flags().StringVarP(&query, "search", "s", "", "Search title and description")

	cmd.AddCommand(list)
	return cmd
}

func printTasks(ctx context.Context, cmd *cobra.Command, svc *services, owner string, filter store.TaskFilter) error {
	list, err := svc.tasks.List(ctx, owner, filter)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DONE\tPRIORITY\tPROGRESS\tSUB-ITEMS\tTITLE")
	for _, t := range list {
		mark := " "
		if t.Complete {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%d%%\t%d/%d\t%s\n",
			mark, t.Priority.Label(), t.Progress, t.CompletedCount(), len(t.SubItems), t.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum, err := svc.tasks.Summary(ctx, owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d tasks complete, average progress %d%%\n",
		sum.Completed, sum.Total, sum.AverageProgress)
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := credential.OpenSessions()
			if err != nil {
				return err
			}
			if err := sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
