package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/questkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/questkeeper/internal/config"
	"github.com/dmitrijs2005/questkeeper/internal/event"
	"github.com/dmitrijs2005/questkeeper/internal/services"
)

// NewRootCommand builds the questkeeper command tree. Without a subcommand
// it opens the interactive REPL.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "questkeeper",
		Short: "Track daily quest cooldowns across game accounts",
		Long: `questkeeper keeps a list of game accounts, each with a daily quest.
Mark an account done and it stays on cooldown for 22 hours by default; when the
cooldown is over the account becomes ready again and an alert is shown.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runRoot,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newListCmd(),
		newStatusCmd(),
		newAddCmd(),
		newSetCmd(),
		newRefCmd("done", "Mark an account's daily quest done", (*App).Done),
		newRefCmd("undo", "Uncheck an account", (*App).Undo),
		newRefCmd("remove", "Delete an account", (*App).Remove, "rm"),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := NewApp(ctx, cfg, cmd.OutOrStdout(), cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		return errors.New(describe(err))
	}
	return nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	ctx := cmd.Context()
	a, err := NewApp(ctx, cfg, rl.Stdout(), cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer a.Close()

	a.Root(ctx, rl)
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List accounts with their cooldowns",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error { return a.List(ctx) })
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print each account's state, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error { return a.Status(ctx) })
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var assignments []string
			for _, name := range []string{"username", "password", "level", "xp", "xp-max"} {
				if !cmd.Flags().Changed(name) {
					continue
				}
				v, _ := cmd.Flags().GetString(name)
				assignments = append(assignments, name+"="+v)
			}
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Add(ctx, assignments)
			})
		},
	}
	cmd.Flags().String("username", "", "account username")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().String("level", "", "account level")
	cmd.Flags().String("xp", "", "current xp")
	cmd.Flags().String("xp-max", "", "xp needed for the next level")
	return cmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set REF FIELD=VALUE...",
		Short: "Change account fields (username, password, level, xp, xpmax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Set(ctx, args[0], args[1:])
			})
		},
	}
}

func newRefCmd(use, short string, fn func(*App, context.Context, string) error, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use + " REF",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return fn(a, ctx, args[0])
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the countdowns and print an alert when an account is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Watch(ctx)
			})
		},
	}
}

// Watch runs the countdowns until ctx is done, printing the summary after
// every change and a notice when a cooldown has less than the urgent
// threshold left.
func (a *App) Watch(ctx context.Context) error {
	a.bus.Subscribe(event.CountdownTick, a.onTick)
	a.bus.Subscribe(event.AccountsChanged, func(e event.Event) {
		fmt.Fprintln(a.out, summaryLine(services.Summary{Active: e.Active, Total: e.Total}))
	})

	s := a.tracker.Summary()
	fmt.Fprintf(a.out, "Watching %d accounts (%s). Press Ctrl+C to stop.\n", s.Total, summaryLine(s))
	a.tracker.Start()

	<-ctx.Done()
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
