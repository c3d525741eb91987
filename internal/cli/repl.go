package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dmitrijs2005/questkeeper/internal/notify"
)

const replPrompt = "qk> "

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Summary(ctx context.Context) error
	Add(ctx context.Context, assignments []string) error
	Edit(ctx context.Context, ref string) error
	Set(ctx context.Context, ref string, assignments []string) error
	Done(ctx context.Context, ref string) error
	Undo(ctx context.Context, ref string) error
	Remove(ctx context.Context, ref string) error
	Notify(ctx context.Context) error
}

const helpText = `Available commands:
  list | l                   show accounts and countdowns
  add [field=value ...]      add an account
  edit <ref>                 edit an account field by field
  set <ref> field=value ...  change fields (username, password, level, xp, xpmax)
  done <ref>                 mark today's quest done and start the cooldown
  undo <ref>                 uncheck an account
  remove | rm <ref>          delete an account
  summary                    show how many accounts are done
  notify                     turn ready alerts on or off
  exit | quit                leave the program
<ref> is a row number, an id or a unique id prefix.`

// runREPL reads lines with readLine and dispatches them to a until the
// input ends or the user types exit or quit.
//
// A readline.ErrInterrupt (Ctrl+C) does not leave the loop. Command errors
// are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, readLine func() (string, error)) {
	for {
		line, err := readLine()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				printlnFn("Use 'exit' or 'quit' to exit the program.")
				continue
			}
			if !errors.Is(err, io.EOF) {
				printlnFn("Error:", err)
			}
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "list":
			err = a.List(ctx)

		case "summary":
			err = a.Summary(ctx)

		case "add":
			err = a.Add(ctx, args)

		case "edit":
			if len(args) != 1 {
				printlnFn("Usage: edit <ref>")
				continue
			}
			err = a.Edit(ctx, args[0])

		case "set":
			if len(args) < 2 {
				printlnFn("Usage: set <ref> field=value ...")
				continue
			}
			err = a.Set(ctx, args[0], args[1:])

		case "done", "undo", "remove", "rm":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <ref>", cmd))
				continue
			}
			switch cmd {
			case "done":
				err = a.Done(ctx, args[0])
			case "undo":
				err = a.Undo(ctx, args[0])
			default:
				err = a.Remove(ctx, args[0])
			}

		case "notify":
			err = a.Notify(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(describe(err))
		}
	}
}

// Root runs the interactive session: it starts the countdowns, prints the
// welcome banner and blocks in the REPL until the user leaves.
func (a *App) Root(ctx context.Context, rl *readline.Instance) {
	a.readLine = func(prompt string) (string, error) {
		rl.SetPrompt(prompt + " ")
		defer rl.SetPrompt(replPrompt)
		line, err := rl.Readline()
		return strings.TrimSpace(line), err
	}

	fmt.Fprintln(a.out, "Welcome to questkeeper (type 'help' for commands)")
	if a.notifier.Permission() == notify.Undetermined {
		fmt.Fprintln(a.out, "Tip: type 'notify' to get an alert when a daily quest is ready.")
	}

	a.tracker.Start()
	_ = a.List(ctx)

	runREPL(ctx, a, rl.Readline)
}
