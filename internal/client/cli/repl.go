package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// interactive reports whether r is a terminal; prompts are only printed then.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// repl reads commands line by line. Lines are read on a separate goroutine
// so that cancelling ctx ends the loop even while input is blocked.
func (a *App) repl(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	prompt := interactive(a.in)
	if prompt {
		fmt.Fprintln(a.out, "Welcome to nutrisync (type 'help' for commands)")
	}
	for {
		if prompt {
			fmt.Fprintf(a.out, "nutrisync (%s)> ", a.status())
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if a.Exec(ctx, line) {
				return nil
			}
		}
	}
}

// Exec runs a single command line and reports whether the shell should exit.
func (a *App) Exec(ctx context.Context, line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		fmt.Fprint(a.out, helpText)
	case "water":
		err = a.addWater(ctx, args)
	case "food":
		err = a.addFood(ctx, args)
	case "meal":
		err = a.addMeal(ctx, args)
	case "exercise":
		err = a.addExercise(ctx, args)
	case "habit":
		err = a.addHabit(ctx, args)
	case "done":
		err = a.toggleHabit(ctx, args)
	case "l", "list":
		err = a.list(ctx, args)
	case "habits":
		err = a.listHabits(ctx)
	case "delete", "rm":
		err = a.delete(ctx, args)
	case "sync":
		err = a.sync(ctx)
	case "status":
		a.printStatus()
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	if err != nil {
		fmt.Fprintln(a.out, errLabel, err)
	}
	return false
}

var errLabel = color.New(color.FgRed).Sprint("error:")

const helpText = `Commands:
  water <ml> [date]                          log water intake
  food <name> <kcal> [meal] [date]           log a food
  meal <name> <kcal> [meal] [date]           log a whole meal
  exercise <type> <minutes> [kcal] [date]    log exercise
  habit <name> [frequency] [date]            add a habit
  done <habit-id>                            toggle a habit's completion
  list [date]                                show logs for a day (default today)
  habits                                     show active habits
  delete <kind> <id>                         delete a record
  sync                                       sync now
  status                                     connectivity and last sync
  exit                                       quit
Dates are YYYY-MM-DD or phrases like "yesterday".
`
