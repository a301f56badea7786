package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
	"github.com/jwhitman/tally/internal/ops"
	"github.com/jwhitman/tally/internal/vault"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "tally",
		Usage:   "Activity clocks in your markdown notes",
		Version: Version,
		Commands: []*cli.Command{
			inCmd(env),
			outCmd(env),
			cancelCmd(env),
			startCmd(env),
			addTaskCmd(env),
			noteCmd(env),
			headingsCmd(env),
			activeCmd(env),
			reportCmd(env),
			goalsCmd(env),
			reindexCmd(env),
			watchCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// noteFlag is shared by every command that edits a note.
func noteFlag() cli.Flag {
	return &cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Vault-relative note path (defaults to the configured default note)"}
}

// inCmd creates the in command.
func inCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "in",
		Usage:     "Clock in on a task",
		ArgsUsage: "[task-id]",
		Flags:     []cli.Flag{noteFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.ClockIn(env, ops.ClockInInput{
				Note:   c.String("note"),
				TaskID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// outCmd creates the out command.
func outCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "out",
		Usage:     "Clock out of an activity",
		ArgsUsage: "[activity]",
		Flags: []cli.Flag{
			noteFlag(),
			&cli.StringFlag{Name: "task", Aliases: []string{"t"}, Usage: "Linked task id"},
			&cli.StringFlag{Name: "start", Usage: "Exact open-clock start timestamp"},
			&cli.StringFlag{Name: "notes", Usage: "Closing note to record"},
			&cli.Float64Flag{Name: "quality", Usage: "Quality rating to record"},
		},
		Action: func(c *cli.Context) error {
			attrs := map[string]any{}
			if notes := c.String("notes"); notes != "" {
				attrs["notes"] = notes
			}
			if c.IsSet("quality") {
				attrs["quality"] = c.Float64("quality")
			}

			output, err := ops.ClockOut(env, ops.ClockOutInput{
				Note:     c.String("note"),
				Activity: c.Args().First(),
				Start:    c.String("start"),
				TaskID:   c.String("task"),
				Attrs:    attrs,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// cancelCmd creates the cancel command.
func cancelCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "Discard a task's open clock",
		ArgsUsage: "<task-id>",
		Flags:     []cli.Flag{noteFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Cancel(env, ops.CancelInput{
				Note:   c.String("note"),
				TaskID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// startCmd creates the start command.
func startCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Begin a free-standing activity log",
		ArgsUsage: "<activity>",
		Flags:     []cli.Flag{noteFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Start(env, ops.StartInput{
				Note:     c.String("note"),
				Activity: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// addTaskCmd creates the add-task command.
func addTaskCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "add-task",
		Usage:     "Link a task id to the open activity",
		ArgsUsage: "<task-id>",
		Flags:     []cli.Flag{noteFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.AddTask(env, ops.AddTaskInput{
				Note:   c.String("note"),
				TaskID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// noteCmd creates the note command.
func noteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "note",
		Usage:     "Append a note to an activity",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			noteFlag(),
			&cli.StringFlag{Name: "activity", Aliases: []string{"a"}, Usage: "Activity name (defaults to the open activity)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Note(env, ops.NoteInput{
				Note:     c.String("note"),
				Activity: c.String("activity"),
				Text:     c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// headingsCmd creates the headings command.
func headingsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "headings",
		Usage: "List a note's heading outline",
		Flags: []cli.Flag{noteFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Headings(env, ops.HeadingsInput{Note: c.String("note")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// activeCmd creates the active command.
func activeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "active",
		Usage: "List open clocks with live elapsed time",
		Action: func(c *cli.Context) error {
			output, err := ops.Active(env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Aggregate activity durations for a day or week",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day to report, YYYY-MM-DD (defaults to today)"},
			&cli.BoolFlag{Name: "week", Aliases: []string{"w"}, Usage: "Report the ISO week containing the date"},
			&cli.BoolFlag{Name: "by-day", Usage: "Include a per-day breakdown (week only)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ReportInput{Date: c.String("date"), ByDay: c.Bool("by-day")}

			var output *ops.ReportOutput
			var err error
			if c.Bool("week") {
				output, err = ops.ReportWeek(env, input)
			} else {
				output, err = ops.ReportDay(env, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// goalsCmd creates the goals command.
func goalsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "goals",
		Usage: "Measure the week's totals against the goals note",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Any day inside the week, YYYY-MM-DD (defaults to today)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Goals(env, ops.GoalsInput{Date: c.String("date")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reindexCmd creates the reindex command.
func reindexCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the report index from every note",
		Action: func(c *cli.Context) error {
			output, err := ops.Reindex(env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the vault and keep the report index fresh",
		Action: func(c *cli.Context) error {
			if _, err := ops.Reindex(env); err != nil {
				return outputError(err)
			}

			w, err := vault.NewWatcher(env.Vault)
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scanner := index.NewScanner(env.Vault, env.DB, env.Cfg)
			log.Printf("tally: watching %s", env.Vault.Root())
			err = w.Run(ctx, func(notePath string) {
				if err := scanner.ScanFile(notePath); err != nil {
					log.Printf("tally: reindex %s: %v", notePath, err)
					return
				}
				log.Printf("tally: reindexed %s", notePath)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

// outputJSON formats output as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.TallyError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
