package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dayline/internal/config"
	"dayline/internal/db"
	"dayline/internal/domain"
	"dayline/internal/engine"
	"dayline/internal/migrate"
	"dayline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "dl",
	Short: "Dayline CLI",
	Long: `Dayline is a personal kanban, task and agenda manager.
- Workspace: the .dayline directory holding the database; dayline.yml next to it holds config.
- Spaces: two fixed partitions (work and personal by default); every board and habit lives in one.
- Boards and columns: columns keep an explicit task order array that the UI drags against.
- Tasks: due dates, labels, subtasks, recurrence patterns; completing a recurring task spawns the next occurrence.
- Carry-over: push unfinished tasks to end_of_today, tomorrow, next_week, end_of_month or a custom date.
- Agenda: tasks and habits merged into day and week views, bucketed by time of day.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DAYLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("space", "", "space filter (e.g. work, personal)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("space", rootCmd.PersistentFlags().Lookup("space"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(columnCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(habitCmd())
	rootCmd.AddCommand(agendaCmd())
	rootCmd.AddCommand(carryOverCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default dayline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	})
	return cfg
}

func boardCmd() *cobra.Command {
	board := &cobra.Command{Use: "board", Short: "Manage boards"}
	board.AddCommand(boardCreateCmd())
	board.AddCommand(boardListCmd())
	board.AddCommand(boardShowCmd())
	board.AddCommand(boardDeleteCmd())
	return board
}

func boardCreateCmd() *cobra.Command {
	var name, space string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				b, err := e.CreateBoard(ctx, name, space)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "board name")
	cmd.Flags().StringVar(&space, "space", "", "space the board lives in")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("space")
	return cmd
}

func boardListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				boards, err := e.ListBoards(ctx, viper.GetString("space"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(boards)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Space", "Columns"})
				for _, b := range boards {
					tw.AppendRow(table.Row{b.ID, b.Name, b.Space, len(b.ColumnOrder)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func boardShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a board with ordered columns and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.Board(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				fmt.Printf("%s (%s)\n", view.Name, view.Space)
				for _, col := range view.Columns {
					limit := ""
					if col.WIPLimit != nil {
						limit = fmt.Sprintf(" [%d/%d]", len(col.TaskOrder), *col.WIPLimit)
						if col.WIPExceeded {
							limit += " over limit"
						}
					}
					fmt.Printf("\n%s%s  (%s)\n", col.Name, limit, col.ID)
					for _, t := range col.Tasks {
						marker := " "
						if t.Done {
							marker = "x"
						}
						due := ""
						if t.DueDate != nil {
							due = "  due " + *t.DueDate
						}
						fmt.Printf("  [%s] %s%s  (%s)\n", marker, t.Title, due, t.ID)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func boardDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteBoard(ctx, args[0])
			})
		},
	}
	return cmd
}

func columnCmd() *cobra.Command {
	col := &cobra.Command{Use: "column", Short: "Manage columns"}
	col.AddCommand(columnCreateCmd())
	col.AddCommand(columnUpdateCmd())
	col.AddCommand(columnDeleteCmd())
	col.AddCommand(columnMoveCmd())
	return col
}

func columnCreateCmd() *cobra.Command {
	var board, name string
	var wip int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a column",
		RunE: func(cmd *cobra.Command, args []string) error {
			var wipPtr *int
			if cmd.Flags().Changed("wip") {
				wipPtr = &wip
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateColumn(ctx, board, name, wipPtr)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&board, "board", "", "board id")
	cmd.Flags().StringVar(&name, "name", "", "column name")
	cmd.Flags().IntVar(&wip, "wip", 0, "WIP limit (advisory)")
	_ = cmd.MarkFlagRequired("board")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func columnUpdateCmd() *cobra.Command {
	var name string
	var wip int
	var clearWIP bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a column or change its WIP limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var namePtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			var wipPtr *int
			if cmd.Flags().Changed("wip") {
				wipPtr = &wip
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateColumn(ctx, args[0], namePtr, wipPtr, clearWIP)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().IntVar(&wip, "wip", 0, "WIP limit")
	cmd.Flags().BoolVar(&clearWIP, "clear-wip", false, "remove the WIP limit")
	return cmd
}

func columnDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an empty column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteColumn(ctx, args[0])
			})
		},
	}
	return cmd
}

func columnMoveCmd() *cobra.Command {
	var board string
	var index int
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a column to an index within its board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				b, err := e.ReorderColumns(ctx, board, args[0], index)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&board, "board", "", "board id")
	cmd.Flags().IntVar(&index, "index", 0, "target index")
	_ = cmd.MarkFlagRequired("board")
	return cmd
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage tasks"}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskGetCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskMoveCmd())
	task.AddCommand(taskReorderCmd())
	task.AddCommand(taskDoneCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var labels []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Labels = labels
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ColumnID, "column", "", "column id")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&opts.DueDate, "due", "", "due date (RFC3339)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "low, medium, high or urgent")
	cmd.Flags().StringArrayVar(&labels, "label", []string{}, "label (repeatable)")
	cmd.Flags().StringVar(&opts.RecurringPattern, "recur", "", "daily, weekly, biweekly, monthly, end_of_month or yearly")
	cmd.Flags().StringVar(&opts.RecurringEndDate, "recur-end", "", "last date the series may produce occurrences for (RFC3339)")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a column, in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cv, err := e.Column(ctx, column)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cv.Tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Due", "Priority", "Done"})
				for _, t := range cv.Tasks {
					due := ""
					if t.DueDate != nil {
						due = *t.DueDate
					}
					tw.AppendRow(table.Row{t.ID, t.Title, due, t.Priority, t.Done})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column id")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func taskGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.Task(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var title, notes, priority, due, recur, recurEnd string
	var clearDue, clearRecur bool
	var labels []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.TaskUpdateOptions{ID: args[0], ClearDueDate: clearDue, ClearRecurrence: clearRecur}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("notes") {
				opts.Notes = &notes
			}
			if cmd.Flags().Changed("priority") {
				opts.Priority = &priority
			}
			if cmd.Flags().Changed("due") {
				opts.DueDate = &due
			}
			if cmd.Flags().Changed("recur") {
				opts.RecurringPattern = &recur
			}
			if cmd.Flags().Changed("recur-end") {
				opts.RecurringEndDate = &recurEnd
			}
			if cmd.Flags().Changed("label") {
				opts.Labels = labels
				opts.LabelsSet = true
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().StringVar(&due, "due", "", "due date (RFC3339)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringArrayVar(&labels, "label", []string{}, "replace labels (repeatable)")
	cmd.Flags().StringVar(&recur, "recur", "", "recurrence pattern")
	cmd.Flags().StringVar(&recurEnd, "recur-end", "", "recurrence end date")
	cmd.Flags().BoolVar(&clearRecur, "clear-recur", false, "remove recurrence")
	return cmd
}

func taskMoveCmd() *cobra.Command {
	var column string
	var index int
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task to a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.MoveTask(ctx, args[0], column, index)
				if err != nil {
					return err
				}
				if res.WIPExceeded && !viper.GetBool("json") {
					fmt.Println("note: destination column is over its WIP limit")
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "destination column id")
	cmd.Flags().IntVar(&index, "index", -1, "target index; -1 appends")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func taskReorderCmd() *cobra.Command {
	var column string
	var index int
	cmd := &cobra.Command{
		Use:   "reorder <id>",
		Short: "Move a task to an index within its column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cv, err := e.ReorderTask(ctx, column, args[0], index)
				if err != nil {
					return err
				}
				return printJSONOrTable(cv.TaskOrder)
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column id")
	cmd.Flags().IntVar(&index, "index", 0, "target index")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func taskDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task, advancing its recurrence if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.CompleteTask(ctx, args[0])
				if err != nil {
					return err
				}
				if res.NextOccurrence != nil && !viper.GetBool("json") {
					fmt.Printf("next occurrence %s due %s\n", res.NextOccurrence.ID, *res.NextOccurrence.DueDate)
				}
				return printJSONOrTable(res)
			})
		},
	}
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteTask(ctx, args[0])
			})
		},
	}
	return cmd
}

func carryOverCmd() *cobra.Command {
	var target, date string
	cmd := &cobra.Command{
		Use:   "carry-over <task-id>...",
		Short: "Reschedule tasks to a carry-over target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.CarryOver(ctx, args, target, date)
				if err != nil {
					return err
				}
				if !viper.GetBool("json") {
					fmt.Printf("carried %d, failed %d\n", len(res.Succeeded), len(res.Failed))
					for _, f := range res.Failed {
						fmt.Printf("  %s: %s\n", f.TaskID, f.Reason)
					}
					return nil
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&target, "to", "tomorrow", "end_of_today, tomorrow, next_week, end_of_month or custom")
	cmd.Flags().StringVar(&date, "date", "", "date for --to custom (YYYY-MM-DD or RFC3339)")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Materialize missed occurrences of recurring tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.SweepOverdue(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("created %d occurrences\n", n)
				return nil
			})
		},
	}
	return cmd
}

func habitCmd() *cobra.Command {
	habit := &cobra.Command{Use: "habit", Short: "Manage habits"}
	habit.AddCommand(habitCreateCmd())
	habit.AddCommand(habitListCmd())
	habit.AddCommand(habitCheckCmd())
	habit.AddCommand(habitUncheckCmd())
	habit.AddCommand(habitDeleteCmd())
	return habit
}

func habitCreateCmd() *cobra.Command {
	var opts engine.HabitCreateOptions
	var days []int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a habit",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.TargetDays = days
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.CreateHabit(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "habit name")
	cmd.Flags().StringVar(&opts.Space, "space", "", "space")
	cmd.Flags().StringVar(&opts.Frequency, "frequency", "daily", "daily, weekly or custom")
	cmd.Flags().IntSliceVar(&days, "day", []int{}, "target weekday 0-6, Sunday first (repeatable)")
	cmd.Flags().StringVar(&opts.ReminderTime, "remind", "", "reminder time HH:MM")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("space")
	return cmd
}

func habitListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				habits, err := e.ListHabits(ctx, viper.GetString("space"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(habits)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Space", "Frequency", "Streak", "Today"})
				for _, h := range habits {
					today := ""
					if h.CompletedToday {
						today = "done"
					}
					tw.AppendRow(table.Row{h.ID, h.Name, h.Space, h.Frequency, h.CurrentStreak, today})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func habitCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <id>",
		Short: "Check a habit for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.CheckHabit(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	return cmd
}

func habitUncheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uncheck <id>",
		Short: "Undo today's habit check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.UncheckHabit(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	return cmd
}

func habitDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteHabit(ctx, args[0])
			})
		},
	}
	return cmd
}

func agendaCmd() *cobra.Command {
	agenda := &cobra.Command{Use: "agenda", Short: "Day and week agenda views"}
	agenda.AddCommand(agendaDayCmd())
	agenda.AddCommand(agendaWeekCmd())
	return agenda
}

func agendaDayCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the day agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.AgendaDay(ctx, viper.GetString("space"), date, nil)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				fmt.Println(view.Date)
				printBucket("Overdue", view.Buckets.Overdue)
				printBucket("Morning", view.Buckets.Morning)
				printBucket("Afternoon", view.Buckets.Afternoon)
				printBucket("Evening", view.Buckets.Evening)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD, default today)")
	return cmd
}

func agendaWeekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the week agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.AgendaWeek(ctx, viper.GetString("space"), date, nil)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				for _, day := range view.Days {
					fmt.Println(day.Date)
					for _, it := range day.Items {
						fmt.Printf("  %s\n", itemLine(it))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any day inside the target week (YYYY-MM-DD)")
	return cmd
}

func printBucket(name string, items []domain.CalendarEvent) {
	if len(items) == 0 {
		return
	}
	fmt.Println(name + ":")
	for _, it := range items {
		fmt.Printf("  %s\n", itemLine(it))
	}
}

func itemLine(it domain.CalendarEvent) string {
	clock := "--:--"
	if it.DueDate != nil {
		if ts, err := time.Parse(time.RFC3339, *it.DueDate); err == nil {
			clock = ts.Format("15:04")
		}
	}
	marker := " "
	if it.Completed {
		marker = "x"
	}
	return fmt.Sprintf("%s [%s] %s (%s)", clock, marker, it.Title, it.Type)
}

func logCmd() *cobra.Command {
	logc := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.RecentEvents(ctx, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	logc.AddCommand(tail)
	return logc
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Auth: server.AuthConfig{
					JWTSecret: cfg.Auth.JWTSecret,
					APIKeys:   cfg.Auth.APIKeys,
				},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Dayline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
