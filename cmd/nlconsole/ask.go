package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/dispatch"
	"github.com/tinytelemetry/nlconsole/internal/export"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/session"
)

const (
	askFormatTable = "table"
	askFormatCSV   = export.FormatCSV
	askFormatJSON  = export.FormatJSON
)

func newAskCmd(c *cli) *cobra.Command {
	var format string
	var noChart bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `Ask sends a single question to the backend, prints the answer and the
returned rows, and records the question in history.`,
		Example: `  # Print the answer with a table and chart
  nlconsole ask "total hours per user last week"

  # Rows only, as CSV
  nlconsole ask --format csv "sessions per day"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case askFormatTable, askFormatCSV, askFormatJSON:
			default:
				return fmt.Errorf("unknown format %q (want table, csv or json)", format)
			}

			cleanupLogger := configureRuntimeLogger()
			defer cleanupLogger()

			sess, err := c.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runAsk(ctx, sess, strings.Join(args, " "), format, !noChart, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", askFormatTable, "output format (table|csv|json)")
	cmd.Flags().BoolVar(&noChart, "no-chart", false, "do not draw the chart in table output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{askFormatTable, askFormatCSV, askFormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// runAsk performs one submit cycle and prints the result in format.
func runAsk(ctx context.Context, sess *session.Session, question, format string, chart bool, w io.Writer) error {
	out, err := sess.Dispatcher.Submit(ctx, question)
	if err != nil {
		return err
	}

	if isBuiltin(question) {
		if e, ok := sess.Log.Last(); ok {
			fmt.Fprintln(w, e.Text)
		}
		return nil
	}

	if out.Err != nil {
		// the log holds the user-facing rendering of the failure
		if e, ok := sess.Log.Last(); ok && e.Kind == model.EntryError {
			return errors.New(e.Text)
		}
		return out.Err
	}

	rows := out.Answer.Data
	switch format {
	case askFormatJSON:
		ts := ""
		if ds := sess.Dispatcher.LastResult(); ds != nil {
			ts = ds.Timestamp
		}
		s, err := export.ToJSONEnvelope(strings.TrimSpace(question), rows, ts)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
		return nil

	case askFormatCSV:
		if len(rows) > 0 {
			fmt.Fprintln(w, export.ToCSV(rows))
		}
		return nil
	}

	fmt.Fprintln(w, out.Answer.Answer)
	if h := sess.Dispatcher.LastChart(); chart && h != chartsurface.NoHandle {
		if view, err := sess.Surface.View(h); err == nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, view)
		}
	}
	if rows != nil {
		fmt.Fprintln(w)
		renderRows(w, rows)
	}
	return nil
}

func isBuiltin(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	return q == dispatch.CommandHelp || q == dispatch.CommandClear
}

// renderRows prints rows as a table. Columns are the union of every row's
// columns in order of first appearance.
func renderRows(w io.Writer, rows model.QueryResult) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	var cols []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, name := range r.Columns() {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			v, _ := r.Get(col)
			row[i] = formatCell(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return model.FormatScalar(v)
}
