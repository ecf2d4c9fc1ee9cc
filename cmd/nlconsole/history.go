package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tinytelemetry/nlconsole/internal/backup"
	"github.com/tinytelemetry/nlconsole/internal/duckdb"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/session"
)

const defaultExportsLimit = 20

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit saved queries",
	}
	cmd.AddCommand(
		newHistoryListCmd(c),
		newHistoryRemoveCmd(c),
		newHistoryFavoriteCmd(c),
		newHistoryClearCmd(c),
		newHistoryExportsCmd(c),
		newHistorySnapshotCmd(c),
		newHistoryBackupsCmd(c),
	)
	return cmd
}

// withSession opens a session for the duration of fn.
func (c *cli) withSession(fn func(*session.Session) error) error {
	sess, err := c.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}

func newHistoryListCmd(c *cli) *cobra.Command {
	var favorites, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(func(sess *session.Session) error {
				entries := sess.History.List()
				if favorites {
					entries = sess.History.Favorites()
				}
				if asJSON {
					if entries == nil {
						entries = []model.HistoryEntry{}
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				renderHistory(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only starred queries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func renderHistory(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No saved queries.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "★", "Query", "Asked"})
	for _, e := range entries {
		star := ""
		if e.Favorite {
			star = "★"
		}
		t.AppendRow(table.Row{e.ID, star, e.Query, e.Timestamp})
	}
	t.Render()
}

func parseEntryID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid history id %q", arg)
	}
	return id, nil
}

func newHistoryRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return c.withSession(func(sess *session.Session) error {
				if _, ok := sess.History.Get(id); !ok {
					return fmt.Errorf("no history entry %d", id)
				}
				if err := sess.History.Remove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
				return nil
			})
		},
	}
}

func newHistoryFavoriteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fav <id>",
		Short: "Star or unstar a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return c.withSession(func(sess *session.Session) error {
				if _, ok := sess.History.Get(id); !ok {
					return fmt.Errorf("no history entry %d", id)
				}
				if err := sess.History.ToggleFavorite(id); err != nil {
					return err
				}
				e, _ := sess.History.Get(id)
				state := "Unstarred"
				if e.Favorite {
					state = "Starred"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", state, id)
				return nil
			})
		},
	}
}

func newHistoryClearCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			return c.withSession(func(sess *session.Session) error {
				n := sess.History.Len()
				if err := sess.History.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting all history")
	return cmd
}

func newHistoryExportsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(func(sess *session.Session) error {
				records, err := sess.RecentExports(limit)
				if err != nil {
					return err
				}
				renderExports(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultExportsLimit, "number of exports to show")
	return cmd
}

func renderExports(w io.Writer, records []duckdb.ExportRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No exports recorded.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Format", "Path", "Query"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ExportedAt.Local().Format(time.DateTime), r.Format, shortenPath(r.Path), r.Query})
	}
	t.Render()
}

func newHistorySnapshotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <dst>",
		Short: "Copy the history database to dst",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(func(sess *session.Session) error {
				if err := sess.Snapshot(args[0]); err != nil {
					if errors.Is(err, duckdb.ErrInMemoryStore) {
						return errors.New("nothing to snapshot in ephemeral mode")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryBackupsCmd(c *cli) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List rolling backups of the history database",
		Long: `Backups lists the snapshots kept in backup-dir, newest first.
With --now a snapshot is taken first, even when periodic backups are disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if now {
				err := c.withSession(func(sess *session.Session) error {
					if sess.Store == nil {
						return errors.New("nothing to back up in ephemeral mode")
					}
					cfg := c.cfg.backupConfig()
					cfg.Enabled = true
					m, err := backup.NewManager(sess.Store, cfg)
					if err != nil {
						return err
					}
					m.Stop()
					return nil
				})
				if err != nil {
					return err
				}
			}
			files, err := backup.List(c.cfg.BackupDir)
			if err != nil {
				return err
			}
			renderBackups(cmd.OutOrStdout(), files)
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "take a snapshot before listing")
	return cmd
}

func renderBackups(w io.Writer, files []string) {
	if len(files) == 0 {
		_, _ = fmt.Fprintln(w, "No backups found.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Size", "Modified"})
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		t.AppendRow(table.Row{shortenPath(f), info.Size(), info.ModTime().Local().Format(time.DateTime)})
	}
	t.Render()
}
