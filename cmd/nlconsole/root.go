package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/nlconsole/internal/session"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	cfg        appConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "nlconsole",
		Short: "nlconsole - ask questions of your data in plain language",
		Long: `nlconsole is a terminal console for asking natural-language questions
of a query backend. Answers are shown with inline charts and can be
copied, shared, or exported as CSV, JSON or PNG.

Run without arguments to start the interactive console.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := loadConfig(c.configPath, cmd.Root().PersistentFlags())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c.cfg = cfg
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(c.cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is $HOME/.config/nlconsole/config.yml)")
	rootCmd.PersistentFlags().String("api-url", "", "query backend base URL")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "keep history and settings in memory only")

	rootCmd.AddCommand(newAskCmd(c))
	rootCmd.AddCommand(newHistoryCmd(c))
	rootCmd.AddCommand(newServeCmd(c))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// openSession opens storage and wires the query pipeline for a command.
func (c *cli) openSession() (*session.Session, error) {
	sess, err := session.Open(c.cfg.sessionOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return sess, nil
}
