// Package cli wires the cobra command tree for the mailwire client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mailwire/internal/config"
	"mailwire/internal/logging"
	"mailwire/internal/message"
)

var log = zap.NewNop()

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "mailwire",
		Short:        "mailwire is a CLI for IMAP/SMTP mail servers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail to stderr")

	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInboxCmd())
	cmd.AddCommand(newMailCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newMoveCmd())
	cmd.AddCommand(newTagCmd())
	cmd.AddCommand(newMailboxesCmd())
	cmd.AddCommand(newAttachmentsCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.SetErr(os.Stderr)
	cmd.SetOut(os.Stdout)

	return cmd
}

func setupLogging(verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCfg := cfg.Logging
	logCfg.Verbose = logCfg.Verbose || verbose

	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	log = logger
	message.SetLogger(logger)
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
