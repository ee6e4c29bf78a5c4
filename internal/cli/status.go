package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailwire/internal/config"
	"mailwire/internal/imap"
)

func newStatusCmd() *cobra.Command {
	var mailbox string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mailbox status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateIMAP(cfg); err != nil {
				return err
			}

			service := imap.NewService(log)
			status, err := service.Status(cfg, mailbox)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d messages, %d unseen\n", mailbox, status.Messages, status.Unseen)
			return nil
		},
	}

	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "Mailbox name")

	return cmd
}
