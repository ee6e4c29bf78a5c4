package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mailwire/internal/config"
	"mailwire/internal/imap"
	"mailwire/internal/rfc822"
	"mailwire/internal/smtp"
)

func newSendCmd() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateSMTP(cfg); err != nil {
				return err
			}

			service := imap.NewService(log)
			msg, recipients, err := buildOutgoing(cfg, service, opts)
			if err != nil {
				return err
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one recipient is required")
			}

			var buf bytes.Buffer
			writer := rfc822.NewWriter()
			// Bcc stays out of the stream; it travels in the envelope only.
			if err := writer.WriteMessage(&buf, msg, false, nil); err != nil {
				return err
			}

			if err := smtp.Send(cfg, cfg.Auth.Username, recipients, buf.Bytes()); err != nil {
				return err
			}

			log.Info("message sent",
				zap.String("message_id", msg.MessageID),
				zap.Int("recipients", len(recipients)))
			fmt.Fprintln(cmd.OutOrStdout(), "Sent.")
			return nil
		},
	}

	opts.register(cmd)

	return cmd
}
