package cli

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mailwire/internal/config"
	"mailwire/internal/imap"
	"mailwire/internal/rfc822"
	"mailwire/internal/smtp"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft operations",
	}
	cmd.AddCommand(newDraftSaveCmd())
	cmd.AddCommand(newDraftListCmd())
	cmd.AddCommand(newDraftSendCmd())
	return cmd
}

func newDraftSaveCmd() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a draft to the Drafts mailbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateIMAP(cfg); err != nil {
				return err
			}

			service := imap.NewService(log)
			msg, _, err := buildOutgoing(cfg, service, opts)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			writer := rfc822.NewWriter()
			// Drafts keep the Bcc header so a later send can recover it.
			if err := writer.WriteMessage(&buf, msg, true, nil); err != nil {
				return err
			}

			drafts := cfg.Defaults.DraftsMailbox
			if drafts == "" {
				drafts = "Drafts"
			}
			if err := service.SaveDraft(cfg, drafts, buf.Bytes()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Draft saved to %s.\n", drafts)
			return nil
		},
	}

	opts.register(cmd)

	return cmd
}

func newDraftListCmd() *cobra.Command {
	var page int
	var pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateIMAP(cfg); err != nil {
				return err
			}

			service := imap.NewService(log)
			drafts := cfg.Defaults.DraftsMailbox
			if drafts == "" {
				drafts = "Drafts"
			}

			messages, total, err := service.ListMessages(cfg, drafts, page, pageSize)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Drafts: %s (total %d)\n", drafts, total)
			printMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based, newest first)")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Messages per page")

	return cmd
}

func newDraftSendCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "send <uid>",
		Short: "Send a draft by UID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid uid: %s", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateIMAP(cfg); err != nil {
				return err
			}
			if err := config.ValidateSMTP(cfg); err != nil {
				return err
			}

			service := imap.NewService(log)
			drafts := cfg.Defaults.DraftsMailbox
			if drafts == "" {
				drafts = "Drafts"
			}

			raw, err := service.FetchRawMessage(cfg, drafts, uint32(uid))
			if err != nil {
				return err
			}

			recipients, err := rfc822.ExtractRecipients(raw)
			if err != nil {
				return err
			}
			if len(recipients) == 0 {
				return fmt.Errorf("draft has no recipients")
			}

			if err := smtp.Send(cfg, cfg.Auth.Username, recipients, raw); err != nil {
				return err
			}

			if !keep {
				if err := service.DeleteMessage(cfg, drafts, uint32(uid)); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Draft sent.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "Keep draft after sending")

	return cmd
}
