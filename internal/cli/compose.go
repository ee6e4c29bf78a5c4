package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mailwire/internal/config"
	"mailwire/internal/imap"
	"mailwire/internal/rfc822"
)

// composeOpts are the flags shared by "send" and "draft save".
type composeOpts struct {
	to           string
	cc           string
	bcc          string
	subject      string
	body         string
	bodyFile     string
	bodyHTML     string
	replyTo      string
	replyUID     string
	replyAll     bool
	quote        bool
	omitQuoted   bool
	replyMailbox string
	attachments  []string
	icsPath      string
}

func (o *composeOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.to, "to", "", "Comma-separated recipients")
	cmd.Flags().StringVar(&o.cc, "cc", "", "Comma-separated CC recipients")
	cmd.Flags().StringVar(&o.bcc, "bcc", "", "Comma-separated BCC recipients")
	cmd.Flags().StringVar(&o.subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&o.body, "body", "", "Message body (plain text)")
	cmd.Flags().StringVar(&o.bodyFile, "body-file", "", "Path to file containing message body ('-' for stdin)")
	cmd.Flags().StringVar(&o.bodyHTML, "body-html", "", "Message body (HTML)")
	cmd.Flags().StringVar(&o.replyTo, "reply-to", "", "Reply-To header address")
	cmd.Flags().StringVar(&o.replyUID, "reply-uid", "", "Reply to message UID (threads headers and recipients)")
	cmd.Flags().BoolVar(&o.replyAll, "reply-all", false, "Reply-all using original recipients (requires --reply-uid)")
	cmd.Flags().BoolVar(&o.quote, "quote", false, "Include quoted original message (requires --reply-uid)")
	cmd.Flags().BoolVar(&o.omitQuoted, "omit-quoted", false, "Drop the quoted thread from the sent copy (requires --quote)")
	cmd.Flags().StringVar(&o.replyMailbox, "reply-mailbox", "INBOX", "Mailbox containing the reply target")
	cmd.Flags().StringSliceVar(&o.attachments, "attachment", nil, "Attachment file paths (repeatable)")
	cmd.Flags().StringVar(&o.icsPath, "ics", "", "Calendar invite file sent as the alternative part")
}

func (o *composeOpts) validate() error {
	if o.replyAll && strings.TrimSpace(o.replyUID) == "" {
		return fmt.Errorf("--reply-all requires --reply-uid")
	}
	if o.quote && strings.TrimSpace(o.replyUID) == "" {
		return fmt.Errorf("--quote requires --reply-uid")
	}
	if o.omitQuoted && !o.quote {
		return fmt.Errorf("--omit-quoted requires --quote")
	}
	if o.icsPath != "" && len(o.attachments) > 0 {
		return fmt.Errorf("--ics cannot be combined with --attachment")
	}
	return nil
}

// buildOutgoing assembles the outgoing message and its envelope recipients.
func buildOutgoing(cfg config.Config, svc *imap.Service, o composeOpts) (*rfc822.Message, []string, error) {
	if err := o.validate(); err != nil {
		return nil, nil, err
	}

	content, err := loadBody(o.body, o.bodyFile)
	if err != nil {
		return nil, nil, err
	}

	bodyHTML := o.bodyHTML
	subject := o.subject
	var inReplyTo, references string
	var quoteStart int
	var replyInfo *rfc822.ReplyInfo

	if strings.TrimSpace(o.replyUID) != "" {
		uid, err := strconv.ParseUint(o.replyUID, 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid reply uid: %s", o.replyUID)
		}
		mailbox := o.replyMailbox
		if mailbox == "" {
			mailbox = "INBOX"
		}

		raw, err := svc.FetchRawMessage(cfg, mailbox, uint32(uid))
		if err != nil {
			return nil, nil, err
		}
		replyInfo, err = rfc822.ExtractReplyInfo(raw, o.quote)
		if err != nil {
			return nil, nil, err
		}
		inReplyTo, references = rfc822.ThreadHeaders(replyInfo)
		if o.quote {
			content, bodyHTML, quoteStart = rfc822.ApplyQuote(content, bodyHTML, replyInfo)
		}
		if strings.TrimSpace(subject) == "" && replyInfo.Subject != "" {
			subject = rfc822.ReplySubject(replyInfo.Subject)
		}
	}

	var toList, ccList []string
	if replyInfo != nil {
		if o.replyAll {
			toList, ccList = rfc822.ReplyAllRecipients(replyInfo, cfg.Auth.Username)
		} else {
			toList = rfc822.ReplyRecipients(replyInfo, cfg.Auth.Username)
		}
		if strings.TrimSpace(o.to) != "" {
			toList = splitList(o.to)
		}
		if strings.TrimSpace(o.cc) != "" {
			ccList = splitList(o.cc)
		}
	} else {
		toList = splitList(o.to)
		ccList = splitList(o.cc)
	}
	bccList := splitList(o.bcc)

	attachments, err := loadAttachments(o)
	if err != nil {
		return nil, nil, err
	}

	msg := &rfc822.Message{
		Subject:     subject,
		MessageID:   rfc822.GenerateMessageID(domainOf(cfg.Auth.Username)),
		From:        cfg.Auth.Username,
		To:          joinList(toList),
		Cc:          joinList(ccList),
		Bcc:         joinList(bccList),
		ReplyTo:     o.replyTo,
		InReplyTo:   inReplyTo,
		References:  references,
		TextBody:    content,
		HTMLBody:    bodyHTML,
		SmartQuote:  o.omitQuoted,
		QuoteIndex:  quoteStart,
		Attachments: attachments,
	}

	recipients := append(append([]string{}, toList...), ccList...)
	recipients = append(recipients, bccList...)

	return msg, recipients, nil
}

func loadAttachments(o composeOpts) ([]*rfc822.Attachment, error) {
	var out []*rfc822.Attachment
	for _, path := range o.attachments {
		if path == "" {
			continue
		}
		att, err := rfc822.AttachmentFromFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	if o.icsPath != "" {
		att, err := rfc822.AttachmentFromFile(o.icsPath)
		if err != nil {
			return nil, err
		}
		att.MIMEType = `text/calendar; method=REQUEST`
		att.ICSAlternative = true
		out = append(out, att)
	}
	return out, nil
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return ""
}
