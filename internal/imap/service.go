// Package imap wraps the IMAP client behind a small service so commands can
// fetch, list, file and delete messages without protocol details.
package imap

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"mailwire/internal/config"
	"mailwire/internal/message"
)

type Client interface {
	Login(username, password string) error
	Logout() error
	StartTLS(config *tls.Config) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Status(name string, items []imap.StatusItem) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Create(name string) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	UidMove(seqset *imap.SeqSet, mailbox string) error
	UidCopy(seqset *imap.SeqSet, mailbox string) error
	Append(mailbox string, flags []string, date time.Time, msg imap.Literal) error
	Expunge(ch chan uint32) error
}

type Service struct {
	Connector func(cfg config.Config) (Client, error)
	Logger    *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Connector: Connect, Logger: logger}
}

func Connect(cfg config.Config) (Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.IMAP.Host, cfg.IMAP.Port)
	tlsConfig := &tls.Config{
		ServerName:         cfg.IMAP.Host,
		InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify,
	}

	var c *imapclient.Client
	var err error
	if cfg.IMAP.TLS {
		c, err = imapclient.DialTLS(addr, tlsConfig)
	} else {
		c, err = imapclient.Dial(addr)
		if err == nil && cfg.IMAP.StartTLS {
			if err := c.StartTLS(tlsConfig); err != nil {
				_ = c.Logout()
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if err := c.Login(cfg.Auth.Username, cfg.Auth.Password); err != nil {
		_ = c.Logout()
		return nil, err
	}

	return c, nil
}

func (s *Service) withClient(cfg config.Config, fn func(Client) error) error {
	connector := s.Connector
	if connector == nil {
		connector = Connect
	}
	client, err := connector(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout()
	}()
	return fn(client)
}

func (s *Service) Status(cfg config.Config, mailbox string) (*imap.MailboxStatus, error) {
	var status *imap.MailboxStatus
	err := s.withClient(cfg, func(c Client) error {
		mb, err := c.Status(mailbox, []imap.StatusItem{imap.StatusMessages, imap.StatusUnseen})
		if err != nil {
			return err
		}
		status = mb
		return nil
	})
	return status, err
}

func (s *Service) ListMailboxes(cfg config.Config) ([]string, error) {
	mailboxes := []string{}
	err := s.withClient(cfg, func(c Client) error {
		ch := make(chan *imap.MailboxInfo, 10)
		done := make(chan error, 1)
		go func() {
			done <- c.List("", "*", ch)
		}()
		for mbox := range ch {
			mailboxes = append(mailboxes, mbox.Name)
		}
		return <-done
	})
	return mailboxes, err
}

func (s *Service) CreateMailbox(cfg config.Config, name string) error {
	return s.withClient(cfg, func(c Client) error {
		return c.Create(name)
	})
}

func (s *Service) ListMessages(cfg config.Config, mailbox string, page, pageSize int) ([]MessageSummary, int, error) {
	return s.listMessagesWithCriteria(cfg, mailbox, nil, page, pageSize)
}

func (s *Service) SearchMessages(cfg config.Config, mailbox, query string, page, pageSize int) ([]MessageSummary, int, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Text = []string{query}
	return s.listMessagesWithCriteria(cfg, mailbox, criteria, page, pageSize)
}

func (s *Service) listMessagesWithCriteria(cfg config.Config, mailbox string, criteria *imap.SearchCriteria, page, pageSize int) ([]MessageSummary, int, error) {
	var messages []MessageSummary
	var total int

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := s.withClient(cfg, func(c Client) error {
		if _, err := c.Select(mailbox, true); err != nil {
			return err
		}

		if criteria == nil {
			criteria = imap.NewSearchCriteria()
		}

		uids, err := c.UidSearch(criteria)
		if err != nil {
			return err
		}
		sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
		total = len(uids)
		if total == 0 {
			return nil
		}

		end := total - (page-1)*pageSize
		if end <= 0 {
			return nil
		}
		start := end - pageSize
		if start < 0 {
			start = 0
		}
		subset := uids[start:end]
		if len(subset) == 0 {
			return nil
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(subset...)

		items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, imap.FetchRFC822Size}
		ch := make(chan *imap.Message, len(subset))
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqset, items, ch)
		}()
		for msg := range ch {
			if msg == nil || msg.Envelope == nil {
				continue
			}
			messages = append(messages, MessageSummary{
				UID:     msg.Uid,
				Subject: msg.Envelope.Subject,
				From:    formatIMAPAddresses(msg.Envelope.From),
				Date:    msg.Envelope.Date,
				Size:    msg.Size,
				Flags:   msg.Flags,
			})
		}
		return <-done
	})

	sort.Slice(messages, func(i, j int) bool { return messages[i].UID > messages[j].UID })

	return messages, total, err
}

// ReadMessage fetches a message and classifies its MIME tree: the first
// viewable part becomes the body (plain text preferred over HTML), the
// attachment-like parts are listed by name.
func (s *Service) ReadMessage(cfg config.Config, mailbox string, uid uint32) (MessageDetail, error) {
	raw, err := s.FetchRawMessage(cfg, mailbox, uid)
	if err != nil {
		return MessageDetail{}, err
	}

	env, err := message.Parse(bytes.NewReader(raw))
	if err != nil {
		return MessageDetail{}, err
	}

	detail := MessageDetail{
		UID:     uid,
		Subject: env.Subject,
		From:    env.From,
		To:      env.To,
		Cc:      env.Cc,
	}
	if t, err := mail.ParseDate(env.Date); err == nil {
		detail.Date = t
	}

	viewables, attachments := message.Collect(env.Root)
	for _, att := range attachments {
		name := att.Filename()
		if name == "" {
			name = att.MIMEType()
		}
		detail.Attachments = append(detail.Attachments, name)
	}

	body := pickViewable(viewables, "text/plain", s.Logger)
	if body == "" {
		if html := pickViewable(viewables, "text/html", s.Logger); html != "" {
			body = html
			detail.BodyIsHTML = true
		}
	}
	detail.Body = body

	return detail, nil
}

// pickViewable decodes the first viewable of the wanted type. Undecodable
// bodies are logged and skipped rather than failing the read.
func pickViewable(viewables []*message.Part, mimeType string, logger *zap.Logger) string {
	for _, part := range viewables {
		if !strings.EqualFold(part.MIMEType(), mimeType) {
			continue
		}
		if err := message.DecodeBody(part); err != nil {
			logger.Warn("skipping undecodable part",
				zap.String("mime_type", mimeType), zap.Error(err))
			continue
		}
		text, err := message.TextFromPart(part)
		if err != nil {
			logger.Warn("skipping unreadable text part",
				zap.String("mime_type", mimeType), zap.Error(err))
			continue
		}
		return text
	}
	return ""
}

func (s *Service) FetchRawMessage(cfg config.Config, mailbox string, uid uint32) ([]byte, error) {
	var raw []byte
	err := s.withClient(cfg, func(c Client) error {
		if _, err := c.Select(mailbox, true); err != nil {
			return err
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)
		section := &imap.BodySectionName{}
		items := []imap.FetchItem{section.FetchItem()}
		ch := make(chan *imap.Message, 1)
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqset, items, ch)
		}()
		msg := <-ch
		if msg == nil {
			return fmt.Errorf("message %d not found", uid)
		}
		if err := <-done; err != nil {
			return err
		}
		body := msg.GetBody(section)
		if body == nil {
			return fmt.Errorf("message body not available")
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		raw = data
		return nil
	})

	return raw, err
}

func (s *Service) DeleteMessage(cfg config.Config, mailbox string, uid uint32) error {
	return s.withClient(cfg, func(c Client) error {
		if _, err := c.Select(mailbox, false); err != nil {
			return err
		}
		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
			return err
		}
		return expunge(c)
	})
}

func (s *Service) MoveMessage(cfg config.Config, mailbox string, uid uint32, dest string) error {
	return s.withClient(cfg, func(c Client) error {
		if _, err := c.Select(mailbox, false); err != nil {
			return err
		}
		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)
		if err := c.UidMove(seqset, dest); err == nil {
			return nil
		}
		// MOVE unsupported: fall back to copy, flag deleted, expunge.
		if err := c.UidCopy(seqset, dest); err != nil {
			return err
		}
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
			return err
		}
		return expunge(c)
	})
}

func (s *Service) AddTag(cfg config.Config, mailbox string, uid uint32, tag string) error {
	return s.withClient(cfg, func(c Client) error {
		if _, err := c.Select(mailbox, false); err != nil {
			return err
		}
		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		return c.UidStore(seqset, item, []interface{}{tag}, nil)
	})
}

func (s *Service) SaveDraft(cfg config.Config, mailbox string, raw []byte) error {
	return s.withClient(cfg, func(c Client) error {
		return c.Append(mailbox, []string{}, time.Now(), bytes.NewReader(raw))
	})
}

// DownloadAttachments classifies a message's part tree, transfer-decodes
// each attachment, and writes them into dir under collision-free names.
func (s *Service) DownloadAttachments(cfg config.Config, mailbox string, uid uint32, dir string) ([]string, error) {
	raw, err := s.FetchRawMessage(cfg, mailbox, uid)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	env, err := message.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	_, attachments := message.Collect(env.Root)

	saved := []string{}
	for _, part := range attachments {
		if err := message.DecodeBody(part); err != nil {
			s.Logger.Warn("skipping undecodable attachment",
				zap.String("filename", part.Filename()), zap.Error(err))
			continue
		}
		leaf, ok := part.Body.(*message.Leaf)
		if !ok {
			continue
		}

		filename := part.Filename()
		if filename == "" {
			filename = fmt.Sprintf("attachment-%d", len(saved)+1)
		}
		filename = filepath.Base(filename)
		target := ensureUniqueFilename(filepath.Join(dir, filename))

		if err := saveLeaf(leaf, target); err != nil {
			return nil, err
		}
		leaf.Remove()
		saved = append(saved, target)
	}

	return saved, nil
}

func saveLeaf(leaf *message.Leaf, target string) error {
	src, err := leaf.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	file, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, src); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func formatIMAPAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr == nil {
			continue
		}
		full := addr.MailboxName
		if addr.HostName != "" {
			full += "@" + addr.HostName
		}
		if addr.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.PersonalName, full))
		} else {
			parts = append(parts, full)
		}
	}
	return strings.Join(parts, ", ")
}

func expunge(c Client) error {
	ch := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- c.Expunge(ch)
	}()
	for range ch {
	}
	return <-done
}

func ensureUniqueFilename(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	ext := filepath.Ext(path)
	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	return path
}
