package rfc822

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/mail"
	"strings"
	"time"

	"mailwire/internal/message"
)

// ErrStream reports a fatal I/O failure while streaming message content.
// A partially written output stream must be discarded; attachments whose
// source simply no longer exists are shipped empty instead and do not raise
// this error.
var ErrStream = errors.New("rfc822: stream failure")

// dateFormat renders English month and day names regardless of locale, per
// RFC 2822 interoperability requirements.
const dateFormat = "Mon, 02 Jan 2006 15:04:05 -0700"

const maxLineLength = 76

var crlf = []byte("\r\n")

// Writer serializes Messages. The zero value is not usable; NewWriter wires
// a boundary generator and the local file opener.
type Writer struct {
	Boundaries *BoundaryGenerator
	Opener     Opener
}

func NewWriter() *Writer {
	return &Writer{
		Boundaries: NewBoundaryGenerator(),
		Opener:     FileOpener,
	}
}

// WriteMessage writes msg to out as a complete RFC 822 byte stream with CRLF
// line endings. The Bcc header is emitted only when sendBcc is set: SMTP
// must never see it, while a draft appended over IMAP needs it preserved.
// A non-nil attachments slice overrides the message's own list.
func (w *Writer) WriteMessage(out io.Writer, msg *Message, sendBcc bool, attachments []*Attachment) error {
	bw := bufio.NewWriter(out)

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	writeHeader(bw, "Date", date.Format(dateFormat))
	writeEncodedHeader(bw, "Subject", msg.Subject)
	writeHeader(bw, "Message-ID", msg.MessageID)
	writeAddressHeader(bw, "From", msg.From)
	writeAddressHeader(bw, "To", msg.To)
	writeAddressHeader(bw, "Cc", msg.Cc)
	if sendBcc {
		writeAddressHeader(bw, "Bcc", msg.Bcc)
	}
	writeAddressHeader(bw, "Reply-To", msg.ReplyTo)
	writeHeader(bw, "In-Reply-To", msg.InReplyTo)
	writeHeader(bw, "References", message.Fold(msg.References, 12))
	writeHeader(bw, "MIME-Version", "1.0")

	body, html := resolveBody(msg)
	if attachments == nil {
		attachments = msg.Attachments
	}

	if len(attachments) == 0 {
		writeTextHeaders(bw, html)
		bw.Write(crlf)
		if err := encodeBase64(bw, strings.NewReader(body)); err != nil {
			return fmt.Errorf("%w: body: %v", ErrStream, err)
		}
		return flush(bw)
	}

	// Exactly one attachment that is a calendar invite makes the whole
	// message multipart/alternative so clients treat the invite as an
	// alternate rendering of the body.
	subType := "mixed"
	if len(attachments) == 1 && attachments[0].ICSAlternative {
		subType = "alternative"
	}
	boundary := w.Boundaries.Next()
	writeHeader(bw, "Content-Type", fmt.Sprintf("multipart/%s; boundary=%q", subType, boundary))
	bw.Write(crlf)

	if body != "" {
		writeBoundary(bw, boundary, false)
		writeTextHeaders(bw, html)
		bw.Write(crlf)
		if err := encodeBase64(bw, strings.NewReader(body)); err != nil {
			return fmt.Errorf("%w: body: %v", ErrStream, err)
		}
	}

	for _, att := range attachments {
		writeBoundary(bw, boundary, false)
		if err := w.writeAttachment(bw, att); err != nil {
			return err
		}
	}
	writeBoundary(bw, boundary, true)

	return flush(bw)
}

// resolveBody picks plain text over HTML and applies smart-reply truncation:
// when the quote start offset is set and in bounds, everything from the
// quoted thread onward is dropped.
func resolveBody(msg *Message) (body string, html bool) {
	body = msg.TextBody
	if body == "" {
		body = msg.HTMLBody
		html = body != ""
	}
	if msg.SmartQuote && msg.QuoteIndex > 0 && msg.QuoteIndex <= len(body) {
		body = body[:msg.QuoteIndex]
	}
	return body, html
}

func writeTextHeaders(bw *bufio.Writer, html bool) {
	contentType := "text/plain"
	if html {
		contentType = "text/html"
	}
	writeHeader(bw, "Content-Type", contentType+"; charset=utf-8")
	// Always base64, even for pure ASCII: universal transport safety is
	// worth the size overhead.
	writeHeader(bw, "Content-Transfer-Encoding", "base64")
}

func (w *Writer) writeAttachment(bw *bufio.Writer, att *Attachment) error {
	fmt.Fprintf(bw, "Content-Type: %s;\r\n name=%q\r\n", att.MIMEType, att.Filename)
	writeHeader(bw, "Content-Transfer-Encoding", "base64")
	if !att.ICSAlternative {
		fmt.Fprintf(bw, "Content-Disposition: attachment;\r\n filename=%q;\r\n size=%d\r\n",
			att.Filename, att.Size)
	}
	if att.ContentID != "" {
		writeHeader(bw, "Content-ID", att.ContentID)
	}
	bw.Write(crlf)

	src, err := att.open(w.Opener)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Source vanished between compose and send: ship the
			// attachment empty rather than failing the message.
			return nil
		}
		return fmt.Errorf("%w: open attachment %q: %v", ErrStream, att.Filename, err)
	}
	defer src.Close()

	if err := encodeBase64(bw, src); err != nil {
		return fmt.Errorf("%w: attachment %q: %v", ErrStream, att.Filename, err)
	}
	return nil
}

func writeBoundary(bw *bufio.Writer, boundary string, end bool) {
	bw.WriteString("--")
	bw.WriteString(boundary)
	if end {
		bw.WriteString("--")
	}
	bw.Write(crlf)
}

// writeHeader emits "name: value" verbatim, skipping empty values.
func writeHeader(bw *bufio.Writer, name, value string) {
	if value == "" {
		return
	}
	bw.WriteString(name)
	bw.WriteString(": ")
	bw.WriteString(value)
	bw.Write(crlf)
}

// writeEncodedHeader RFC 2047-encodes the value when it carries non-ASCII
// characters, then folds it to 76 columns counting the header name.
func writeEncodedHeader(bw *bufio.Writer, name, value string) {
	if value == "" {
		return
	}
	if !isASCII(value) {
		value = mime.QEncoding.Encode("utf-8", value)
	}
	writeHeader(bw, name, message.Fold(value, len(name)+2))
}

// writeAddressHeader reformats a packed address list into header form. The
// reformat step already word-encodes display names; only folding is added.
// Unparseable lists are written as-is rather than dropped.
func writeAddressHeader(bw *bufio.Writer, name, packed string) {
	if packed == "" {
		return
	}
	value := packed
	if addrs, err := mail.ParseAddressList(packed); err == nil {
		formatted := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			formatted = append(formatted, addr.String())
		}
		value = strings.Join(formatted, ", ")
	}
	writeHeader(bw, name, message.Fold(value, len(name)+2))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

func flush(bw *bufio.Writer) error {
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	return nil
}

// lineBreaker inserts CRLF every 76 output characters so base64 payloads
// stay within transport line limits.
type lineBreaker struct {
	w   io.Writer
	col int
}

func (l *lineBreaker) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := maxLineLength - l.col
		if n > len(p) {
			n = len(p)
		}
		if _, err := l.w.Write(p[:n]); err != nil {
			return total, err
		}
		total += n
		l.col += n
		p = p[n:]
		if l.col == maxLineLength {
			if _, err := l.w.Write(crlf); err != nil {
				return total, err
			}
			l.col = 0
		}
	}
	return total, nil
}

func (l *lineBreaker) close() error {
	if l.col == 0 {
		return nil
	}
	l.col = 0
	_, err := l.w.Write(crlf)
	return err
}

func encodeBase64(w io.Writer, src io.Reader) error {
	lb := &lineBreaker{w: w}
	enc := base64.NewEncoder(base64.StdEncoding, lb)
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return lb.close()
}
