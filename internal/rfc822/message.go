// Package rfc822 serializes outgoing mail into wire-correct RFC 822 byte
// streams: folded and encoded headers, multipart boundaries, and base64
// attachment streaming.
package rfc822

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is an outgoing message. Address fields hold pre-packed,
// comma-separated lists. At most one of TextBody and HTMLBody is serialized:
// plain text is preferred, HTML is the fallback.
type Message struct {
	Date       time.Time
	Subject    string
	MessageID  string
	From       string
	To         string
	Cc         string
	Bcc        string
	ReplyTo    string
	InReplyTo  string
	References string

	TextBody string
	HTMLBody string

	// SmartQuote truncates the body at QuoteIndex so the quoted thread is
	// not re-sent when the receiving server can reconstruct it.
	SmartQuote bool
	QuoteIndex int

	Attachments []*Attachment
}

// Attachment is one attachment record. Its payload is resolved in order:
// inline Content, then CachedPath, then ContentURI through the Writer's
// Opener.
type Attachment struct {
	Filename   string
	MIMEType   string
	Size       int64
	ContentID  string
	Content    []byte
	CachedPath string
	ContentURI string

	// ICSAlternative marks a calendar invite that must be sent as the
	// alternative part of a multipart/alternative message, without a
	// Content-Disposition header.
	ICSAlternative bool
}

// Opener resolves an attachment's content URI to a byte stream. It is
// supplied by the storage layer; FileOpener serves plain file paths.
type Opener interface {
	Open(uri string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(uri string) (io.ReadCloser, error)

func (f OpenerFunc) Open(uri string) (io.ReadCloser, error) { return f(uri) }

// FileOpener treats content URIs as local file paths, with or without a
// file:// scheme.
var FileOpener Opener = OpenerFunc(func(uri string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(uri, "file://"))
})

func (a *Attachment) open(opener Opener) (io.ReadCloser, error) {
	if a.Content != nil {
		return io.NopCloser(bytes.NewReader(a.Content)), nil
	}
	if a.CachedPath != "" {
		f, err := os.Open(a.CachedPath)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Cache entry gone; fall back to the original source.
	}
	if a.ContentURI != "" && opener != nil {
		return opener.Open(a.ContentURI)
	}
	return nil, fs.ErrNotExist
}

// AttachmentFromFile builds an attachment record for a local file, guessing
// the MIME type from the extension.
func AttachmentFromFile(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &Attachment{
		Filename:   filepath.Base(path),
		MIMEType:   mimeType,
		Size:       info.Size(),
		CachedPath: path,
	}, nil
}

// GenerateMessageID returns a fresh RFC 822 Message-ID under the given
// domain.
func GenerateMessageID(domain string) string {
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
