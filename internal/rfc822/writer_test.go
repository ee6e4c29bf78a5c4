package rfc822

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialize(t *testing.T, msg *Message, sendBcc bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewWriter().WriteMessage(&buf, msg, sendBcc, nil))
	return buf.String()
}

func TestWriteMessagePlainBody(t *testing.T) {
	out := serialize(t, &Message{
		Subject:  "greeting",
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "hello",
	}, false)

	assert.Equal(t, 1, strings.Count(out, "Content-Type: text/plain; charset=utf-8"))
	assert.Equal(t, 1, strings.Count(out, "Content-Transfer-Encoding: base64"))
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("hello")))
	assert.Contains(t, out, "MIME-Version: 1.0\r\n")
	assert.NotContains(t, out, "boundary")
}

func TestWriteMessageHTMLFallback(t *testing.T) {
	out := serialize(t, &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		HTMLBody: "<p>hi</p>",
	}, false)

	assert.Contains(t, out, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("<p>hi</p>")))
}

func TestWriteMessageEncodesSubject(t *testing.T) {
	out := serialize(t, &Message{
		Subject:  "café réservation",
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "x",
	}, false)

	assert.Contains(t, out, "Subject: =?utf-8?q?")
	assert.NotContains(t, out, "Subject: café")
}

func TestWriteMessageDateIsLocaleInvariant(t *testing.T) {
	out := serialize(t, &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "x",
	}, false)

	require.True(t, strings.HasPrefix(out, "Date: "))
	line := out[:strings.Index(out, "\r\n")]
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		if strings.Contains(line, day) {
			return
		}
	}
	t.Fatalf("date header has no English day name: %s", line)
}

func TestWriteMessageBccSuppression(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		Bcc:      "hidden@example.com",
		TextBody: "x",
	}

	sent := serialize(t, msg, false)
	assert.NotContains(t, sent, "Bcc:")
	assert.NotContains(t, sent, "hidden@example.com")

	draft := serialize(t, msg, true)
	assert.Contains(t, draft, "Bcc: <hidden@example.com>")
}

func TestWriteMessageICSAlternative(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "meeting",
		Attachments: []*Attachment{{
			Filename:       "invite.ics",
			MIMEType:       "text/calendar; method=REQUEST",
			Content:        []byte("BEGIN:VCALENDAR"),
			ICSAlternative: true,
		}},
	}
	out := serialize(t, msg, false)

	assert.Contains(t, out, "Content-Type: multipart/alternative; boundary=")
	assert.NotContains(t, out, "Content-Disposition")
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("BEGIN:VCALENDAR")))
}

func TestWriteMessageMixedAttachments(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "see attached",
		Attachments: []*Attachment{
			{Filename: "first.txt", MIMEType: "text/plain", Size: 5, Content: []byte("first")},
			{Filename: "second.bin", MIMEType: "application/octet-stream", Size: 6, Content: []byte("second")},
		},
	}
	out := serialize(t, msg, false)

	assert.Contains(t, out, "Content-Type: multipart/mixed; boundary=")

	boundary := extractBoundary(t, out)
	delim := "--" + boundary + "\r\n"
	closing := "--" + boundary + "--\r\n"

	// Body part plus two attachments, each behind its own boundary line.
	assert.Equal(t, 3, strings.Count(out, delim))
	assert.Equal(t, 1, strings.Count(out, closing))
	assert.True(t, strings.HasSuffix(out, closing))

	first := strings.Index(out, `filename="first.txt"`)
	second := strings.Index(out, `filename="second.bin"`)
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)

	assert.Contains(t, out, "size=5")
	assert.Contains(t, out, "size=6")
}

func TestWriteMessageSmartQuoteTruncation(t *testing.T) {
	body := "my reply\n\n> quoted thread"
	msg := &Message{
		From:       "alice@example.com",
		To:         "bob@example.com",
		TextBody:   body,
		SmartQuote: true,
		QuoteIndex: len("my reply"),
	}
	out := serialize(t, msg, false)

	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("my reply")))
	assert.NotContains(t, out, base64.StdEncoding.EncodeToString([]byte(body)))
}

func TestWriteMessageQuoteIndexOutOfRangeKeepsBody(t *testing.T) {
	msg := &Message{
		From:       "alice@example.com",
		To:         "bob@example.com",
		TextBody:   "short",
		SmartQuote: true,
		QuoteIndex: 100,
	}
	out := serialize(t, msg, false)
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("short")))
}

// An attachment whose file vanished between compose and send goes out with
// an empty payload instead of failing the write.
func TestWriteMessageMissingAttachmentFile(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "x",
		Attachments: []*Attachment{{
			Filename:   "gone.txt",
			MIMEType:   "text/plain",
			CachedPath: "/nonexistent/gone.txt",
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, NewWriter().WriteMessage(&buf, msg, false, nil))
	assert.Contains(t, buf.String(), `name="gone.txt"`)
}

func TestWriteMessageOpenerFailureIsFatal(t *testing.T) {
	w := NewWriter()
	w.Opener = OpenerFunc(func(uri string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("storage backend down")
	})

	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "x",
		Attachments: []*Attachment{{
			Filename:   "remote.bin",
			MIMEType:   "application/octet-stream",
			ContentURI: "blob://123",
		}},
	}
	var buf bytes.Buffer
	err := w.WriteMessage(&buf, msg, false, nil)
	assert.ErrorIs(t, err, ErrStream)
}

func TestWriteMessageAttachmentsOverride(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: "x",
		Attachments: []*Attachment{
			{Filename: "ignored.txt", MIMEType: "text/plain", Content: []byte("a")},
		},
	}
	override := []*Attachment{
		{Filename: "used.txt", MIMEType: "text/plain", Content: []byte("b")},
	}
	var buf bytes.Buffer
	require.NoError(t, NewWriter().WriteMessage(&buf, msg, false, override))

	out := buf.String()
	assert.Contains(t, out, `filename="used.txt"`)
	assert.NotContains(t, out, `filename="ignored.txt"`)
}

func TestWriteMessageBase64LineLength(t *testing.T) {
	msg := &Message{
		From:     "alice@example.com",
		To:       "bob@example.com",
		TextBody: strings.Repeat("long body content ", 50),
	}
	out := serialize(t, msg, false)

	_, body, found := strings.Cut(out, "\r\n\r\n")
	require.True(t, found)
	for _, line := range strings.Split(strings.TrimRight(body, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}

func TestAttachmentOpenResolutionOrder(t *testing.T) {
	att := &Attachment{
		Content:    []byte("inline"),
		CachedPath: "/nonexistent/path",
		ContentURI: "blob://x",
	}
	src, err := att.open(FileOpener)
	require.NoError(t, err)
	defer src.Close()
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "inline", string(data))

	empty := &Attachment{}
	_, err = empty.open(FileOpener)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID("example.com")
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))
	assert.NotEqual(t, id, GenerateMessageID("example.com"))

	assert.True(t, strings.HasSuffix(GenerateMessageID(""), "@localhost>"))
}

func extractBoundary(t *testing.T, out string) string {
	t.Helper()
	_, rest, found := strings.Cut(out, `boundary="`)
	require.True(t, found)
	end := strings.Index(rest, `"`)
	require.NotEqual(t, -1, end)
	return rest[:end]
}
