package rfc822

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replyFixture = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com, carol@example.com\r\n" +
	"Cc: dave@example.com\r\n" +
	"Date: Tue, 25 Aug 2026 10:00:00 +0200\r\n" +
	"Subject: project status\r\n" +
	"Message-ID: <orig-1@example.com>\r\n" +
	"References: <thread-0@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"original body\r\n"

func TestExtractReplyInfo(t *testing.T) {
	info, err := ExtractReplyInfo([]byte(replyFixture), true)
	require.NoError(t, err)

	assert.Equal(t, "<orig-1@example.com>", info.MessageID)
	assert.Equal(t, "<thread-0@example.com>", info.References)
	assert.Equal(t, "project status", info.Subject)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, info.To)
	assert.Equal(t, []string{"dave@example.com"}, info.Cc)
	assert.Contains(t, info.Body, "original body")
}

func TestExtractReplyInfoWithoutBodies(t *testing.T) {
	info, err := ExtractReplyInfo([]byte(replyFixture), false)
	require.NoError(t, err)
	assert.Empty(t, info.Body)
	assert.Empty(t, info.BodyHTML)
}

func TestThreadHeaders(t *testing.T) {
	inReplyTo, references := ThreadHeaders(&ReplyInfo{
		MessageID:  "<orig-1@example.com>",
		References: "<thread-0@example.com>",
	})
	assert.Equal(t, "<orig-1@example.com>", inReplyTo)
	assert.Equal(t, "<thread-0@example.com> <orig-1@example.com>", references)

	inReplyTo, references = ThreadHeaders(&ReplyInfo{MessageID: "<only@example.com>"})
	assert.Equal(t, "<only@example.com>", inReplyTo)
	assert.Equal(t, "<only@example.com>", references)

	inReplyTo, references = ThreadHeaders(nil)
	assert.Empty(t, inReplyTo)
	assert.Empty(t, references)
}

func TestReplyRecipientsPrefersReplyTo(t *testing.T) {
	info := &ReplyInfo{
		From:    "Alice <alice@example.com>",
		ReplyTo: "list@example.com",
	}
	assert.Equal(t, []string{"list@example.com"}, ReplyRecipients(info, "me@example.com"))

	info.ReplyTo = ""
	assert.Equal(t, []string{"alice@example.com"}, ReplyRecipients(info, "me@example.com"))
}

func TestReplyAllRecipientsExcludeSelf(t *testing.T) {
	info := &ReplyInfo{
		From: "alice@example.com",
		To:   []string{"me@example.com", "bob@example.com"},
		Cc:   []string{"dave@example.com", "alice@example.com"},
	}
	to, cc := ReplyAllRecipients(info, "me@example.com")

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, to)
	assert.Equal(t, []string{"dave@example.com"}, cc)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: hi", ReplySubject("hi"))
	assert.Equal(t, "Re: hi", ReplySubject("Re: hi"))
	assert.Equal(t, "re: hi", ReplySubject("re: hi"))
	assert.Equal(t, "", ReplySubject("  "))
}

func TestApplyQuote(t *testing.T) {
	info := &ReplyInfo{
		From: "alice@example.com",
		Date: "Tue, 25 Aug 2026 10:00:00 +0200",
		Body: "first line\nsecond line",
	}
	plain, html, quoteStart := ApplyQuote("my reply", "", info)

	assert.Equal(t, len("my reply"), quoteStart)
	assert.True(t, strings.HasPrefix(plain, "my reply"))
	assert.Contains(t, plain, "> first line")
	assert.Contains(t, plain, "> second line")
	assert.Contains(t, plain, "alice@example.com wrote:")
	assert.Contains(t, html, "<blockquote")
}

func TestApplyQuoteNothingToQuote(t *testing.T) {
	plain, html, quoteStart := ApplyQuote("body", "<p>body</p>", &ReplyInfo{})
	assert.Equal(t, "body", plain)
	assert.Equal(t, "<p>body</p>", html)
	assert.Zero(t, quoteStart)
}

func TestExtractRecipients(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Cc: carol@example.com\r\n" +
		"Bcc: hidden@example.com\r\n" +
		"Subject: draft\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	recipients, err := ExtractRecipients([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com", "hidden@example.com"}, recipients)
}

func TestExtractRecipientsNonePresent(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Subject: draft\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	recipients, err := ExtractRecipients([]byte(raw))
	require.NoError(t, err)
	assert.Empty(t, recipients)
}
