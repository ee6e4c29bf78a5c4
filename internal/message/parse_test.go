package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartFixture = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: =?utf-8?Q?caf=C3=A9_plans?=\r\n" +
	"Date: Tue, 25 Aug 2026 10:00:00 +0200\r\n" +
	"Message-Id: <fixture-1@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8=\r\n" +
	"--outer\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"Content-Disposition: attachment; filename=\"a.png\"\r\n" +
	"\r\n" +
	"UE5H\r\n" +
	"--outer--\r\n"

func TestParseMultipart(t *testing.T) {
	env, err := Parse(strings.NewReader(multipartFixture))
	require.NoError(t, err)

	assert.Equal(t, "café plans", env.Subject)
	assert.Equal(t, "Alice <alice@example.com>", env.From)
	assert.Equal(t, "bob@example.com", env.To)
	assert.Equal(t, "<fixture-1@example.com>", env.MessageID)

	mp, ok := env.Root.Body.(*Multipart)
	require.True(t, ok)
	assert.Equal(t, "mixed", mp.SubType)
	require.Len(t, mp.Parts, 2)

	text := mp.Parts[0]
	assert.Equal(t, "text/plain", text.MIMEType())
	// Leaf bodies keep their wire encoding until DecodeBody runs.
	assert.Equal(t, "aGVsbG8=", strings.TrimRight(partContent(t, text), "\r\n"))
	assert.Equal(t, "base64", text.TransferEncoding)

	png := mp.Parts[1]
	assert.Equal(t, "image/png", png.MIMEType())
	assert.Equal(t, "a.png", png.Filename())
}

func TestParseSimpleMessage(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Subject: hi\r\n" +
		"\r\n" +
		"just a body\r\n"

	env, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "text/plain", env.Root.MIMEType())
	leaf, ok := env.Root.Body.(*Leaf)
	require.True(t, ok)
	src, err := leaf.Open()
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, "just a body\r\n", readAll(t, src))
}

func TestParseEmbeddedMessage(t *testing.T) {
	raw := "From: carol@example.com\r\n" +
		"Subject: fwd\r\n" +
		"Content-Type: message/rfc822\r\n" +
		"\r\n" +
		"From: dave@example.com\r\n" +
		"Subject: original\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"inner body\r\n"

	env, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)

	embedded, ok := env.Root.Body.(*Embedded)
	require.True(t, ok)
	require.NotNil(t, embedded.Root)
	assert.Equal(t, "text/plain", embedded.Root.MIMEType())
}

func TestParseMultipartWithoutBoundary(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Content-Type: multipart/mixed\r\n" +
		"\r\n" +
		"body\r\n"

	_, err := Parse(strings.NewReader(raw))
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not a message"))
	assert.Error(t, err)
}
