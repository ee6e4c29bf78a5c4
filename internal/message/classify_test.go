package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafPart(contentType, disposition string, data string) *Part {
	return &Part{
		ContentType: contentType,
		Disposition: disposition,
		Body:        NewLeaf([]byte(data)),
	}
}

func TestCollectSplitsBodyAndAttachment(t *testing.T) {
	text := leafPart("text/plain; charset=utf-8", "", "hello")
	png := leafPart("image/png", `attachment; filename="a.png"`, "bytes")
	root := &Part{
		ContentType: `multipart/mixed; boundary="b"`,
		Body:        &Multipart{SubType: "mixed", Parts: []*Part{text, png}},
	}

	viewables, attachments := Collect(root)

	require.Len(t, viewables, 1)
	assert.Same(t, text, viewables[0])
	require.Len(t, attachments, 1)
	assert.Same(t, png, attachments[0])
}

// Inline parts that carry a filename are saveable content, so they land in
// the attachment list rather than the viewables.
func TestCollectInlineWithFilenameIsAttachment(t *testing.T) {
	jpg := leafPart("image/jpeg", `inline; filename="pic.jpg"`, "bytes")

	viewables, attachments := Collect(jpg)

	assert.Empty(t, viewables)
	require.Len(t, attachments, 1)
	assert.Same(t, jpg, attachments[0])
}

func TestCollectFlattensNestedMultipart(t *testing.T) {
	plain := leafPart("text/plain", "", "plain")
	html := leafPart("text/html", "", "<p>html</p>")
	alternative := &Part{
		ContentType: `multipart/alternative; boundary="inner"`,
		Body:        &Multipart{SubType: "alternative", Parts: []*Part{plain, html}},
	}
	pdf := leafPart("application/pdf", `attachment; filename="doc.pdf"`, "pdf")
	root := &Part{
		ContentType: `multipart/mixed; boundary="outer"`,
		Body:        &Multipart{SubType: "mixed", Parts: []*Part{alternative, pdf}},
	}

	viewables, attachments := Collect(root)

	require.Len(t, viewables, 2)
	assert.Same(t, plain, viewables[0])
	assert.Same(t, html, viewables[1])
	require.Len(t, attachments, 1)
	assert.Same(t, pdf, attachments[0])
}

func TestCollectDescendsEmbeddedMessage(t *testing.T) {
	inner := leafPart("text/plain", "", "forwarded body")
	embedded := &Part{
		ContentType: "message/rfc822",
		Body:        &Embedded{Root: inner},
	}

	viewables, attachments := Collect(embedded)

	require.Len(t, viewables, 1)
	assert.Same(t, inner, viewables[0])
	assert.Empty(t, attachments)
}

// A leaf that is neither text nor attachment-like has nothing to offer and
// is dropped from both lists.
func TestCollectDropsUnclassifiedLeaf(t *testing.T) {
	blob := leafPart("application/octet-stream", "", "opaque")

	viewables, attachments := Collect(blob)

	assert.Empty(t, viewables)
	assert.Empty(t, attachments)
}

func TestCollectFilenameFromContentTypeName(t *testing.T) {
	// No disposition filename, but a Content-Type name parameter plus an
	// explicit attachment disposition still classifies as attachment.
	part := leafPart(`application/zip; name="archive.zip"`, "attachment", "zip")

	viewables, attachments := Collect(part)

	assert.Empty(t, viewables)
	require.Len(t, attachments, 1)
	assert.Equal(t, "archive.zip", attachments[0].Filename())
}

func TestCollectMissingContentTypeDefaultsToTextPlain(t *testing.T) {
	part := &Part{Body: NewLeaf([]byte("implicit plain"))}

	viewables, attachments := Collect(part)

	require.Len(t, viewables, 1)
	assert.Empty(t, attachments)
	assert.Equal(t, "text/plain", viewables[0].MIMEType())
}

func TestCollectNilPart(t *testing.T) {
	viewables, attachments := Collect(nil)
	assert.Empty(t, viewables)
	assert.Empty(t, attachments)
}
