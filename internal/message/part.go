// Package message implements the MIME side of mail handling: a structural
// Part tree, header utilities (RFC 2822 folding, RFC 2047 encoded words,
// parameter lookup), content-transfer-encoding decoding, and classification
// of a parsed message into viewable bodies and attachments.
package message

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Part is a node in a message's structural tree. Header values are kept raw
// (folded, possibly encoded); accessors and HeaderParameter interpret them.
type Part struct {
	ContentType      string
	Disposition      string
	ContentID        string
	TransferEncoding string
	Body             Body
}

// Body is the content of a Part: exactly one of *Leaf, *Multipart or
// *Embedded. Classification and encoding switch over these variants.
type Body interface {
	isBody()
}

// Leaf holds raw byte content, either in memory or in a temp file written by
// DecodeBody. The owning Part is responsible for calling Remove on
// file-backed leaves once it is done with them.
type Leaf struct {
	data []byte
	path string
	size int64
}

// Multipart is an ordered sequence of child parts under one boundary.
type Multipart struct {
	SubType string
	Parts   []*Part
}

// Embedded is a message/rfc822 body: a complete message nested as a part.
type Embedded struct {
	Root *Part
}

func (*Leaf) isBody()      {}
func (*Multipart) isBody() {}
func (*Embedded) isBody()  {}

func NewLeaf(data []byte) *Leaf {
	return &Leaf{data: data, size: int64(len(data))}
}

func newFileLeaf(path string, size int64) *Leaf {
	return &Leaf{path: path, size: size}
}

// Open returns a reader over the leaf's raw bytes.
func (l *Leaf) Open() (io.ReadCloser, error) {
	if l.path != "" {
		return os.Open(l.path)
	}
	return io.NopCloser(bytes.NewReader(l.data)), nil
}

func (l *Leaf) Size() int64 { return l.size }

// Remove deletes the temp file backing a decoded leaf, if any.
func (l *Leaf) Remove() error {
	if l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	return os.Remove(path)
}

// MIMEType returns the part's media type, lowercased, from the Content-Type
// header. Parts without a Content-Type default to text/plain.
func (p *Part) MIMEType() string {
	mimeType, ok := HeaderParameter(p.ContentType, "")
	if !ok || mimeType == "" {
		return "text/plain"
	}
	return strings.ToLower(mimeType)
}

// Filename returns the part's attachment filename: the Content-Disposition
// filename parameter, or the Content-Type name parameter as a fallback.
func (p *Part) Filename() string {
	if name, ok := HeaderParameter(p.Disposition, "filename"); ok && name != "" {
		return DecodeHeader(name)
	}
	if name, ok := HeaderParameter(p.ContentType, "name"); ok && name != "" {
		return DecodeHeader(name)
	}
	return ""
}
