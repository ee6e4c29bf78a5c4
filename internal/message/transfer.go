package message

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/quotedprintable"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ErrNoBody reports that a part has no leaf body to read. It is distinct
// from a decode failure, which is returned as its own error.
var ErrNoBody = errors.New("message: part has no body")

var logger = zap.NewNop()

// SetLogger routes the package's absorbed-failure diagnostics (partial
// base64, charset fallback) to the given logger.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// TransferDecoder wraps r with a decoder for the declared
// Content-Transfer-Encoding. Any parameters trailing the encoding name are
// ignored. Unknown encodings, 7bit, 8bit and binary pass through unchanged.
// The base64 decoder tolerates CRLF line breaks.
func TransferDecoder(encoding string, r io.Reader) io.Reader {
	name, _ := HeaderParameter(encoding, "")
	switch strings.ToLower(name) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// DecodeBody transfer-decodes a leaf part's raw content into a temp file and
// replaces the part's body with the file-backed result. A truncated or
// corrupt base64 stream is tolerated: whatever decoded before the bad
// sequence is kept and no error is returned. Parts without a leaf body
// return ErrNoBody.
func DecodeBody(p *Part) error {
	leaf, ok := p.Body.(*Leaf)
	if !ok || leaf == nil {
		return ErrNoBody
	}

	src, err := leaf.Open()
	if err != nil {
		return fmt.Errorf("open part body: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "mailwire-body-")
	if err != nil {
		return fmt.Errorf("create body sink: %w", err)
	}

	n, err := io.Copy(tmp, TransferDecoder(p.TransferEncoding, src))
	if err != nil {
		var corrupt base64.CorruptInputError
		if !errors.As(err, &corrupt) {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("decode part body: %w", err)
		}
		// Keep the partial prefix; truncated base64 is common in the wild.
		logger.Debug("corrupt base64 body, keeping partial content",
			zap.Int64("decoded_bytes", n))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close body sink: %w", err)
	}

	leaf.Remove()
	p.Body = newFileLeaf(tmp.Name(), n)
	return nil
}

// TextFromPart buffers a text part's (already transfer-decoded) body and
// converts it to a Unicode string using the charset parameter of the part's
// Content-Type, us-ascii when absent. Parts without a leaf body return
// ErrNoBody; charset and read failures return their own errors so callers
// can tell "no body" from "body present but undecodable".
func TextFromPart(p *Part) (string, error) {
	if !MimeTypeMatches(p.MIMEType(), "text/*") {
		return "", fmt.Errorf("message: part is %s, not text", p.MIMEType())
	}
	leaf, ok := p.Body.(*Leaf)
	if !ok || leaf == nil {
		return "", ErrNoBody
	}

	src, err := leaf.Open()
	if err != nil {
		return "", fmt.Errorf("open text body: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read text body: %w", err)
	}

	charset, _ := HeaderParameter(p.ContentType, "charset")
	decoded, err := decodeCharset(raw, charset)
	if err != nil {
		logger.Debug("text body charset decode failed",
			zap.String("charset", charset), zap.Error(err))
		return "", fmt.Errorf("decode charset %q: %w", charset, err)
	}
	return decoded, nil
}

func decodeCharset(raw []byte, charset string) (string, error) {
	name := normalizeCharset(charset)
	switch name {
	case "us-ascii", "utf-8":
		return string(raw), nil
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unsupported charset %q", charset)
	}
	converted, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(converted), nil
}

// normalizeCharset maps the charset aliases seen in real mail onto names the
// IANA index resolves. Absent charsets default to us-ascii.
func normalizeCharset(charset string) string {
	name := strings.ToLower(strings.TrimSpace(charset))
	switch name {
	case "":
		return "us-ascii"
	case "ascii":
		return "us-ascii"
	case "cp936", "ms936", "gb2312", "gbk":
		return "gbk"
	case "ks_c_5601-1987", "ks_c_5601_1987", "ksc5601":
		return "euc-kr"
	case "sjis", "ms_kanji":
		return "shift_jis"
	case "latin1":
		return "iso-8859-1"
	default:
		return name
	}
}
