package message

import (
	"bufio"
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// Envelope carries the top-level headers of a parsed message next to its
// part tree.
type Envelope struct {
	Subject   string
	From      string
	To        string
	Cc        string
	Date      string
	MessageID string
	Root      *Part
}

// Parse reads a raw RFC 822 message into a Part tree for classification.
// Leaf bodies stay in their wire transfer encoding; DecodeBody produces the
// decoded form on demand.
func Parse(r io.Reader) (*Envelope, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	root := &Part{
		ContentType:      msg.Header.Get("Content-Type"),
		Disposition:      msg.Header.Get("Content-Disposition"),
		ContentID:        msg.Header.Get("Content-Id"),
		TransferEncoding: msg.Header.Get("Content-Transfer-Encoding"),
	}
	if err := parseBody(root, msg.Body); err != nil {
		return nil, err
	}

	return &Envelope{
		Subject:   UnfoldAndDecode(msg.Header.Get("Subject")),
		From:      UnfoldAndDecode(msg.Header.Get("From")),
		To:        UnfoldAndDecode(msg.Header.Get("To")),
		Cc:        UnfoldAndDecode(msg.Header.Get("Cc")),
		Date:      msg.Header.Get("Date"),
		MessageID: Unfold(msg.Header.Get("Message-Id")),
		Root:      root,
	}, nil
}

func parseBody(p *Part, r io.Reader) error {
	mediaType := p.MIMEType()

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary, ok := HeaderParameter(p.ContentType, "boundary")
		if !ok || boundary == "" {
			return fmt.Errorf("multipart part without boundary")
		}
		mp := &Multipart{SubType: strings.TrimPrefix(mediaType, "multipart/")}
		reader := multipart.NewReader(r, boundary)
		for {
			child, err := reader.NextRawPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("read multipart child: %w", err)
			}
			node := partFromHeader(child.Header)
			if err := parseBody(node, child); err != nil {
				return err
			}
			mp.Parts = append(mp.Parts, node)
		}
		p.Body = mp
		return nil

	case mediaType == "message/rfc822":
		sub, err := Parse(r)
		if err != nil {
			return fmt.Errorf("parse embedded message: %w", err)
		}
		p.Body = &Embedded{Root: sub.Root}
		return nil

	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read part body: %w", err)
		}
		p.Body = NewLeaf(data)
		return nil
	}
}

func partFromHeader(h textproto.MIMEHeader) *Part {
	return &Part{
		ContentType:      h.Get("Content-Type"),
		Disposition:      h.Get("Content-Disposition"),
		ContentID:        h.Get("Content-Id"),
		TransferEncoding: h.Get("Content-Transfer-Encoding"),
	}
}
