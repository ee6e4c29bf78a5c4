package message

import "strings"

// Collect walks a part tree depth-first and splits it into the parts worth
// rendering and the parts worth listing as attachments. Both slices reference
// parts of the input tree in structural order; nothing is copied or mutated.
//
// Multipart containers of every subtype are flattened identically, and
// message/rfc822 bodies are descended into as if inlined. A leaf that is
// neither text/plain, text/html, nor attachment-like is dropped: unknown
// non-attachment content has no rendering and no filename to offer.
func Collect(p *Part) (viewables, attachments []*Part) {
	c := &collector{}
	c.walk(p)
	return c.viewables, c.attachments
}

type collector struct {
	viewables   []*Part
	attachments []*Part
}

func (c *collector) walk(p *Part) {
	if p == nil {
		return
	}

	dispositionType := ""
	filename := ""
	if p.Disposition != "" {
		dispositionType, _ = HeaderParameter(p.Disposition, "")
		filename, _ = HeaderParameter(p.Disposition, "filename")
	}
	if filename == "" {
		filename, _ = HeaderParameter(p.ContentType, "name")
	}

	// A missing disposition defaults to inline. An explicit "attachment" is
	// always an attachment; anything else carrying a filename is too, and an
	// inline part with a filename is collected alongside the attachments so
	// it can be saved.
	attachment := strings.EqualFold(dispositionType, "attachment") ||
		(filename != "" && dispositionType != "" && !strings.EqualFold(dispositionType, "inline"))
	inline := (dispositionType == "" || strings.EqualFold(dispositionType, "inline")) && filename != ""

	switch body := p.Body.(type) {
	case *Multipart:
		for _, child := range body.Parts {
			c.walk(child)
		}
	case *Embedded:
		c.walk(body.Root)
	default:
		mimeType := p.MIMEType()
		switch {
		case !attachment && !inline && strings.EqualFold(mimeType, "text/html"):
			c.viewables = append(c.viewables, p)
		case !attachment && !inline && strings.EqualFold(mimeType, "text/plain"):
			c.viewables = append(c.viewables, p)
		case attachment || inline:
			c.attachments = append(c.attachments, p)
		}
	}
}
