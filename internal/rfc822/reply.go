package rfc822

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/mail"
	"strings"

	gomail "github.com/emersion/go-message/mail"
)

// ReplyInfo is what a reply needs from the original message: threading
// headers, addressing, and (optionally) the bodies to quote.
type ReplyInfo struct {
	MessageID  string
	References string
	From       string
	ReplyTo    string
	To         []string
	Cc         []string
	Date       string
	Subject    string
	Body       string
	BodyHTML   string
}

// ExtractReplyInfo pulls reply-relevant headers from a raw message, plus the
// first plain and HTML bodies when includeBodies is set.
func ExtractReplyInfo(raw []byte, includeBodies bool) (*ReplyInfo, error) {
	r, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	header := r.Header
	info := &ReplyInfo{
		MessageID:  firstHeaderValue(header, "Message-ID", "Message-Id"),
		References: strings.TrimSpace(header.Get("References")),
		From:       header.Get("From"),
		ReplyTo:    header.Get("Reply-To"),
		To:         parseAddresses(header.Get("To")),
		Cc:         parseAddresses(header.Get("Cc")),
		Date:       header.Get("Date"),
		Subject:    header.Get("Subject"),
	}

	if !includeBodies {
		return info, nil
	}

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain") && info.Body == "":
			data, _ := io.ReadAll(part.Body)
			info.Body = string(data)
		case strings.HasPrefix(contentType, "text/html") && info.BodyHTML == "":
			data, _ := io.ReadAll(part.Body)
			info.BodyHTML = string(data)
		}
	}

	return info, nil
}

// ThreadHeaders derives In-Reply-To and References values for a reply.
func ThreadHeaders(info *ReplyInfo) (inReplyTo, references string) {
	if info == nil {
		return "", ""
	}
	messageID := strings.TrimSpace(info.MessageID)
	references = strings.TrimSpace(info.References)
	if references == "" {
		references = messageID
	} else if messageID != "" && !strings.Contains(references, messageID) {
		references += " " + messageID
	}
	return messageID, references
}

// ReplyRecipients resolves the To list for a plain reply: Reply-To when
// present, the original sender otherwise, minus ourselves.
func ReplyRecipients(info *ReplyInfo, selfAddr string) []string {
	if info == nil {
		return nil
	}
	target := strings.TrimSpace(info.ReplyTo)
	if target == "" {
		target = info.From
	}
	return dedupe(withoutSelf(parseAddresses(target), selfAddr))
}

// ReplyAllRecipients resolves To and Cc for reply-all, keeping Cc entries
// out of the To set.
func ReplyAllRecipients(info *ReplyInfo, selfAddr string) (to, cc []string) {
	if info == nil {
		return nil, nil
	}
	target := strings.TrimSpace(info.ReplyTo)
	if target == "" {
		target = info.From
	}
	to = parseAddresses(target)
	to = append(to, info.To...)
	to = dedupe(withoutSelf(to, selfAddr))

	inTo := make(map[string]bool, len(to))
	for _, addr := range to {
		inTo[strings.ToLower(addr)] = true
	}
	for _, addr := range dedupe(withoutSelf(info.Cc, selfAddr)) {
		if !inTo[strings.ToLower(addr)] {
			cc = append(cc, addr)
		}
	}
	return to, cc
}

// ReplySubject prefixes "Re: " unless the subject already carries it.
func ReplySubject(original string) string {
	trimmed := strings.TrimSpace(original)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

// ApplyQuote appends the quoted original below the user's text and returns
// the byte offset where the quote begins in the plain body. The offset feeds
// Message.QuoteIndex so a smart-quote send can drop the thread again.
func ApplyQuote(plainBody, htmlBody string, info *ReplyInfo) (plain, quotedHTML string, quoteStart int) {
	if info == nil || (info.Body == "" && info.BodyHTML == "") {
		return plainBody, htmlBody, 0
	}

	plain = plainBody
	quoteStart = len(plainBody)
	if info.Body != "" {
		plain += quoteBlock(info.From, info.Date, info.Body)
	}

	quoteContent := info.BodyHTML
	if quoteContent == "" && info.Body != "" {
		quoteContent = textToHTML(info.Body)
	}
	if quoteContent == "" {
		return plain, htmlBody, quoteStart
	}

	quoted := quoteBlockHTML(info.From, info.Date, quoteContent)
	quotedHTML = htmlBody
	if strings.TrimSpace(quotedHTML) == "" {
		quotedHTML = textToHTML(strings.TrimSpace(plainBody)) + quoted
	} else {
		quotedHTML += quoted
	}

	return plain, quotedHTML, quoteStart
}

// ExtractRecipients reads all envelope recipients (To, Cc, Bcc) from a raw
// message, for handing a stored draft to SMTP.
func ExtractRecipients(raw []byte) ([]string, error) {
	reader, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var recipients []string
	for _, field := range []string{"To", "Cc", "Bcc"} {
		list, err := reader.Header.AddressList(field)
		if err != nil {
			if err == mail.ErrHeaderNotPresent {
				continue
			}
			return nil, err
		}
		for _, addr := range list {
			recipients = append(recipients, addr.Address)
		}
	}
	return recipients, nil
}

func quoteBlock(from, date, body string) string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	switch {
	case date != "" && from != "":
		fmt.Fprintf(&sb, "On %s, %s wrote:\n", date, from)
	case from != "":
		fmt.Fprintf(&sb, "%s wrote:\n", from)
	default:
		sb.WriteString("Original message:\n")
	}
	for _, line := range strings.Split(body, "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func quoteBlockHTML(from, date, htmlContent string) string {
	sender := from
	if addr, err := mail.ParseAddress(from); err == nil && addr.Name != "" {
		sender = addr.Name
	}
	if date == "" {
		date = "an earlier date"
	}
	return fmt.Sprintf(`<br><br><div class="quote"><div class="quote_attr">On %s, %s wrote:</div><blockquote style="margin:0 0 0 .8ex;border-left:1px #ccc solid;padding-left:1ex">%s</blockquote></div>`,
		html.EscapeString(date), html.EscapeString(sender), htmlContent)
}

func textToHTML(value string) string {
	return strings.ReplaceAll(html.EscapeString(value), "\n", "<br>\n")
}

func parseAddresses(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(header)
	if err != nil {
		return parseAddressesLoose(header)
	}
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Address != "" {
			out = append(out, strings.ToLower(addr.Address))
		}
	}
	return out
}

// parseAddressesLoose salvages addresses from lists net/mail rejects, which
// real mailboxes are full of.
func parseAddressesLoose(header string) []string {
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if start := strings.LastIndex(p, "<"); start != -1 {
			if end := strings.LastIndex(p, ">"); end > start {
				if addr := strings.TrimSpace(p[start+1 : end]); addr != "" {
					out = append(out, strings.ToLower(addr))
				}
				continue
			}
		}
		if strings.Contains(p, "@") {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func withoutSelf(addresses []string, selfAddr string) []string {
	self := strings.ToLower(selfAddr)
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if strings.ToLower(addr) != self {
			out = append(out, addr)
		}
	}
	return out
}

func dedupe(addresses []string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		key := strings.ToLower(addr)
		if !seen[key] {
			seen[key] = true
			out = append(out, addr)
		}
	}
	return out
}

func firstHeaderValue(header gomail.Header, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(header.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
