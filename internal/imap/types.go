package imap

import "time"

type MessageSummary struct {
	UID     uint32
	Subject string
	From    string
	Date    time.Time
	Size    uint32
	Flags   []string
}

// MessageDetail is a rendered message: envelope fields plus the classified
// body and attachment names.
type MessageDetail struct {
	UID         uint32
	Subject     string
	From        string
	To          string
	Cc          string
	Date        time.Time
	Body        string
	BodyIsHTML  bool
	Attachments []string
}
