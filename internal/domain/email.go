package domain

import (
	"context"
	"html"
)

type EmailAddress struct {
	Name    string
	Address string
}

type EmailMessage struct {
	To      []EmailAddress
	Subject string
	Content string
}

type Mailer interface {
	SendOne(ctx context.Context, name, address, subject, htmlBody string) error
	SendMany(ctx context.Context, msg EmailMessage) error
}

// RecipientFilter is implemented by transports that refuse some addresses.
// Callers check it before counting recipients.
type RecipientFilter interface {
	Accepts(address string) bool
}

// ComposeBody wraps user content in the fixed notification fragment.
func ComposeBody(content, site string) string {
	return "<p>" + html.EscapeString(content) + "</p><p>Please access the <strong>" +
		html.EscapeString(site) + "</strong> web site to review.</p>"
}

type NotifyStatus int

const (
	NotifySent NotifyStatus = iota
	NotifyInvalid
	NotifyNotAllowed
	NotifyNoRecipient
	NotifyFailed
)

func (s NotifyStatus) String() string {
	switch s {
	case NotifySent:
		return "sent"
	case NotifyInvalid:
		return "invalid"
	case NotifyNotAllowed:
		return "not_allowed"
	case NotifyNoRecipient:
		return "no_recipient"
	case NotifyFailed:
		return "failed"
	}
	return "unknown"
}

type NotifyResult struct {
	Status   NotifyStatus
	Sent     int
	Selected int
	Message  string
}

func (r NotifyResult) OK() bool { return r.Status == NotifySent }
