package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/phenrril/catering/internal/domain"
)

// ErrNoRecipients is returned when the domain filter leaves nobody to send to.
var ErrNoRecipients = errors.New("mail: no deliverable recipients")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers html notifications through an SMTP relay.
type SMTPSender struct {
	From     string
	FromName string
	// AllowedDomain, when set, drops recipients outside that domain.
	AllowedDomain string

	d dialer
}

func NewSMTPSender(host string, port int, user, pass, fromName, allowedDomain string) *SMTPSender {
	return &SMTPSender{
		From:          user,
		FromName:      fromName,
		AllowedDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(allowedDomain), "@")),
		d:             gomail.NewDialer(host, port, user, pass),
	}
}

func (s *SMTPSender) SendOne(ctx context.Context, name, address, subject, htmlBody string) error {
	return s.SendMany(ctx, domain.EmailMessage{
		To:      []domain.EmailAddress{{Name: name, Address: address}},
		Subject: subject,
		Content: htmlBody,
	})
}

func (s *SMTPSender) SendMany(ctx context.Context, msg domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.From, s.FromName)
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		if !s.Accepts(a.Address) {
			log.Warn().Str("to", a.Address).Msg("recipient outside allowed domain")
			continue
		}
		to = append(to, m.FormatAddress(a.Address, a.Name))
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", msg.Subject)
	if text := plainText(msg.Content); text != "" {
		m.SetBody("text/plain", text)
		m.AddAlternative("text/html", msg.Content)
	} else {
		m.SetBody("text/html", msg.Content)
	}
	return s.d.DialAndSend(m)
}

// plainText renders the paragraphs of an html body as text, one blank line
// apart, for clients that do not show html.
func plainText(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return ""
	}
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(parts, "\n\n")
}

// Accepts reports whether addr passes the AllowedDomain filter.
func (s *SMTPSender) Accepts(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}
	if s.AllowedDomain == "" {
		return true
	}
	at := strings.LastIndex(addr, "@")
	return at >= 0 && strings.EqualFold(addr[at+1:], s.AllowedDomain)
}

// LogSender stands in when SMTP is not configured: it logs and reports
// success.
type LogSender struct{}

func (LogSender) SendOne(_ context.Context, name, address, subject, _ string) error {
	log.Warn().Str("to", address).Str("name", name).Str("subject", subject).Msg("SMTP not configured, email skipped")
	return nil
}

func (LogSender) SendMany(_ context.Context, msg domain.EmailMessage) error {
	log.Warn().Int("recipients", len(msg.To)).Str("subject", msg.Subject).Msg("SMTP not configured, email skipped")
	return nil
}
