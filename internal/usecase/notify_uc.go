package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
)

const missingContentMsg = "You must enter both a Subject and some message Content before sending the message."

// NotifyUC resolves recipients among customers and hands one composed
// message to the mail transport.
type NotifyUC struct {
	Customers domain.CustomerRepo
	Mailer    domain.Mailer
	SiteName  string
	// SelfOnly restricts delivery to the signed-in user's own address.
	SelfOnly bool
}

type Option struct {
	ID          uuid.UUID
	DisplayText string
}

// Recipients lists customers that have an email, by last then first name.
func (uc *NotifyUC) Recipients(ctx context.Context) ([]domain.Customer, error) {
	return uc.Customers.ListAddressable(ctx)
}

// Options splits the addressable customers into selected and available
// lists for the two-box picker.
func (uc *NotifyUC) Options(ctx context.Context, selected []string) ([]Option, []Option, error) {
	all, err := uc.Customers.ListAddressable(ctx)
	if err != nil {
		return nil, nil, err
	}
	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[strings.TrimSpace(s)] = struct{}{}
	}
	sel := []Option{}
	avail := []Option{}
	for _, c := range all {
		o := Option{ID: c.ID, DisplayText: c.EmailSummary()}
		if _, ok := want[c.ID.String()]; ok {
			sel = append(sel, o)
		} else {
			avail = append(avail, o)
		}
	}
	byText := func(list []Option) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].DisplayText < list[j].DisplayText })
	}
	byText(sel)
	byText(avail)
	return sel, avail, nil
}

func (uc *NotifyUC) SendOne(ctx context.Context, who domain.Identity, customerID, subject, content string) domain.NotifyResult {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(content) == "" {
		return domain.NotifyResult{Status: domain.NotifyInvalid, Selected: 1, Message: missingContentMsg}
	}
	id, err := uuid.Parse(strings.TrimSpace(customerID))
	if err != nil {
		return domain.NotifyResult{Status: domain.NotifyInvalid, Message: "Select a customer to send the message to."}
	}
	c, err := uc.Customers.FindByID(ctx, id, domain.LoadPlain)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotifyResult{Status: domain.NotifyNoRecipient, Selected: 1, Message: "Message NOT sent! No Customer."}
	}
	if err != nil {
		log.Error().Err(err).Str("customer", customerID).Msg("notify lookup")
		return domain.NotifyResult{Status: domain.NotifyFailed, Selected: 1, Message: "Error: Could not look up the customer."}
	}
	addr := c.EmailAddress()
	if addr == "" {
		return domain.NotifyResult{Status: domain.NotifyNoRecipient, Selected: 1, Message: "Message NOT sent! " + c.Summary() + " has no email address."}
	}
	if !uc.accepted(addr) {
		return domain.NotifyResult{Status: domain.NotifyNotAllowed, Selected: 1, Message: "Message NOT sent! " + addr + " cannot receive email from this site."}
	}
	if !uc.allowed(who, addr) {
		return domain.NotifyResult{Status: domain.NotifyNotAllowed, Selected: 1, Message: "Sorry but you can only send an email to yourself in this demo."}
	}
	if err := uc.Mailer.SendOne(ctx, c.Summary(), addr, subject, domain.ComposeBody(content, uc.SiteName)); err != nil {
		log.Error().Err(err).Str("to", addr).Msg("email send")
		return domain.NotifyResult{Status: domain.NotifyFailed, Selected: 1, Message: "Error: Could not send email message to " + c.Summary()}
	}
	return domain.NotifyResult{Status: domain.NotifySent, Sent: 1, Selected: 1, Message: "Message sent to Customer : " + c.Summary()}
}

func (uc *NotifyUC) SendMany(ctx context.Context, who domain.Identity, selected []string, subject, content string) domain.NotifyResult {
	ids, err := parseSelection(selected)
	if err != nil {
		return domain.NotifyResult{Status: domain.NotifyInvalid, Message: err.Error()}
	}
	n := len(ids)
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(content) == "" {
		return domain.NotifyResult{Status: domain.NotifyInvalid, Selected: n, Message: missingContentMsg}
	}
	found, err := uc.Customers.FindAddressable(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("notify resolve")
		return domain.NotifyResult{Status: domain.NotifyFailed, Selected: n, Message: "Error: Could not look up the selected customers."}
	}
	to := make([]domain.EmailAddress, 0, len(found))
	for _, c := range found {
		if uc.allowed(who, c.EmailAddress()) {
			to = append(to, domain.EmailAddress{Name: c.FullName(), Address: c.EmailAddress()})
		}
	}
	if len(to) == 0 {
		msg := fmt.Sprintf("Message not sent: 0 of the %d %s selected can receive it.", n, plural(n))
		if uc.SelfOnly {
			msg += " Sorry but you can only send an email to yourself in this demo and you were not selected."
		}
		return domain.NotifyResult{Status: domain.NotifyNotAllowed, Selected: n, Message: msg}
	}
	msg := domain.EmailMessage{To: to, Subject: subject, Content: domain.ComposeBody(content, uc.SiteName)}
	if err := uc.Mailer.SendMany(ctx, msg); err != nil {
		log.Error().Err(err).Int("recipients", len(to)).Msg("email send many")
		return domain.NotifyResult{Status: domain.NotifyFailed, Selected: n, Message: "Error: Could not send email message to the selected customers."}
	}
	return domain.NotifyResult{
		Status:   domain.NotifySent,
		Sent:     len(to),
		Selected: n,
		Message:  fmt.Sprintf("Message sent to %d %s out of the %d %s selected.", len(to), plural(len(to)), n, plural(n)),
	}
}

// accepted asks the transport, when it filters addresses, whether addr can
// be delivered to.
func (uc *NotifyUC) accepted(addr string) bool {
	f, ok := uc.Mailer.(domain.RecipientFilter)
	return !ok || f.Accepts(addr)
}

func (uc *NotifyUC) allowed(who domain.Identity, addr string) bool {
	if addr == "" {
		return false
	}
	if !uc.accepted(addr) {
		return false
	}
	if !uc.SelfOnly {
		return true
	}
	return strings.EqualFold(addr, who.Name)
}

func parseSelection(selected []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(selected))
	ids := make([]uuid.UUID, 0, len(selected))
	for _, s := range selected {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.New("The selection contains an unknown customer.")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("Select at least one customer to send the message to.")
	}
	return ids, nil
}

func plural(n int) string {
	if n == 1 {
		return "Customer"
	}
	return "Customers"
}
