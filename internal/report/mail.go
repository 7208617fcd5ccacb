package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/smtp"

	gomail "github.com/emersion/go-message/mail"

	"github.com/nhle/task-tracker/internal/model"
)

// MailDispatcher delivers reports as plain-text email over SMTP.
type MailDispatcher struct {
	addr       string
	from       string
	recipients []string

	// send is swappable for tests.
	send func(addr, from string, to []string, msg []byte) error
}

// NewMailDispatcher creates a dispatcher sending through the SMTP server
// at addr (host:port).
func NewMailDispatcher(addr, from string, recipients []string) *MailDispatcher {
	return &MailDispatcher{
		addr:       addr,
		from:       from,
		recipients: recipients,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Dispatch renders the report into a MIME message and sends it to every
// configured recipient.
func (d *MailDispatcher) Dispatch(ctx context.Context, r *model.DailyReport) error {
	if len(d.recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := d.buildMessage(r)
	if err != nil {
		return err
	}
	if err := d.send(d.addr, d.from, d.recipients, msg); err != nil {
		return fmt.Errorf("sending report mail: %w", err)
	}
	return nil
}

// buildMessage assembles the MIME message for a report.
func (d *MailDispatcher) buildMessage(r *model.DailyReport) ([]byte, error) {
	from, err := gomail.ParseAddress(d.from)
	if err != nil {
		return nil, fmt.Errorf("parsing sender address: %w", err)
	}

	to := make([]*gomail.Address, 0, len(d.recipients))
	for _, rcpt := range d.recipients {
		addr, err := gomail.ParseAddress(rcpt)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", rcpt, err)
		}
		to = append(to, addr)
	}

	var header gomail.Header
	header.SetDate(r.GeneratedAt)
	header.SetAddressList("From", []*gomail.Address{from})
	header.SetAddressList("To", to)
	header.SetSubject("Daily task report " + r.Day.Format("2006-01-02"))

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating mail writer: %w", err)
	}
	if _, err := io.WriteString(w, RenderText(r)); err != nil {
		return nil, fmt.Errorf("writing mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing mail writer: %w", err)
	}
	return buf.Bytes(), nil
}
