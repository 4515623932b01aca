package notification

import (
	"fmt"

	"gutschein/models"
	"gutschein/utils"

	"gopkg.in/gomail.v2"
)

// Mailer sends voucher mails over SMTP. It is only invoked from the queue
// worker, never inline with webhook handling.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a mailer for the given SMTP account.
func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

// SendVoucherIssued mails the voucher code to the recipient.
func (m *Mailer) SendVoucherIssued(v *models.Voucher) error {
	body := fmt.Sprintf("Hallo! Dein Gutschein-Code lautet: %s. Wert: %s €",
		v.Code, utils.FormatCents(v.AmountCents))
	if v.Message != "" {
		body += "\n\n" + v.Message
	}
	return m.send(v.RecipientEmail, "Dein Gutschein", body)
}

// SendVoucherRedeemed mails the redemption confirmation.
func (m *Mailer) SendVoucherRedeemed(v *models.Voucher) error {
	body := fmt.Sprintf("Dein Gutschein %s über %s € wurde erfolgreich bezahlt und eingelöst.",
		v.Code, utils.FormatCents(v.AmountCents))
	return m.send(v.RecipientEmail, "Gutschein eingelöst", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	return nil
}
