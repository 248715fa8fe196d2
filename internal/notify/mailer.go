// Package notify delivers booking confirmations over SMTP with an
// iCalendar attachment. Failures surface as plain errors so a committed
// booking is never rolled back by a delivery problem.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"soulcare/internal/config"
	"soulcare/internal/domain"
	"soulcare/internal/models"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

const attachmentName = "appointment.ics"

// Mailer implements domain.Notifier over an authenticated SMTP
// transport with STARTTLS.
type Mailer struct {
	cfg        config.SMTPConfig
	clinic     config.ClinicConfig
	copywriter domain.Extractor
	logger     zerolog.Logger

	// send is swapped out in tests.
	send func(m *gomail.Message) error
}

func NewMailer(cfg config.SMTPConfig, clinic config.ClinicConfig, copywriter domain.Extractor, logger *zerolog.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	m := &Mailer{
		cfg:        cfg,
		clinic:     clinic,
		copywriter: copywriter,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
	if logger != nil {
		m.logger = logger.With().Str("component", "mailer").Logger()
	}
	return m
}

// SendConfirmation builds the invite, asks the model for subject and
// body (falling back to static copy when that call fails), and sends
// the email within the configured timeout.
func (m *Mailer) SendConfirmation(ctx context.Context, c models.Confirmation) error {
	invite, err := BuildInvite(c, InviteOptions{
		ProductName:    m.clinic.Name,
		OrganizerName:  m.clinic.OrganizerName,
		OrganizerEmail: m.clinic.OrganizerEmail,
		Location:       m.clinic.Location,
	})
	if err != nil {
		return fmt.Errorf("build invite: %w", err)
	}

	subject, body := m.emailCopy(ctx, c)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", c.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(attachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(invite)
		return err
	}))

	if err := m.sendWithTimeout(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", c.Email, err)
	}

	m.logger.Info().Str("to", c.Email).Str("date", c.Date).Str("time_slot", c.TimeSlot).Msg("confirmation sent")
	return nil
}

func (m *Mailer) emailCopy(ctx context.Context, c models.Confirmation) (string, string) {
	if m.copywriter != nil {
		subject, body, err := m.copywriter.EmailCopy(ctx, c.Name, c.Date, c.TimeSlot)
		if err == nil && subject != "" {
			return subject, body
		}
		m.logger.Warn().Err(err).Msg("model email copy failed, using fallback")
	}

	subject := fmt.Sprintf("Your appointment on %s at %s is confirmed", c.Date, c.TimeSlot)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour therapy appointment on %s at %s is confirmed. "+
			"A calendar invitation is attached.\n\nWarm regards,\n%s\nTherapist Bot\n%s\n",
		c.Name, c.Date, c.TimeSlot, m.clinic.TherapistName, m.clinic.Name,
	)
	return subject, body
}

// sendWithTimeout bounds the SMTP round-trip; gomail has no context
// support of its own.
func (m *Mailer) sendWithTimeout(ctx context.Context, msg *gomail.Message) error {
	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultSMTPTimeoutSeconds) * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- m.send(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("smtp send timed out after %s", timeout)
	}
}
