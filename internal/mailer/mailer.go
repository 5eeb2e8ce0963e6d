// Package mailer delivers confirmation requests to presenters over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/mohitb777/conference-scheduler/internal/models"
	"github.com/mohitb777/conference-scheduler/pkg/config"
)

// Mailer sends the presentation slot confirmation email. Each message
// carries three links built from the single-use token: confirm, deny and
// request reschedule.
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	conference  string
	frontendURL string
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// New builds a Mailer from the SMTP and conference configuration. tokenTTL
// is the confirmation-token lifetime quoted in the message body.
func New(smtp config.SMTPConfig, conference config.ConferenceConfig, tokenTTL time.Duration, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 48 * time.Hour
	}
	return &Mailer{
		dialer:      gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password),
		from:        smtp.From,
		conference:  conference.Name,
		frontendURL: strings.TrimRight(conference.FrontendURL, "/"),
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// SendConfirmation mails the slot details plus the confirm, deny and
// reschedule links for the paper's assignment.
func (m *Mailer) SendConfirmation(ctx context.Context, paper *models.Paper, assignment *models.Assignment, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", paper.Email)
	msg.SetHeader("Subject", fmt.Sprintf("%s: please confirm your presentation slot (Paper %d)", m.conference, paper.PaperID))
	msg.SetBody("text/html", m.body(paper, assignment, token))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", paper.Email, err)
	}

	m.logger.Info("confirmation email sent",
		zap.Int64("paper_id", paper.PaperID),
		zap.String("email", paper.Email))
	return nil
}

func (m *Mailer) body(paper *models.Paper, assignment *models.Assignment, token string) string {
	confirmURL := fmt.Sprintf("%s/confirm?token=%s&action=confirm", m.frontendURL, token)
	denyURL := fmt.Sprintf("%s/confirm?token=%s&action=deny", m.frontendURL, token)
	rescheduleURL := fmt.Sprintf("%s/confirm?token=%s&action=reschedule", m.frontendURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Dear author,</p>")
	fmt.Fprintf(&b, "<p>Your paper <strong>%s</strong> (ID %d) has been scheduled for presentation at %s.</p>",
		html.EscapeString(paper.Title), paper.PaperID, html.EscapeString(m.conference))
	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	fmt.Fprintf(&b, "<tr><td>Session</td><td>%s</td></tr>", html.EscapeString(assignment.Session))
	fmt.Fprintf(&b, "<tr><td>Date</td><td>%s</td></tr>", html.EscapeString(assignment.Date))
	fmt.Fprintf(&b, "<tr><td>Time Slot</td><td>%s</td></tr>", html.EscapeString(assignment.TimeSlot))
	fmt.Fprintf(&b, "<tr><td>Venue</td><td>%s</td></tr>", html.EscapeString(assignment.Venue))
	fmt.Fprintf(&b, "<tr><td>Track</td><td>%s</td></tr>", html.EscapeString(assignment.Track))
	fmt.Fprintf(&b, "<tr><td>Mode</td><td>%s</td></tr>", html.EscapeString(assignment.Mode))
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><a href=\"%s\">Confirm</a> &nbsp; <a href=\"%s\">Deny</a> &nbsp; <a href=\"%s\">Request Reschedule</a></p>",
		confirmURL, denyURL, rescheduleURL)
	fmt.Fprintf(&b, "<p>The links above are valid for %d hours and can be used once.</p>", int(m.tokenTTL.Hours()))
	fmt.Fprintf(&b, "<p>Regards,<br/>%s Organizing Committee</p>", html.EscapeString(m.conference))
	return b.String()
}
