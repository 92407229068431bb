package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(to, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendInvitation(ctx context.Context, inv *domain.Invitation, magicLink, assessmentName string) error {
	name := inv.VendorEmail
	if inv.VendorName != nil {
		name = *inv.VendorName
	}

	subject := fmt.Sprintf("Self-assessment request: %s", assessmentName)
	plainText := fmt.Sprintf(
		"Hello %s,\n\nYou have been asked to complete a security self-assessment (%s).\n\nOpen the link below to begin. No account is needed; the link is your access credential, so do not forward it.\n\n%s\n\nThe link expires on %s.",
		name, assessmentName, magicLink, inv.ExpiresAt.Format("January 2, 2006"))
	if inv.Message != nil && *inv.Message != "" {
		plainText += fmt.Sprintf("\n\nMessage from the requester:\n%s", *inv.Message)
	}
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Security Self-Assessment Request</h2>
				<p>Hello %s,</p>
				<p>You have been asked to complete a security self-assessment: <strong>%s</strong>.</p>
				<p><a href="%s">Start the self-assessment</a></p>
				<p>This link expires on <strong>%s</strong>. It is your access credential; do not forward it.</p>
			</body>
		</html>
	`, name, assessmentName, magicLink, inv.ExpiresAt.Format("January 2, 2006"))

	return s.send(inv.VendorEmail, name, subject, plainText, htmlContent)
}

func (s *emailService) SendExpiryReminder(ctx context.Context, inv *domain.Invitation, magicLink string) error {
	name := inv.VendorEmail
	if inv.VendorName != nil {
		name = *inv.VendorName
	}

	subject := "Reminder: your self-assessment link expires soon"
	plainText := fmt.Sprintf(
		"Hello %s,\n\nYour security self-assessment link expires on %s. Please complete and submit your answers before then.\n\n%s",
		name, inv.ExpiresAt.Format("January 2, 2006"), magicLink)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<p>Hello %s,</p>
				<p>Your security self-assessment link expires on <strong>%s</strong>.</p>
				<p><a href="%s">Continue the self-assessment</a></p>
			</body>
		</html>
	`, name, inv.ExpiresAt.Format("January 2, 2006"), magicLink)

	return s.send(inv.VendorEmail, name, subject, plainText, htmlContent)
}

func (s *emailService) SendCompletionNotice(ctx context.Context, to string, inv *domain.Invitation, assessmentName string) error {
	vendor := inv.VendorEmail
	if inv.VendorName != nil {
		vendor = *inv.VendorName
	}

	subject := fmt.Sprintf("Vendor self-assessment submitted: %s", assessmentName)
	plainText := fmt.Sprintf(
		"%s has submitted their self-assessment for %s. The comparison view is now available.",
		vendor, assessmentName)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<p><strong>%s</strong> has submitted their self-assessment for <strong>%s</strong>.</p>
				<p>The comparison view is now available.</p>
			</body>
		</html>
	`, vendor, assessmentName)

	return s.send(to, "", subject, plainText, htmlContent)
}
