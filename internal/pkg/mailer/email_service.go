// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendGradingCompleted(toEmail, submissionTitle string, questionsGraded int) error
	SendGradingFailed(toEmail, submissionTitle, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendGradingCompleted(toEmail, submissionTitle string, questionsGraded int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Grading Completed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Grading finished</h2>
			<p>The submission <b>%s</b> has been graded.</p>
			<p>%d questions were scored. Open the dashboard to review the results.</p>
		</div>
	`, submissionTitle, questionsGraded)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send completion mail to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}

func (s *emailService) SendGradingFailed(toEmail, submissionTitle, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Grading Failed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Grading could not be completed</h2>
			<p>The submission <b>%s</b> failed to grade.</p>
			<p>Reason: %s</p>
			<p>You can retry from the dashboard; partial progress is preserved.</p>
		</div>
	`, submissionTitle, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure mail to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
