// internal/common/email/email.go
// Email delivery shared by auth verification codes and security alerts

package email

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email through a configured provider
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender implements Sender using plain SMTP
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP email sender
func NewSMTPSender(host, port, username, password, from string) Sender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email using SMTP
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	message := fmt.Sprintf("From: %s\r\n", s.from)
	message += fmt.Sprintf("To: %s\r\n", msg.To)
	message += fmt.Sprintf("Subject: %s\r\n", msg.Subject)
	message += "\r\n"
	message += msg.Body

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{msg.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendGridSender implements Sender using SendGrid
type SendGridSender struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendGridSender creates a new SendGrid email sender
func NewSendGridSender(apiKey, from, fromName string) Sender {
	return &SendGridSender{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
	}
}

// Send sends an email using SendGrid
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", msg.To)

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")
	client := sendgrid.NewSendClient(s.apiKey)

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}

	return nil
}

// MockSender implements Sender for testing and local development
type MockSender struct {
	mu         sync.Mutex
	SentEmails []Message
}

// NewMockSender creates a new mock email sender
func NewMockSender() *MockSender {
	return &MockSender{
		SentEmails: make([]Message, 0),
	}
}

// Send records the email without delivering it
func (s *MockSender) Send(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SentEmails = append(s.SentEmails, *msg)
	return nil
}

// Sent returns a snapshot of recorded emails
func (s *MockSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.SentEmails))
	copy(out, s.SentEmails)
	return out
}
