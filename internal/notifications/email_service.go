package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"
)

// EmailSender delivers one notification
type EmailSender interface {
	Send(ctx context.Context, notification *EmailNotification) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	StartTLS  bool
}

func (c *SMTPConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

type emailTemplate struct {
	html *template.Template
	text *texttemplate.Template
}

var htmlTemplates = map[NotificationType]string{
	NotificationTypeTicketIssued: `<h2>Your ticket number is {{.ticket_number}}</h2>
<p>Hi {{.name}},</p>
<p>You are now in the queue at {{.clinic}}. Please keep an eye on the waiting-room screen.</p>`,
	NotificationTypePatientCalled: `<h2>Ticket {{.ticket_number}}, it's your turn</h2>
<p>Hi {{.name}},</p>
<p>Please make your way to the consultation room at {{.clinic}}.</p>`,
}

var textTemplates = map[NotificationType]string{
	NotificationTypeTicketIssued:  "Hi {{.name}},\n\nYour ticket number is {{.ticket_number}}. You are now in the queue at {{.clinic}}.\n",
	NotificationTypePatientCalled: "Hi {{.name}},\n\nTicket {{.ticket_number}}, it's your turn. Please make your way to the consultation room at {{.clinic}}.\n",
}

// SMTPEmailService renders the notification templates and sends them over SMTP
type SMTPEmailService struct {
	config    *SMTPConfig
	templates map[NotificationType]emailTemplate
}

func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	templates := make(map[NotificationType]emailTemplate, len(htmlTemplates))
	for notType, body := range htmlTemplates {
		html, err := template.New(string(notType)).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", notType, err)
		}
		text, err := texttemplate.New(string(notType)).Parse(textTemplates[notType])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s text template: %w", notType, err)
		}
		templates[notType] = emailTemplate{html: html, text: text}
	}

	return &SMTPEmailService{
		config:    config,
		templates: templates,
	}, nil
}

func (s *SMTPEmailService) Send(ctx context.Context, notification *EmailNotification) error {
	if notification.RecipientEmail == "" {
		return fmt.Errorf("notification %s has no recipient", notification.ID)
	}

	htmlBody, textBody, err := s.render(notification)
	if err != nil {
		return err
	}

	message := s.buildMessage(notification.RecipientEmail, notification.Subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if s.config.StartTLS {
		err = s.sendWithSTARTTLS(addr, auth, notification.RecipientEmail, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{notification.RecipientEmail}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPEmailService) render(notification *EmailNotification) (string, string, error) {
	tmpl, ok := s.templates[notification.Type]
	if !ok {
		return "", "", fmt.Errorf("no template for notification type %s", notification.Type)
	}

	data := make(map[string]interface{}, len(notification.TemplateData)+1)
	for k, v := range notification.TemplateData {
		data[k] = v
	}
	data["name"] = notification.RecipientName

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
