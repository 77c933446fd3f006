package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(toEmail, toName, token string) error
	SendWelcomeEmail(toEmail, toName string) error
	SendSupervisionRequestEmail(toEmail, professorName, studentName string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService. Without SMTP credentials every
// message is logged instead of sent.
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

func (s *EmailServiceImpl) configured() bool {
	return s.config.Username != "" && s.config.Password != "" && s.config.Host != ""
}

// VerificationURL returns the link a user follows to verify their address
func (s *EmailServiceImpl) VerificationURL(token string) string {
	return fmt.Sprintf("%s/api/v1/auth/verify/%s", strings.TrimRight(s.config.BaseURL, "/"), token)
}

// SendVerificationEmail sends an email with a verification link
func (s *EmailServiceImpl) SendVerificationEmail(toEmail, toName, token string) error {
	verificationURL := s.VerificationURL(token)

	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("verificationURL", verificationURL).
			Msg("SMTP credentials not configured - verification email not sent")
		return nil
	}

	body := fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h2>Welcome to LabSphere!</h2>
<p>Hello %s,</p>
<p>Please confirm your email address by opening the link below:</p>
<p><a href="%s">Verify Email</a></p>
<p>The link expires in one hour. If you did not create an account, ignore this email.</p>
</body></html>`, toName, verificationURL)

	return s.sendHTMLEmail(toEmail, "Verify Your Email Address - LabSphere", body)
}

// SendWelcomeEmail sends a welcome email to a newly verified user
func (s *EmailServiceImpl) SendWelcomeEmail(toEmail, toName string) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Msg("SMTP credentials not configured - welcome email not sent")
		return nil
	}

	body := fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h2>Your LabSphere account is active</h2>
<p>Hello %s,</p>
<p>Your email has been verified. You can now post, follow labs and researchers, and like posts.</p>
</body></html>`, toName)

	return s.sendHTMLEmail(toEmail, "Welcome to LabSphere", body)
}

// SendSupervisionRequestEmail tells a professor that a student asked for approval
func (s *EmailServiceImpl) SendSupervisionRequestEmail(toEmail, professorName, studentName string) error {
	if !s.configured() {
		s.logger.Info().
			Str("toEmail", toEmail).
			Str("student", studentName).
			Msg("SMTP credentials not configured - supervision notice not sent")
		return nil
	}

	body := fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<p>Hello %s,</p>
<p>%s listed you as their supervising professor on LabSphere.</p>
<p>Review the request on your <a href="%s/api/v1/approvals">approvals page</a>.</p>
</body></html>`, professorName, studentName, strings.TrimRight(s.config.BaseURL, "/"))

	return s.sendHTMLEmail(toEmail, "New supervision request - LabSphere", body)
}

func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return nil
}
